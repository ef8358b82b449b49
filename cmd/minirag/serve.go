package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"minirag/internal/logging"
	"minirag/internal/pipeline"
	"minirag/internal/server"
	"minirag/internal/summarizer"
	"minirag/internal/telemetry"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cfg.Summarizer.Type != "frequency" {
				return fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
			}
			logger := logging.New(cfg.Logging)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := pipeline.FromConfig(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			srv := server.New(
				pipeline.NewSession(p, logger),
				summarizer.NewFrequencySummarizer(),
				telemetry.NewMetrics(),
				logger,
				server.Options{
					AllowOrigins:     cfg.Server.AllowOrigins,
					MaxUploadBytes:   cfg.Upload.MaxBytes,
					SummarySentences: cfg.Summarizer.MaxSentences,
				},
			)

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(cfg.Server.Addr) }()
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", ":8000", "listen address (overrides server.addr)")
	return serve
}
