package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"minirag/internal/pipeline"
	"minirag/internal/vectorstore/pinecone"
)

func indexCMD(cfgPath *string) *cobra.Command {
	index := &cobra.Command{
		Use:   "index",
		Short: "Manage the Pinecone index",
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete and recreate the index with the configured dimension and metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c, err := pipeline.PineconeClient(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := cfg.VectorStore.Pinecone
			fmt.Fprintf(out, "Recreating index %s (dimension %d, metric %s, %s/%s)...\n",
				c.IndexName(), p.Dimension, p.Metric, p.Cloud, p.Region)
			desc, err := c.Recreate(cmd.Context(), p.Dimension)
			if err != nil {
				return err
			}
			printIndex(out, desc)
			return nil
		},
	}

	describe := &cobra.Command{
		Use:   "describe",
		Short: "Show the index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c, err := pipeline.PineconeClient(cfg)
			if err != nil {
				return err
			}
			desc, err := c.Describe(cmd.Context())
			if err != nil {
				return err
			}
			printIndex(cmd.OutOrStdout(), desc)
			return nil
		},
	}

	index.AddCommand(reset, describe)
	return index
}

func printIndex(w io.Writer, d pinecone.IndexDescription) {
	fmt.Fprintf(w, "Index:     %s\n", d.Name)
	fmt.Fprintf(w, "Dimension: %d\n", d.Dimension)
	fmt.Fprintf(w, "Metric:    %s\n", d.Metric)
	fmt.Fprintf(w, "Host:      %s\n", d.Host)
	fmt.Fprintf(w, "Ready:     %t (%s)\n", d.Status.Ready, d.Status.State)
}
