// Package server exposes a Session over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ternarybob/arbor"

	"minirag/internal/config"
	"minirag/internal/domain"
	"minirag/internal/extract"
	"minirag/internal/pipeline"
	"minirag/internal/telemetry"
)

const defaultSourceName = "Direct Input"

// Options configure the HTTP surface.
type Options struct {
	AllowOrigins     []string
	MaxUploadBytes   int64
	SummarySentences int
}

type Server struct {
	echo       *echo.Echo
	session    *pipeline.Session
	summarizer domain.Summarizer
	metrics    *telemetry.Metrics
	logger     arbor.ILogger
	opts       Options
}

func New(session *pipeline.Session, summarizer domain.Summarizer, metrics *telemetry.Metrics, logger arbor.ILogger, opts Options) *Server {
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 3
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{echo: e, session: session, summarizer: summarizer, metrics: metrics, logger: logger, opts: opts}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: false,
	}))

	e.GET("/", s.status)
	e.POST("/upload", s.upload)
	e.POST("/upload-text", s.uploadText)
	e.POST("/query", s.query)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Str("mode", s.session.Mode()).Msg("HTTP server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

type statusResponse struct {
	Status string `json:"status"`
}

type uploadTextRequest struct {
	Text       string `json:"text"`
	SourceName string `json:"source_name"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
	Summary string `json:"summary"`
}

func (s *Server) status(c echo.Context) error {
	msg := "Production Mode"
	if s.demo() {
		msg = "Demo Mode - No API keys required!"
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "Backend is running - " + msg})
}

func (s *Server) upload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.opts.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewInputError("File exceeds the %d byte upload limit.", s.opts.MaxUploadBytes)
		}
		return domain.NewInputError("A file is required: %v", err)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	doc, err := extract.FromUpload(fh.Filename, data)
	if err != nil {
		return err
	}
	res, summary, err := s.ingest(req.Context(), doc.Kind, doc.Text, doc.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("Successfully processed and indexed %s file: %s.%s", doc.Kind, doc.Name, s.modeSuffix()),
		Chunks:  res.Chunks,
		Summary: summary,
	})
}

func (s *Server) uploadText(c echo.Context) error {
	var body uploadTextRequest
	if err := c.Bind(&body); err != nil {
		return domain.NewInputError("Invalid request body.")
	}
	if strings.TrimSpace(body.Text) == "" {
		return domain.NewInputError("Text content cannot be empty.")
	}
	source := strings.TrimSpace(body.SourceName)
	if source == "" {
		source = defaultSourceName
	}
	res, summary, err := s.ingest(c.Request().Context(), "pasted", body.Text, source)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("Successfully processed and indexed text from %s.%s", source, s.modeSuffix()),
		Chunks:  res.Chunks,
		Summary: summary,
	})
}

func (s *Server) query(c echo.Context) error {
	var body queryRequest
	if err := c.Bind(&body); err != nil {
		return domain.NewInputError("Invalid request body.")
	}
	start := time.Now()
	res, err := s.session.Answer(c.Request().Context(), body.Query)
	if err != nil {
		return err
	}
	s.metrics.ObserveAnswer(s.session.Mode(), res, time.Since(start))
	return c.JSON(http.StatusOK, res)
}

func (s *Server) ingest(ctx context.Context, kind, text, source string) (pipeline.IngestResult, string, error) {
	res, err := s.session.Ingest(ctx, text, source)
	if err != nil {
		return res, "", err
	}
	s.metrics.ObserveUpload(kind, res.Chunks, res.Elapsed)

	summary, err := s.summarizer.Summarize(text, s.opts.SummarySentences)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", source).Msg("Summary unavailable")
		summary = ""
	}
	return res, summary, nil
}

func (s *Server) demo() bool { return s.session.Mode() != config.ModeProduction }

func (s *Server) modeSuffix() string {
	if s.demo() {
		return " (Demo Mode)"
	}
	return ""
}
