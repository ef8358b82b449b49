package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"minirag/internal/domain"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// classify maps an error to its HTTP status and metrics label.
func classify(err error) (int, string, string) {
	var (
		httpErr  *echo.HTTPError
		inputErr *domain.InputError
		stateErr *domain.StateError
		upErr    *domain.UpstreamError
	)
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, "input", inputErr.Error()
	case errors.As(err, &stateErr):
		return http.StatusBadRequest, "state", stateErr.Error()
	case errors.As(err, &upErr):
		return http.StatusInternalServerError, "upstream", upErr.Error()
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if httpErr.Message != nil {
			msg = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, "http", msg
	default:
		return http.StatusInternalServerError, "internal", err.Error()
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	code, kind, msg := classify(err)
	if kind != "http" {
		s.metrics.ObserveError(kind)
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("kind", kind).Str("path", req.URL.Path).Msg("Request failed")
	} else {
		s.logger.Warn().Err(err).Int("status", code).Str("kind", kind).Str("path", req.URL.Path).Msg("Request rejected")
	}

	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Detail: msg})
}
