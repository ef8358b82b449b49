package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ternarybob/arbor"
)

// requestLogger logs one line per request once the response status is final.
func requestLogger(logger arbor.ILogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			logger.Info().
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Str("duration", time.Since(start).String()).
				Msg("HTTP request")
			return nil
		}
	}
}
