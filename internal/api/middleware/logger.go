package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/go-airdrop/internal/config"
)

type LoggerConfig struct {
	Skipper middleware.Skipper
	config.LoggerServer
}

//nolint:gochecknoglobals
var DefaultLoggerConfig = LoggerConfig{
	Skipper: middleware.DefaultSkipper,
}

// LoggerWithConfig attaches a request scoped zerolog logger to the request
// context and logs every request once it completed.
func LoggerWithConfig(cfg LoggerConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = DefaultLoggerConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			logger := log.With().
				Str("id", id).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			logger.WithLevel(cfg.RequestLevel).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration_ms", time.Since(start)).
				Msg("http_request")

			return nil
		}
	}
}
