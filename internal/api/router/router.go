package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/api/handlers"
	"github/chapool/go-airdrop/internal/api/httperrors"
	"github/chapool/go-airdrop/internal/api/middleware"
)

// Init sets up echo, its middlewares and every route on s.
func Init(s *api.Server) error {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler(s.Config.Echo.HideInternalServerErrorDetails)

	// ---
	// General middleware
	if s.Config.Echo.EnableTrailingSlashMiddleware {
		s.Echo.Pre(echomiddleware.RemoveTrailingSlash())
	} else {
		log.Warn().Msg("Disabling trailing slash middleware due to environment config")
	}

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(echomiddleware.Recover())
	} else {
		log.Warn().Msg("Disabling recover middleware due to environment config")
	}

	if s.Config.Echo.EnableRequestIDMiddleware {
		s.Echo.Use(echomiddleware.RequestID())
	} else {
		log.Warn().Msg("Disabling request ID middleware due to environment config")
	}

	s.Echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper:      echomiddleware.DefaultSkipper,
		LoggerServer: s.Config.Logger,
	}))

	if s.Config.Echo.EnableCORSMiddleware {
		s.Echo.Use(echomiddleware.CORS())
	} else {
		log.Warn().Msg("Disabling CORS middleware due to environment config")
	}

	if s.Config.Management.EnableMetrics {
		metricsMiddleware, err := echoprometheus.MiddlewareConfig{
			Namespace:  "airdrop",
			Subsystem:  "http",
			Registerer: s.Registry,
		}.ToMiddleware()
		if err != nil {
			return errors.Wrap(err, "failed to create metrics middleware")
		}
		s.Echo.Use(metricsMiddleware)
	}

	s.Router = &api.Router{
		Routes:     nil, // will be populated by handlers.AttachAllRoutes(s)
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1:      s.Echo.Group("/api/v1"),
	}

	if s.Config.Management.EnableMetrics {
		s.Echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: s.Registry,
		}))
	}

	// ---
	// Finally attach our handlers
	handlers.AttachAllRoutes(s)

	return nil
}
