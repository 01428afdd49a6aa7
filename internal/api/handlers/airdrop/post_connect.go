package airdrop

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/util"
)

func PostConnectRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/connect", postConnectHandler(s))
}

// postConnectHandler blocks until the human answered the wallet prompts.
func postConnectHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if _, err := s.Engine.Connect(ctx); err != nil {
			log.Debug().Err(err).Msg("Failed to connect wallet")
			return err
		}

		return c.JSON(http.StatusOK, newSessionResponse(s.Engine))
	}
}
