package airdrop

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/util"
)

func PostCancelDistributionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/distribution/cancel", postCancelDistributionHandler(s))
}

func postCancelDistributionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		cancelled := s.Engine.Cancel()
		if cancelled {
			util.LogFromEchoContext(c).Info().Str("state", s.Engine.State().String()).Msg("Distribution cancelled")
		}

		return c.JSON(http.StatusOK, &CancelResponse{Cancelled: cancelled})
	}
}
