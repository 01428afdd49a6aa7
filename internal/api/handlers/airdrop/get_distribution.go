package airdrop

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/api/httperrors"
)

func GetDistributionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/distribution", getDistributionHandler(s))
}

func getDistributionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		state := s.Engine.State()
		outcome := s.Engine.LastOutcome()

		if outcome == nil && !state.Busy() {
			return httperrors.ErrNotFoundNoDistribution
		}

		return c.JSON(http.StatusOK, &DistributionResponse{
			State:   state,
			Outcome: outcome,
		})
	}
}
