package airdrop

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/airdrop/distribution"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/util"
)

func PostDistributionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/distribution", postDistributionHandler(s))
}

func PostRetryDistributionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/distribution/retry", postRetryDistributionHandler(s))
}

func PostReconcileDistributionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/distribution/reconcile", postReconcileDistributionHandler(s))
}

// postDistributionHandler starts a run of the held batch and answers 202 right
// away; the run waits for wallet approval and confirmation in the background.
// Poll GET /distribution for the outcome.
func postDistributionHandler(s *api.Server) echo.HandlerFunc {
	return startHandler(s.Engine.Start)
}

func postRetryDistributionHandler(s *api.Server) echo.HandlerFunc {
	return startHandler(s.Engine.StartRetry)
}

// postReconcileDistributionHandler waits again for the receipt of an
// unsettled run in the background.
func postReconcileDistributionHandler(s *api.Server) echo.HandlerFunc {
	return startHandler(s.Engine.StartReconcile)
}

func startHandler(start func(ctx context.Context) (<-chan *distribution.Outcome, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		// the run outlives the request but keeps its logger
		if _, err := start(context.WithoutCancel(ctx)); err != nil {
			log.Debug().Err(err).Msg("Failed to start distribution")
			return err
		}

		return c.NoContent(http.StatusAccepted)
	}
}
