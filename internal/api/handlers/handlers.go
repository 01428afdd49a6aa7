package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/api/handlers/airdrop"
	"github/chapool/go-airdrop/internal/api/handlers/common"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		airdrop.GetDiagnosticsRoute(s),
		airdrop.GetDistributionRoute(s),
		airdrop.GetSessionRoute(s),
		airdrop.PostBatchRoute(s),
		airdrop.PostCancelDistributionRoute(s),
		airdrop.PostConnectRoute(s),
		airdrop.PostDistributionRoute(s),
		airdrop.PostReconcileDistributionRoute(s),
		airdrop.PostRetryDistributionRoute(s),
		airdrop.PostSessionEventsRoute(s),
		common.GetReadyRoute(s),
	}
}
