package airdrop

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/api"
)

func GetDiagnosticsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/diagnostics", getDiagnosticsHandler(s))
}

func getDiagnosticsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		preferred := s.Config.Wallet.PreferredProvider

		return c.JSON(http.StatusOK, &DiagnosticsResponse{
			Preferred: preferred,
			Providers: wallet.Diagnose(c.Request().Context(), s.Providers, preferred),
		})
	}
}
