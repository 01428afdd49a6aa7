package airdrop

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/api/httperrors"
	"github/chapool/go-airdrop/internal/types"
	"github/chapool/go-airdrop/internal/util"
)

func PostSessionEventsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/session/events", postSessionEventsHandler(s))
}

// postSessionEventsHandler applies chainChanged and accountsChanged
// notifications the UI received from the wallet.
func postSessionEventsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := util.LogFromEchoContext(c)

		var body types.PostSessionEventPayload
		if err := api.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		event := swag.StringValue(body.Event)

		switch event {
		case types.PostSessionEventPayloadEventChainChanged:
			chainID, err := hexutil.DecodeBig(body.ChainID)
			if err != nil {
				return httperrors.NewHTTPValidationError(
					http.StatusBadRequest,
					httperrors.TypeGeneric,
					"Invalid chain id",
					[]*types.HTTPValidationErrorDetail{
						{
							Key:   swag.String("chainId"),
							In:    swag.String("body"),
							Error: swag.String("must be a hex quantity such as 0xaa36a7"),
						},
					},
				)
			}
			s.Engine.NetworkChanged(chainID)
		case types.PostSessionEventPayloadEventAccountsChanged:
			accounts := make([]common.Address, 0, len(body.Accounts))
			for _, account := range body.Accounts {
				accounts = append(accounts, common.HexToAddress(account))
			}
			s.Engine.AccountsChanged(accounts)
		default:
			return httperrors.ErrBadRequestInvalidEvent
		}

		log.Debug().Str("event", event).Msg("Applied wallet event")

		return c.JSON(http.StatusOK, newSessionResponse(s.Engine))
	}
}
