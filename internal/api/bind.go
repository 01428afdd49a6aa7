package api

import (
	"context"
	"fmt"
	"net/http"

	oaerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/api/httperrors"
	"github/chapool/go-airdrop/internal/types"
	"github/chapool/go-airdrop/internal/util"
)

// BindAndValidateBody binds the request body into v and validates it against
// its schema. Schema violations are returned as an HTTPValidationError.
func BindAndValidateBody(c echo.Context, v runtime.Validatable) error {
	log := util.LogFromEchoContext(c)

	binder, ok := c.Echo().Binder.(*echo.DefaultBinder)
	if !ok {
		binder = &echo.DefaultBinder{}
	}

	if err := binder.BindBody(c, v); err != nil {
		log.Debug().Err(err).Msg("Failed to bind payload")
		return httperrors.ErrBadRequestInvalidPayload
	}

	return validatePayload(c, v)
}

func validatePayload(c echo.Context, v runtime.Validatable) error {
	err := v.Validate(strfmt.Default)
	if err == nil {
		return nil
	}

	log := util.LogFromEchoContext(c)

	var compositeError *oaerrors.CompositeError
	if errors.As(err, &compositeError) {
		log.Debug().Errs("validation_errors", compositeError.Errors).Msg("Payload did not match schema, returning HTTP validation error")

		valErrs := formatValidationErrors(c.Request().Context(), compositeError)

		return httperrors.NewHTTPValidationError(http.StatusBadRequest, httperrors.TypeGeneric, http.StatusText(http.StatusBadRequest), valErrs)
	}

	log.Error().Err(err).Msg("Failed to validate payload, returning generic HTTP error")
	return err
}

func formatValidationErrors(ctx context.Context, err *oaerrors.CompositeError) []*types.HTTPValidationErrorDetail {
	valErrs := make([]*types.HTTPValidationErrorDetail, 0, len(err.Errors))
	for _, e := range err.Errors {
		switch ee := e.(type) {
		case *oaerrors.Validation:
			valErrs = append(valErrs, &types.HTTPValidationErrorDetail{
				Key:   swag.String(ee.Name),
				In:    swag.String(ee.In),
				Error: swag.String(ee.Error()),
			})
		case *oaerrors.CompositeError:
			valErrs = append(valErrs, formatValidationErrors(ctx, ee)...)
		default:
			util.LogFromContext(ctx).Warn().
				Err(e).
				Str("err_type", fmt.Sprintf("%T", e)).
				Msg("Received unknown error type while validating payload, skipping")
		}
	}

	return valErrs
}
