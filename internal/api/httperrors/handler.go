package httperrors

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/util"
)

// HTTPErrorHandler renders every error returned by a handler as HTTPError JSON.
// Errors the engine does not classify become 500s whose details are hidden
// when hideInternalServerErrorDetails is set.
func HTTPErrorHandler(hideInternalServerErrorDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromEchoContext(c)

		var (
			httpErr *HTTPError
			valErr  *HTTPValidationError
			echoErr *echo.HTTPError
		)
		if errors.As(err, &valErr) {
			httpErr = &valErr.HTTPError
		} else if errors.As(err, &echoErr) {
			httpErr = NewFromEcho(echoErr)
		} else if converted := FromError(err); converted != nil {
			httpErr = converted
		} else {
			httpErr = NewHTTPError(http.StatusInternalServerError, TypeGeneric, http.StatusText(http.StatusInternalServerError))
			if !hideInternalServerErrorDetails {
				httpErr.Detail = err.Error()
			}
		}

		if httpErr.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", httpErr.Code).Msg("Request failed")
		} else {
			log.Debug().Err(err).Int("status", httpErr.Code).Msg("Request rejected")
		}

		var body any = httpErr
		if valErr != nil {
			body = valErr
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(httpErr.Code)
		} else {
			sendErr = c.JSON(httpErr.Code, body)
		}
		if sendErr != nil {
			log.Error().Err(sendErr).Msg("Failed to send error response")
		}
	}
}
