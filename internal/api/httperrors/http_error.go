package httperrors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/airdrop/distribution"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/types"
)

const (
	TypeGeneric              = "generic"
	TypeZeroFileSize         = "ZERO_FILE_SIZE"
	TypeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	TypeNotConnected         = "NOT_CONNECTED"
	TypeNoBatch              = "NO_BATCH"
	TypeNothingToRetry       = "NOTHING_TO_RETRY"
	TypeUnsettled            = "UNSETTLED"
	TypeNothingToReconcile   = "NOTHING_TO_RECONCILE"
	TypeDistribution         = "DISTRIBUTION_FAILURE"
)

// HTTPError is the JSON error payload returned by every endpoint.
type HTTPError struct {
	Code  int    `json:"status"`
	Type  string `json:"type"`
	Title string `json:"title"`
	// Kind, Detail and Rows are set for distribution failures.
	Kind     string           `json:"kind,omitempty"`
	Detail   string           `json:"detail,omitempty"`
	Rows     []*failure.Error `json:"rows,omitempty"`
	Internal error            `json:"-"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errorType,
		Title: title,
	}
}

// NewFromEcho wraps errors raised by echo itself, e.g. 404 for unknown routes.
func NewFromEcho(e *echo.HTTPError) *HTTPError {
	return &HTTPError{
		Code:  e.Code,
		Type:  TypeGeneric,
		Title: fmt.Sprintf("%v", e.Message),
	}
}

func (e *HTTPError) Error() string {
	var msg string
	if e.Detail != "" {
		msg = fmt.Sprintf("HTTPError %d (%s): %s - %s", e.Code, e.Type, e.Title, e.Detail)
	} else {
		msg = fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	}

	if e.Internal != nil {
		msg = fmt.Sprintf("%s - %v", msg, e.Internal)
	}

	return msg
}

// StatusForKind maps a failure kind to the HTTP status reported for it.
func StatusForKind(kind failure.Kind) int {
	switch kind {
	case failure.MalformedRow, failure.InvalidAddress, failure.InvalidAmount,
		failure.PrecisionExceeded, failure.LengthMismatch, failure.InsufficientFunds:
		return http.StatusUnprocessableEntity
	case failure.AuthorizationDenied, failure.NetworkSwitchRejected:
		return http.StatusForbidden
	case failure.NoProviderFound:
		return http.StatusServiceUnavailable
	case failure.NetworkUnavailable, failure.SettlementFailed:
		return http.StatusBadGateway
	case failure.SubmissionRejected, failure.OperationInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts engine errors into HTTP errors. Unknown errors yield nil.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, distribution.ErrNotConnected):
		return ErrConflictNotConnected
	case errors.Is(err, distribution.ErrNoBatch):
		return ErrConflictNoBatch
	case errors.Is(err, distribution.ErrNothingToRetry):
		return ErrConflictNothingToRetry
	case errors.Is(err, distribution.ErrUnsettled):
		return ErrConflictUnsettled
	case errors.Is(err, distribution.ErrNothingToReconcile):
		return ErrConflictNothingToSettle
	}

	f, ok := failure.As(err)
	if !ok {
		return nil
	}

	result := &HTTPError{
		Code:     StatusForKind(f.Kind),
		Type:     TypeDistribution,
		Title:    f.Error(),
		Kind:     f.Kind.String(),
		Detail:   f.Detail,
		Internal: err,
	}

	var rows failure.RowErrors
	if errors.As(err, &rows) {
		result.Rows = rows
	} else if f.Row > 0 {
		result.Rows = []*failure.Error{f}
	}

	return result
}

// HTTPValidationError is an HTTPError listing the request fields that failed
// schema validation.
type HTTPValidationError struct {
	HTTPError
	ValidationErrors []*types.HTTPValidationErrorDetail `json:"validationErrors"`
}

func NewHTTPValidationError(code int, errorType string, title string, validationErrors []*types.HTTPValidationErrorDetail) *HTTPValidationError {
	return &HTTPValidationError{
		HTTPError:        HTTPError{Code: code, Type: errorType, Title: title},
		ValidationErrors: validationErrors,
	}
}

func (e *HTTPValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.HTTPError.Error())
	b.WriteString(" - Validation:")

	for i, v := range e.ValidationErrors {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, " %s (in %s): %s", swag.StringValue(v.Key), swag.StringValue(v.In), swag.StringValue(v.Error))
	}

	return b.String()
}
