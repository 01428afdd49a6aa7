package httperrors

import (
	"net/http"
)

var (
	ErrBadRequestZeroFileSize   = NewHTTPError(http.StatusBadRequest, TypeZeroFileSize, "File size of 0 is not supported.")
	ErrUnsupportedMediaType     = NewHTTPError(http.StatusUnsupportedMediaType, TypeUnsupportedMediaType, "Batch input must be plain text or CSV.")
	ErrConflictNotConnected     = NewHTTPError(http.StatusConflict, TypeNotConnected, "No wallet is connected.")
	ErrConflictNoBatch          = NewHTTPError(http.StatusConflict, TypeNoBatch, "No validated batch is held.")
	ErrConflictNothingToRetry   = NewHTTPError(http.StatusConflict, TypeNothingToRetry, "There is no failed distribution to retry.")
	ErrConflictUnsettled        = NewHTTPError(http.StatusConflict, TypeUnsettled, "A submitted distribution has not settled, reconcile it first.")
	ErrConflictNothingToSettle  = NewHTTPError(http.StatusConflict, TypeNothingToReconcile, "There is no unsettled distribution to reconcile.")
	ErrNotFoundNoDistribution   = NewHTTPError(http.StatusNotFound, TypeGeneric, "No distribution has run yet.")
	ErrBadRequestInvalidEvent   = NewHTTPError(http.StatusBadRequest, TypeGeneric, "Unknown wallet event.")
	ErrBadRequestInvalidPayload = NewHTTPError(http.StatusBadRequest, TypeGeneric, "Malformed request body.")
)
