// Package failure defines the typed failures surfaced by the distribution engine.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	ConfigurationInvalid
	NoProviderFound
	AuthorizationDenied
	NetworkSwitchRejected
	NetworkUnavailable
	MalformedRow
	InvalidAddress
	InvalidAmount
	PrecisionExceeded
	LengthMismatch
	InsufficientFunds
	SubmissionRejected
	SettlementFailed
	OperationInProgress
)

var kindNames = map[Kind]string{
	Unknown:               "Unknown",
	ConfigurationInvalid:  "ConfigurationInvalid",
	NoProviderFound:       "NoProviderFound",
	AuthorizationDenied:   "AuthorizationDenied",
	NetworkSwitchRejected: "NetworkSwitchRejected",
	NetworkUnavailable:    "NetworkUnavailable",
	MalformedRow:          "MalformedRow",
	InvalidAddress:        "InvalidAddress",
	InvalidAmount:         "InvalidAmount",
	PrecisionExceeded:     "PrecisionExceeded",
	LengthMismatch:        "LengthMismatch",
	InsufficientFunds:     "InsufficientFunds",
	SubmissionRejected:    "SubmissionRejected",
	SettlementFailed:      "SettlementFailed",
	OperationInProgress:   "OperationInProgress",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name so JSON payloads stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Validation reports whether failures of this kind are recovered locally by
// dropping the current batch instead of ending the session.
func (k Kind) Validation() bool {
	switch k {
	case MalformedRow, InvalidAddress, InvalidAmount, PrecisionExceeded:
		return true
	default:
		return false
	}
}

// Error is a classified failure. Row is the 1-indexed input row, or 0 when the
// failure is not tied to a row.
type Error struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
	Row    int    `json:"row,omitempty"`
	cause  error
}

func (e *Error) Error() string {
	var msg string
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d: %s", e.Kind, e.Row, e.Detail)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}

	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}

	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a failure without a cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf creates a failure with a formatted detail.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AtRow creates a failure tied to the given 1-indexed row.
func AtRow(kind Kind, row int, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Row: row}
}

// Wrap classifies err. A nil err yields a failure without a cause.
func Wrap(err error, kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, cause: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	if f, ok := As(err); ok {
		return f.Kind
	}
	return Unknown
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// RowErrors is the ordered list of row diagnostics produced when a batch is rejected.
// It satisfies error by reporting the first entry, which is the row that rejected the batch.
type RowErrors []*Error

func (r RowErrors) Error() string {
	if len(r) == 0 {
		return "no row errors"
	}
	if len(r) == 1 {
		return r[0].Error()
	}
	return fmt.Sprintf("%s (and %d more row errors)", r[0].Error(), len(r)-1)
}

// Unwrap returns the first row error so KindOf and errors.As resolve to it.
func (r RowErrors) Unwrap() error {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}
