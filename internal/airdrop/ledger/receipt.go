package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Status of a submitted distribution.
type Status int

const (
	Pending Status = iota
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrAlreadySettled is returned when a receipt is settled twice.
var ErrAlreadySettled = errors.New("receipt already settled")

// Receipt tracks one submitted distribution. It leaves Pending exactly once.
type Receipt struct {
	RequestID common.Hash

	mu     sync.Mutex
	status Status
	block  uint64
	reason string
}

// ReceiptView is a copy of a receipt's state.
type ReceiptView struct {
	RequestID        string  `json:"request_id"`
	Status           Status  `json:"status"`
	ConfirmedAtBlock *uint64 `json:"confirmed_at_block,omitempty"`
	Reason           string  `json:"reason,omitempty"`
}

// NewReceipt returns a pending receipt for the given transaction hash.
func NewReceipt(requestID common.Hash) *Receipt {
	return &Receipt{RequestID: requestID, status: Pending}
}

// Settle moves the receipt to a terminal status. block is recorded for Confirmed,
// reason for Failed.
func (r *Receipt) Settle(status Status, block uint64, reason string) error {
	if status == Pending {
		return errors.New("cannot settle a receipt as pending")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != Pending {
		return errors.Wrapf(ErrAlreadySettled, "%s is %s", r.RequestID.Hex(), r.status)
	}

	r.status = status
	if status == Confirmed {
		r.block = block
	} else {
		r.reason = reason
	}

	return nil
}

// Status returns the current status.
func (r *Receipt) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// ConfirmedAtBlock returns the inclusion block once Confirmed.
func (r *Receipt) ConfirmedAtBlock() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.block, r.status == Confirmed
}

// View returns a snapshot of the receipt.
func (r *Receipt) View() ReceiptView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := ReceiptView{
		RequestID: r.RequestID.Hex(),
		Status:    r.status,
		Reason:    r.reason,
	}
	if r.status == Confirmed {
		block := r.block
		v.ConfirmedAtBlock = &block
	}

	return v
}
