package batch

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Entry is one validated input row.
type Entry struct {
	Row        int            // 1-indexed input row
	Recipient  common.Address // validated once at ingestion
	AmountText string         // trimmed decimal text as entered
}

// Batch is the ordered, validated content of one upload.
// Entries keep input order; recipients and amounts derived from it stay positionally aligned.
type Batch struct {
	Entries []Entry
	// Total is the sum of the entered amounts, for display only.
	Total decimal.Decimal
	// Normalized holds one amount per entry in the token's indivisible unit,
	// set once Normalize succeeds. Nil until then.
	Normalized []*big.Int
	// Precision used to produce Normalized.
	Precision int
}

// Len returns the number of entries.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Entries)
}

// Recipients returns the recipient column in input order.
func (b *Batch) Recipients() []common.Address {
	recipients := make([]common.Address, len(b.Entries))
	for i, e := range b.Entries {
		recipients[i] = e.Recipient
	}
	return recipients
}

// IsNormalized reports whether amounts have been converted for the current precision.
func (b *Batch) IsNormalized() bool {
	return b != nil && b.Normalized != nil && len(b.Normalized) == len(b.Entries)
}
