package distribution

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-airdrop/internal/airdrop/address"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/ledger"
)

// Session is the identity the orchestrator operates as. It changes only on
// Connect and on wallet notifications.
type Session struct {
	Connected bool            `json:"connected"`
	Provider  string          `json:"provider,omitempty"`
	Account   *common.Address `json:"account"`
	NetworkID *big.Int        `json:"network_id"`
}

// ShortAccount renders the account as 0x1234...abcd, or "" when disconnected.
func (s Session) ShortAccount() string {
	if s.Account == nil {
		return ""
	}
	return address.Short(*s.Account)
}

func (s Session) clone() Session {
	c := s
	if s.Account != nil {
		account := *s.Account
		c.Account = &account
	}
	if s.NetworkID != nil {
		c.NetworkID = new(big.Int).Set(s.NetworkID)
	}
	return c
}

// TokenMeta caches token facts for the session.
type TokenMeta struct {
	Precision int `json:"precision"`
	// Fallback is set when decimals() could not be read and the default was used.
	// A fallback precision is re-read before the next normalization.
	Fallback bool `json:"fallback"`
}

// Outcome reports how a distribution run ended.
type Outcome struct {
	RunID       string              `json:"run_id"`
	Status      State               `json:"status"`
	Failure     *failure.Error      `json:"failure,omitempty"`
	Receipt     *ledger.ReceiptView `json:"receipt,omitempty"`
	ExplorerURL string              `json:"explorer_url,omitempty"`
	Recipients  int                 `json:"recipients"`
	Total       string              `json:"total,omitempty"`
	Demand      string              `json:"demand,omitempty"`
	Precision   int                 `json:"precision"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// BatchSummary describes the batch currently held by the orchestrator.
type BatchSummary struct {
	Rows  int    `json:"rows"`
	Total string `json:"total"`
}
