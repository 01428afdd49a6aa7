package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Service signs transactions with keys derived from the in-memory seed.
type Service interface {
	// DeriveAddress returns the EVM address at the given BIP44 path.
	DeriveAddress(ctx context.Context, path string) (common.Address, error)

	// SignEVMTransaction signs an EVM transaction (EIP-1559)
	SignEVMTransaction(ctx context.Context, req *SignEVMRequest) (*SignEVMResponse, error)
}

// SignEVMRequest represents a request to sign an EVM transaction
type SignEVMRequest struct {
	ChainID              *big.Int
	To                   common.Address
	Value                *big.Int // nil means zero
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Nonce                uint64
	Data                 []byte
	FromAddress          common.Address
	DerivationPath       string // BIP44 derivation path (e.g., "m/44'/60'/0'/0/0")
}

// SignEVMResponse represents a signed EVM transaction
type SignEVMResponse struct {
	RawTransaction []byte      // RLP-encoded signed transaction
	TxHash         common.Hash // Transaction hash
}

// DefaultDerivationPath is the first external account of BIP44 coin type 60.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"
