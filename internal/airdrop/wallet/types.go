// Package wallet defines the capability interface of signing-wallet collaborators
// and how one is chosen among several.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

var (
	// ErrUserRejected is returned when the human declines a wallet prompt (EIP-1193 code 4001).
	ErrUserRejected = errors.New("user rejected the request")
	// ErrUnknownChain is returned by SwitchChain when the network is not registered (EIP-1193 code 4902).
	ErrUnknownChain = errors.New("unrecognized chain")
	// ErrUnavailable is returned by Probe when the provider cannot be used.
	ErrUnavailable = errors.New("wallet provider unavailable")
)

// Provider is a signing wallet the engine drives. Calls may block for as long as
// the human takes to answer a prompt; only ctx cancellation interrupts them.
type Provider interface {
	// Name identifies the provider in configuration and diagnostics.
	Name() string
	// Priority ranks providers; lower is preferred.
	Priority() int
	// Probe checks that the provider can be used at all.
	Probe(ctx context.Context) error

	// RequestAccounts asks the human for access and returns authorized accounts.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// ChainID returns the network the provider is currently on.
	ChainID(ctx context.Context) (*big.Int, error)
	// SwitchChain moves the provider to chainID. Returns ErrUnknownChain if the
	// network must be registered with AddChain first.
	SwitchChain(ctx context.Context, chainID *big.Int) error
	// AddChain registers a network with the provider.
	AddChain(ctx context.Context, network Network) error

	// CallContract executes a read-only call on the current network.
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	// SendTransaction asks the human to sign and broadcasts the result.
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	// TransactionReceipt returns ethereum.NotFound while the transaction is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	Close()
}

// TxRequest is a state-changing call handed to the wallet. Gas and fees are the
// wallet's responsibility.
type TxRequest struct {
	From common.Address
	To   common.Address
	Data []byte
	// Summary is shown to the human when approval is requested.
	Summary string
}

// NativeCurrency describes a network's native unit.
type NativeCurrency struct {
	Name     string `json:"name" toml:"name"`
	Symbol   string `json:"symbol" toml:"symbol"`
	Decimals int    `json:"decimals" toml:"decimals"`
}

// Network is the registration descriptor of a chain.
type Network struct {
	ChainID      int64          `json:"chainId" toml:"chain_id"`
	Name         string         `json:"chainName" toml:"name"`
	Currency     NativeCurrency `json:"nativeCurrency" toml:"native_currency"`
	RPCURLs      []string       `json:"rpcUrls" toml:"rpc_urls"`
	ExplorerURLs []string       `json:"blockExplorerUrls" toml:"explorer_urls"`
}

// ChainIDBig returns the chain id as *big.Int.
func (n Network) ChainIDBig() *big.Int {
	return big.NewInt(n.ChainID)
}

// TxURL returns the explorer link for a transaction, or "" if the network has no explorer.
func (n Network) TxURL(hash common.Hash) string {
	if len(n.ExplorerURLs) == 0 {
		return ""
	}

	base := n.ExplorerURLs[0]
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}

	return base + "/tx/" + hash.Hex()
}

// Sepolia is the default target network.
//
//nolint:gochecknoglobals
var Sepolia = Network{
	ChainID: 11155111,
	Name:    "Sepolia",
	Currency: NativeCurrency{
		Name:     "SepoliaETH",
		Symbol:   "SEP",
		Decimals: 18,
	},
	RPCURLs:      []string{"https://rpc.sepolia.org"},
	ExplorerURLs: []string{"https://sepolia.etherscan.io"},
}
