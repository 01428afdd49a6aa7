// Package eip1193 drives an external signing wallet that exposes the EIP-1193
// request methods over JSON-RPC (a browser bridge, a hardware wallet daemon or
// any signer speaking eth_requestAccounts/eth_sendTransaction).
package eip1193

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
)

const (
	// Name identifies this provider in configuration.
	Name = "external"

	// DefaultPriority ranks an external signer before the local wallet.
	DefaultPriority = 10

	codeUserRejected = 4001
	codeUnauthorized = 4100
	codeUnknownChain = 4902
)

// Provider is a wallet.Provider talking to an external signer.
type Provider struct {
	url      string
	priority int

	mu     sync.Mutex
	client *gethrpc.Client
}

var _ wallet.Provider = (*Provider)(nil)

// New creates a provider for the signer at url. The connection is made on first use.
func New(url string, priority int) *Provider {
	if priority == 0 {
		priority = DefaultPriority
	}

	return &Provider{url: url, priority: priority}
}

// NewWithClient creates a provider over an established connection.
func NewWithClient(client *gethrpc.Client, priority int) *Provider {
	p := New("", priority)
	p.client = client

	return p
}

// Name implements wallet.Provider.
func (p *Provider) Name() string { return Name }

// Priority implements wallet.Provider.
func (p *Provider) Priority() int { return p.priority }

// Probe checks that the signer answers eth_chainId.
func (p *Provider) Probe(ctx context.Context) error {
	if _, err := p.ChainID(ctx); err != nil {
		return errors.Wrap(wallet.ErrUnavailable, err.Error())
	}

	return nil
}

// RequestAccounts implements wallet.Provider (eth_requestAccounts).
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, errors.Wrap(wallet.ErrUserRejected, "signer returned no accounts")
	}

	return accounts, nil
}

// ChainID implements wallet.Provider (eth_chainId).
func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := p.call(ctx, &result, "eth_chainId"); err != nil {
		return nil, err
	}

	return result.ToInt(), nil
}

type switchChainParams struct {
	ChainID *hexutil.Big `json:"chainId"`
}

// SwitchChain implements wallet.Provider (wallet_switchEthereumChain).
func (p *Provider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	return p.call(ctx, nil, "wallet_switchEthereumChain", switchChainParams{ChainID: (*hexutil.Big)(chainID)})
}

type addChainParams struct {
	ChainID           *hexutil.Big          `json:"chainId"`
	ChainName         string                `json:"chainName"`
	NativeCurrency    wallet.NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string              `json:"rpcUrls"`
	BlockExplorerURLs []string              `json:"blockExplorerUrls,omitempty"`
}

// AddChain implements wallet.Provider (wallet_addEthereumChain, EIP-3085).
func (p *Provider) AddChain(ctx context.Context, network wallet.Network) error {
	return p.call(ctx, nil, "wallet_addEthereumChain", addChainParams{
		ChainID:           (*hexutil.Big)(network.ChainIDBig()),
		ChainName:         network.Name,
		NativeCurrency:    network.Currency,
		RPCURLs:           network.RPCURLs,
		BlockExplorerURLs: network.ExplorerURLs,
	})
}

type txArgs struct {
	From *common.Address `json:"from,omitempty"`
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data,omitempty"`
}

// CallContract implements wallet.Provider (eth_call at latest).
func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	args := txArgs{To: msg.To, Data: msg.Data}
	if msg.From != (common.Address{}) {
		from := msg.From
		args.From = &from
	}

	var out hexutil.Bytes
	if err := p.call(ctx, &out, "eth_call", args, "latest"); err != nil {
		return nil, err
	}

	return out, nil
}

// SendTransaction implements wallet.Provider (eth_sendTransaction). The signer
// fills in gas, fees and nonce and may keep the request open while the human
// decides.
func (p *Provider) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	from, to := req.From, req.To

	var hash common.Hash
	if err := p.call(ctx, &hash, "eth_sendTransaction", txArgs{From: &from, To: &to, Data: req.Data}); err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

// TransactionReceipt implements wallet.Provider (eth_getTransactionReceipt).
func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := p.call(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}

	if receipt == nil {
		return nil, ethereum.NotFound
	}

	return receipt, nil
}

// Close implements wallet.Provider.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

func (p *Provider) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	client, err := p.connect(ctx)
	if err != nil {
		return err
	}

	if err := client.CallContext(ctx, result, method, args...); err != nil {
		return mapError(method, err)
	}

	return nil
}

func (p *Provider) connect(ctx context.Context) (*gethrpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	if p.url == "" {
		return nil, errors.New("no external signer URL configured")
	}

	client, err := gethrpc.DialContext(ctx, p.url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to external signer %s", p.url)
	}
	p.client = client

	return client, nil
}

// mapError turns EIP-1193 provider error codes into wallet sentinel errors.
func mapError(method string, err error) error {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected, codeUnauthorized:
			return errors.Wrapf(wallet.ErrUserRejected, "%s: %s", method, rpcErr.Error())
		case codeUnknownChain:
			return errors.Wrapf(wallet.ErrUnknownChain, "%s: %s", method, rpcErr.Error())
		}
	}

	return errors.Wrap(err, method)
}
