// Package local implements a wallet provider backed by a mnemonic held in
// process memory. Every access, network and transaction request is confirmed
// through an Approver.
package local

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-airdrop/internal/airdrop/address"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/airdrop/wallet/rpc"
	"github/chapool/go-airdrop/internal/airdrop/wallet/signer"
)

const (
	// Name identifies this provider in configuration.
	Name = "local"

	// DefaultPriority ranks the local wallet after an external signer.
	DefaultPriority = 20

	// MaxFee = BaseFee * 2 + TipCap
	baseFeeMultiplier = 2
)

// DialFunc connects to the RPC endpoints of one network.
type DialFunc func(ctx context.Context, urls []string) (*rpc.Client, error)

// Config configures a local Provider.
type Config struct {
	DerivationPath string
	// Networks known before any AddChain. The first one is the initial network.
	Networks []wallet.Network
	Priority int
	Dial     DialFunc
}

// Provider is a wallet.Provider signing with a key derived from the seed.
type Provider struct {
	signer   signer.Service
	approver Approver
	path     string
	priority int
	dial     DialFunc

	mu         sync.Mutex
	account    common.Address
	authorized bool
	current    int64
	networks   map[int64]wallet.Network
	clients    map[int64]*rpc.Client
}

var _ wallet.Provider = (*Provider)(nil)

// New creates a local provider.
func New(signerService signer.Service, approver Approver, cfg Config) (*Provider, error) {
	if len(cfg.Networks) == 0 {
		return nil, errors.New("at least one network is required")
	}

	path := cfg.DerivationPath
	if path == "" {
		path = signer.DefaultDerivationPath
	}

	priority := cfg.Priority
	if priority == 0 {
		priority = DefaultPriority
	}

	dial := cfg.Dial
	if dial == nil {
		dial = rpc.Dial
	}

	networks := make(map[int64]wallet.Network, len(cfg.Networks))
	for _, n := range cfg.Networks {
		networks[n.ChainID] = n
	}

	return &Provider{
		signer:   signerService,
		approver: approver,
		path:     path,
		priority: priority,
		dial:     dial,
		current:  cfg.Networks[0].ChainID,
		networks: networks,
		clients:  make(map[int64]*rpc.Client),
	}, nil
}

// Name implements wallet.Provider.
func (p *Provider) Name() string { return Name }

// Priority implements wallet.Provider.
func (p *Provider) Priority() int { return p.priority }

// Probe checks that a key can be derived and that approvals can be asked for.
func (p *Provider) Probe(ctx context.Context) error {
	if _, err := p.signer.DeriveAddress(ctx, p.path); err != nil {
		return errors.Wrap(wallet.ErrUnavailable, err.Error())
	}

	if a, ok := p.approver.(interface{ Available() error }); ok {
		if err := a.Available(); err != nil {
			return errors.Wrap(wallet.ErrUnavailable, err.Error())
		}
	}

	return nil
}

// RequestAccounts asks once for access to the derived account.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	authorized, account := p.authorized, p.account
	p.mu.Unlock()

	if authorized {
		return []common.Address{account}, nil
	}

	account, err := p.signer.DeriveAddress(ctx, p.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive account")
	}

	if err := p.approve(ctx, fmt.Sprintf("Allow access to account %s?", account.Hex())); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.account = account
	p.authorized = true
	p.mu.Unlock()

	return []common.Address{account}, nil
}

// ChainID implements wallet.Provider.
func (p *Provider) ChainID(context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return big.NewInt(p.current), nil
}

// SwitchChain implements wallet.Provider.
func (p *Provider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	if !chainID.IsInt64() {
		return wallet.ErrUnknownChain
	}
	id := chainID.Int64()

	p.mu.Lock()
	network, known := p.networks[id]
	current := p.current
	p.mu.Unlock()

	if !known {
		return wallet.ErrUnknownChain
	}
	if current == id {
		return nil
	}

	if err := p.approve(ctx, fmt.Sprintf("Switch network to %s (%d)?", network.Name, id)); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = id
	p.mu.Unlock()

	log.Info().Int64("chain_id", id).Str("network", network.Name).Msg("Local wallet switched network")

	return nil
}

// AddChain implements wallet.Provider.
func (p *Provider) AddChain(ctx context.Context, network wallet.Network) error {
	if network.ChainID <= 0 || len(network.RPCURLs) == 0 {
		return errors.Errorf("network %q needs a chain id and at least one RPC URL", network.Name)
	}

	if err := p.approve(ctx, fmt.Sprintf("Add network %s (%d) via %s?",
		network.Name, network.ChainID, network.RPCURLs[0])); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.clients[network.ChainID]; ok {
		old.Close()
		delete(p.clients, network.ChainID)
	}
	p.networks[network.ChainID] = network

	return nil
}

// CallContract implements wallet.Provider.
func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	return client.CallContract(ctx, msg)
}

// SendTransaction asks for approval, then signs an EIP-1559 transaction for the
// current network and broadcasts it.
func (p *Provider) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	p.mu.Lock()
	account, authorized, chainID := p.account, p.authorized, p.current
	p.mu.Unlock()

	if !authorized || req.From != account {
		return common.Hash{}, errors.Errorf("account %s is not authorized", req.From.Hex())
	}

	client, err := p.client(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: req.From, To: &req.To, Data: req.Data})
	if err != nil {
		return common.Hash{}, err
	}

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	latest, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, err
	}

	baseFee := latest.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}

	maxFee := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(baseFeeMultiplier)), tipCap)

	prompt := fmt.Sprintf("Sign transaction to %s on chain %d (%s, gas %d, max fee %s wei)?",
		address.Short(req.To), chainID, req.Summary, gasLimit, maxFee.String())
	if err := p.approve(ctx, prompt); err != nil {
		return common.Hash{}, err
	}

	nonce, err := client.PendingNonceAt(ctx, req.From)
	if err != nil {
		return common.Hash{}, err
	}

	signResp, err := p.signer.SignEVMTransaction(ctx, &signer.SignEVMRequest{
		ChainID:              big.NewInt(chainID),
		To:                   req.To,
		GasLimit:             gasLimit,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tipCap,
		Nonce:                nonce,
		Data:                 req.Data,
		FromAddress:          req.From,
		DerivationPath:       p.path,
	})
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to sign transaction")
	}

	txObj := new(types.Transaction)
	if err := txObj.UnmarshalBinary(signResp.RawTransaction); err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to decode signed transaction")
	}

	if err := client.SendTransaction(ctx, txObj); err != nil {
		return common.Hash{}, err
	}

	log.Info().
		Str("from", req.From.Hex()).
		Str("to", req.To.Hex()).
		Str("tx_hash", txObj.Hash().Hex()).
		Uint64("nonce", nonce).
		Int64("chain_id", chainID).
		Msg("Local wallet broadcast transaction")

	return txObj.Hash(), nil
}

// TransactionReceipt implements wallet.Provider.
func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	return client.GetTransactionReceipt(ctx, hash)
}

// Close drops every RPC connection.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}

func (p *Provider) approve(ctx context.Context, prompt string) error {
	ok, err := p.approver.Approve(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return wallet.ErrUserRejected
	}

	return nil
}

func (p *Provider) client(ctx context.Context) (*rpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[p.current]; ok {
		return c, nil
	}

	network, ok := p.networks[p.current]
	if !ok {
		return nil, wallet.ErrUnknownChain
	}

	c, err := p.dial(ctx, network.RPCURLs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", network.Name)
	}
	p.clients[p.current] = c

	return c, nil
}
