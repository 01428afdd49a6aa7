// Package ledger is the gateway between the distribution engine and the ledger,
// reached exclusively through the selected signing wallet.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/util"
)

// DefaultPollInterval is how often AwaitConfirmation asks for the receipt.
const DefaultPollInterval = 3 * time.Second

// Identity is the resolved signing identity.
type Identity struct {
	Provider string
	Account  common.Address
}

// DistributionRequest is one airdrop call. Recipients and Amounts are positionally correlated.
type DistributionRequest struct {
	From        common.Address
	Distributor common.Address
	Recipients  []common.Address
	Amounts     []*big.Int
}

// Service talks to the ledger through a wallet provider.
type Service interface {
	// ResolveIdentity selects a provider and asks it for account access.
	ResolveIdentity(ctx context.Context) (Identity, error)
	// ChainID returns the network of the active provider.
	ChainID(ctx context.Context) (*big.Int, error)
	// AssertNetwork makes sure the active provider is on target, switching and
	// registering the network if needed.
	AssertNetwork(ctx context.Context, target wallet.Network) error
	// ReadPrecision reads decimals() of token. Callers fall back on error.
	ReadPrecision(ctx context.Context, token common.Address) (int, error)
	// ReadBalance reads balanceOf(holder) of token in indivisible units.
	ReadBalance(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error)
	// SubmitDistribution sends exactly one airdrop transaction and returns its
	// pending receipt. It blocks while the human decides; there is no timeout.
	SubmitDistribution(ctx context.Context, req DistributionRequest) (*Receipt, error)
	// AwaitConfirmation blocks until the transaction is included and settles receipt.
	AwaitConfirmation(ctx context.Context, receipt *Receipt) error
	// Providers returns every discovered provider.
	Providers() []wallet.Provider
	// Close closes every provider.
	Close()
}

// Config configures the gateway.
type Config struct {
	PreferredProvider string
	PollInterval      time.Duration
}

type service struct {
	providers    []wallet.Provider
	preferred    string
	pollInterval time.Duration

	mu     sync.RWMutex
	active wallet.Provider
}

// NewService creates a gateway over the discovered providers.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(providers []wallet.Provider, cfg Config) Service {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &service{
		providers:    providers,
		preferred:    cfg.PreferredProvider,
		pollInterval: pollInterval,
	}
}

func (s *service) Providers() []wallet.Provider {
	return s.providers
}

func (s *service) ResolveIdentity(ctx context.Context) (Identity, error) {
	log := util.LogFromContext(ctx)

	provider, err := wallet.Select(ctx, s.providers, s.preferred)
	if err != nil {
		return Identity{}, err
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			return Identity{}, failure.Wrap(err, failure.AuthorizationDenied, "account access was refused")
		}
		return Identity{}, failure.Wrap(err, failure.NoProviderFound,
			fmt.Sprintf("wallet provider %s failed to return accounts", provider.Name()))
	}
	if len(accounts) == 0 {
		return Identity{}, failure.New(failure.AuthorizationDenied, "no account was authorized")
	}

	s.mu.Lock()
	s.active = provider
	s.mu.Unlock()

	log.Info().
		Str("provider", provider.Name()).
		Str("account", accounts[0].Hex()).
		Msg("Resolved signing identity")

	return Identity{Provider: provider.Name(), Account: accounts[0]}, nil
}

func (s *service) ChainID(ctx context.Context) (*big.Int, error) {
	provider, err := s.provider()
	if err != nil {
		return nil, err
	}

	chainID, err := provider.ChainID(ctx)
	if err != nil {
		return nil, failure.Wrap(err, failure.NetworkUnavailable, "failed to query network")
	}

	return chainID, nil
}

func (s *service) AssertNetwork(ctx context.Context, target wallet.Network) error {
	log := util.LogFromContext(ctx)

	provider, err := s.provider()
	if err != nil {
		return err
	}

	want := target.ChainIDBig()

	current, err := provider.ChainID(ctx)
	if err != nil {
		return failure.Wrap(err, failure.NetworkUnavailable, "failed to query network")
	}
	if current.Cmp(want) == 0 {
		return nil
	}

	log.Info().
		Str("current_chain_id", current.String()).
		Int64("target_chain_id", target.ChainID).
		Msg("Wallet is on another network, requesting switch")

	err = provider.SwitchChain(ctx, want)
	if errors.Is(err, wallet.ErrUnknownChain) {
		log.Info().Str("network", target.Name).Msg("Network unknown to wallet, requesting registration")

		if addErr := provider.AddChain(ctx, target); addErr != nil {
			return networkFailure(addErr, "failed to register network "+target.Name)
		}

		err = provider.SwitchChain(ctx, want)
	}
	if err != nil {
		return networkFailure(err, "failed to switch to network "+target.Name)
	}

	current, err = provider.ChainID(ctx)
	if err != nil {
		return failure.Wrap(err, failure.NetworkUnavailable, "failed to query network")
	}
	if current.Cmp(want) != 0 {
		return failure.Newf(failure.NetworkUnavailable, "wallet reports chain %s after switching to %d",
			current.String(), target.ChainID)
	}

	return nil
}

func networkFailure(err error, detail string) error {
	if errors.Is(err, wallet.ErrUserRejected) {
		return failure.Wrap(err, failure.NetworkSwitchRejected, detail)
	}
	return failure.Wrap(err, failure.NetworkUnavailable, detail)
}

func (s *service) ReadPrecision(ctx context.Context, token common.Address) (int, error) {
	provider, err := s.provider()
	if err != nil {
		return 0, err
	}

	data, err := packDecimals()
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode decimals call")
	}

	out, err := provider.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return 0, errors.Wrap(err, "failed to call decimals")
	}

	decimals, err := unpackDecimals(out)
	if err != nil {
		return 0, err
	}

	return int(decimals), nil
}

func (s *service) ReadBalance(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error) {
	provider, err := s.provider()
	if err != nil {
		return nil, err
	}

	data, err := packBalanceOf(holder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode balanceOf call")
	}

	out, err := provider.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, failure.Wrap(err, failure.NetworkUnavailable, "failed to read distributor balance")
	}

	balance, err := unpackBalanceOf(out)
	if err != nil {
		return nil, failure.Wrap(err, failure.NetworkUnavailable, "failed to read distributor balance")
	}

	return balance, nil
}

func (s *service) SubmitDistribution(ctx context.Context, req DistributionRequest) (*Receipt, error) {
	log := util.LogFromContext(ctx)

	if len(req.Recipients) != len(req.Amounts) {
		return nil, failure.Newf(failure.LengthMismatch, "%d recipients but %d amounts",
			len(req.Recipients), len(req.Amounts))
	}
	if len(req.Recipients) == 0 {
		return nil, failure.New(failure.MalformedRow, "batch is empty")
	}

	provider, err := s.provider()
	if err != nil {
		return nil, err
	}

	data, err := PackAirdrop(req.Recipients, req.Amounts)
	if err != nil {
		return nil, err
	}

	hash, err := provider.SendTransaction(ctx, wallet.TxRequest{
		From:    req.From,
		To:      req.Distributor,
		Data:    data,
		Summary: fmt.Sprintf("airdrop to %d recipients", len(req.Recipients)),
	})
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			return nil, failure.Wrap(err, failure.SubmissionRejected, "transaction was rejected in the wallet")
		}
		return nil, failure.Wrap(err, failure.SubmissionRejected, "transaction could not be submitted")
	}

	log.Info().
		Str("tx_hash", hash.Hex()).
		Str("distributor", req.Distributor.Hex()).
		Int("recipients", len(req.Recipients)).
		Msg("Distribution submitted")

	return NewReceipt(hash), nil
}

// AwaitConfirmation polls for the receipt until the transaction is mined. It does
// not give up on its own: lookup errors are logged and retried, and the receipt
// settles Failed only when the transaction reverted. Cancel ctx to stop waiting,
// which leaves the receipt pending.
func (s *service) AwaitConfirmation(ctx context.Context, receipt *Receipt) error {
	log := util.LogFromContext(ctx)

	provider, err := s.provider()
	if err != nil {
		return err
	}

	mined, err := s.waitForReceipt(ctx, provider, receipt.RequestID)
	if err != nil {
		return failure.Wrap(err, failure.SettlementFailed, "stopped waiting for confirmation")
	}

	block := mined.BlockNumber.Uint64()

	if mined.Status != types.ReceiptStatusSuccessful {
		reason := fmt.Sprintf("transaction reverted in block %d", block)
		if err := receipt.Settle(Failed, block, reason); err != nil {
			return err
		}
		return failure.New(failure.SettlementFailed, reason)
	}

	if err := receipt.Settle(Confirmed, block, ""); err != nil {
		return err
	}

	log.Info().
		Str("tx_hash", receipt.RequestID.Hex()).
		Uint64("block", block).
		Msg("Distribution confirmed")

	return nil
}

// waitForReceipt returns only a mined receipt or the context error.
func (s *service) waitForReceipt(ctx context.Context, provider wallet.Provider, txHash common.Hash) (*types.Receipt, error) {
	log := util.LogFromContext(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		receipt, err := provider.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case ctx.Err() != nil:
			return nil, errors.Wrap(ctx.Err(), "context canceled while waiting for receipt")
		case err != nil && !errors.Is(err, ethereum.NotFound):
			log.Warn().
				Err(err).
				Str("tx_hash", txHash.Hex()).
				Int("attempt", attempt).
				Msg("Failed to fetch transaction receipt, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "context canceled while waiting for receipt")
		case <-ticker.C:
		}
	}
}

func (s *service) Close() {
	for _, p := range s.providers {
		if p != nil {
			p.Close()
		}
	}
}

//nolint:ireturn
func (s *service) provider() (wallet.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return nil, failure.New(failure.NoProviderFound, "no wallet connected")
	}

	return s.active, nil
}
