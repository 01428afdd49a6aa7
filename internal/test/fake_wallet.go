package test

import (
	"bytes"
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
)

//nolint:gochecknoglobals
var (
	decimalsSelector  = common.FromHex("313ce567")
	balanceOfSelector = common.FromHex("70a08231")
)

// FakeWallet is a scriptable wallet.Provider. Zero values answer like a wallet
// that approves everything; set the error fields to simulate refusals.
type FakeWallet struct {
	mu sync.Mutex

	ProviderName     string
	ProviderPriority int
	ProbeErr         error

	Accounts    []common.Address
	AccountsErr error

	Chain       int64
	KnownChains map[int64]bool
	SwitchErr   error
	AddErr      error

	Decimals    uint8
	DecimalsErr error
	Balances    map[common.Address]*big.Int
	BalanceErr  error

	SendErr error
	// SendGate, when set, holds SendTransaction until closed (human deciding).
	SendGate chan struct{}
	// ReceiptGate, when set, reports the transaction as pending until closed.
	ReceiptGate chan struct{}
	Revert      bool
	Block       int64
	// ReceiptErr is returned by the next ReceiptErrCount receipt lookups.
	ReceiptErr      error
	ReceiptErrCount int
	ReceiptCalls    int

	Sent         []wallet.TxRequest
	SwitchCalls  int
	AddCalls     int
	BalanceCalls int
	DecimalCalls int
	Closed       bool

	sendStarted chan struct{}
}

var _ wallet.Provider = (*FakeWallet)(nil)

// NewFakeWallet returns a wallet on chainID with one authorized account.
func NewFakeWallet(account common.Address, chainID int64) *FakeWallet {
	return &FakeWallet{
		ProviderName: "fake",
		Accounts:     []common.Address{account},
		Chain:        chainID,
		KnownChains:  map[int64]bool{chainID: true},
		Decimals:     18,
		Balances:     make(map[common.Address]*big.Int),
		Block:        4242,
		sendStarted:  make(chan struct{}),
	}
}

// SendStarted is closed once SendTransaction has been entered.
func (w *FakeWallet) SendStarted() <-chan struct{} {
	return w.sendStarted
}

// SetBalance sets the token balance reported for holder.
func (w *FakeWallet) SetBalance(holder common.Address, amount *big.Int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Balances[holder] = amount
}

// SentRequests returns a copy of every transaction request received.
func (w *FakeWallet) SentRequests() []wallet.TxRequest {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]wallet.TxRequest(nil), w.Sent...)
}

func (w *FakeWallet) Name() string  { return w.ProviderName }
func (w *FakeWallet) Priority() int { return w.ProviderPriority }

func (w *FakeWallet) Probe(context.Context) error {
	return w.ProbeErr
}

func (w *FakeWallet) RequestAccounts(context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.AccountsErr != nil {
		return nil, w.AccountsErr
	}

	return append([]common.Address(nil), w.Accounts...), nil
}

func (w *FakeWallet) ChainID(context.Context) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return big.NewInt(w.Chain), nil
}

// SetChain simulates the human switching networks in the wallet.
func (w *FakeWallet) SetChain(chainID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Chain = chainID
}

func (w *FakeWallet) SwitchChain(_ context.Context, chainID *big.Int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.SwitchCalls++
	if !w.KnownChains[chainID.Int64()] {
		return wallet.ErrUnknownChain
	}
	if w.SwitchErr != nil {
		return w.SwitchErr
	}

	w.Chain = chainID.Int64()
	return nil
}

func (w *FakeWallet) AddChain(_ context.Context, network wallet.Network) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.AddCalls++
	if w.AddErr != nil {
		return w.AddErr
	}

	w.KnownChains[network.ChainID] = true
	return nil
}

func (w *FakeWallet) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case bytes.HasPrefix(msg.Data, decimalsSelector):
		w.DecimalCalls++
		if w.DecimalsErr != nil {
			return nil, w.DecimalsErr
		}
		return common.LeftPadBytes([]byte{w.Decimals}, 32), nil

	case bytes.HasPrefix(msg.Data, balanceOfSelector) && len(msg.Data) >= 36:
		w.BalanceCalls++
		if w.BalanceErr != nil {
			return nil, w.BalanceErr
		}
		holder := common.BytesToAddress(msg.Data[4:36])
		balance, ok := w.Balances[holder]
		if !ok {
			balance = new(big.Int)
		}
		return common.LeftPadBytes(balance.Bytes(), 32), nil
	}

	return nil, errors.New("execution reverted")
}

func (w *FakeWallet) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	w.mu.Lock()
	gate := w.SendGate
	if w.sendStarted != nil {
		select {
		case <-w.sendStarted:
		default:
			close(w.sendStarted)
		}
	}
	w.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.SendErr != nil {
		return common.Hash{}, w.SendErr
	}

	w.Sent = append(w.Sent, req)
	return common.BigToHash(big.NewInt(int64(len(w.Sent)))), nil
}

func (w *FakeWallet) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	w.mu.Lock()
	w.ReceiptCalls++
	if w.ReceiptErrCount > 0 {
		w.ReceiptErrCount--
		err := w.ReceiptErr
		w.mu.Unlock()
		return nil, err
	}
	gate := w.ReceiptGate
	w.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		default:
			return nil, ethereum.NotFound
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	status := types.ReceiptStatusSuccessful
	if w.Revert {
		status = types.ReceiptStatusFailed
	}

	return &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: big.NewInt(w.Block),
	}, nil
}

func (w *FakeWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Closed = true
}
