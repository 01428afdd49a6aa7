package ledger_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/ledger"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/test"
)

var (
	account     = common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	distributor = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	token       = common.HexToAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	alice       = common.HexToAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

func connected(t *testing.T, w *test.FakeWallet) ledger.Service {
	t.Helper()

	s := ledger.NewService([]wallet.Provider{w}, ledger.Config{PollInterval: time.Millisecond})
	_, err := s.ResolveIdentity(context.Background())
	require.NoError(t, err)

	return s
}

func TestResolveIdentity(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	s := ledger.NewService([]wallet.Provider{w}, ledger.Config{})

	id, err := s.ResolveIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, account, id.Account)
	assert.Equal(t, "fake", id.Provider)
}

func TestResolveIdentityFailures(t *testing.T) {
	_, err := ledger.NewService(nil, ledger.Config{}).ResolveIdentity(context.Background())
	assert.Equal(t, failure.NoProviderFound, failure.KindOf(err))

	w := test.NewFakeWallet(account, 1)
	w.AccountsErr = wallet.ErrUserRejected
	_, err = ledger.NewService([]wallet.Provider{w}, ledger.Config{}).ResolveIdentity(context.Background())
	assert.Equal(t, failure.AuthorizationDenied, failure.KindOf(err))

	w = test.NewFakeWallet(account, 1)
	w.Accounts = nil
	_, err = ledger.NewService([]wallet.Provider{w}, ledger.Config{}).ResolveIdentity(context.Background())
	assert.Equal(t, failure.AuthorizationDenied, failure.KindOf(err))
}

func TestCallsNeedIdentity(t *testing.T) {
	s := ledger.NewService([]wallet.Provider{test.NewFakeWallet(account, 1)}, ledger.Config{})

	_, err := s.ReadBalance(context.Background(), token, distributor)
	assert.Equal(t, failure.NoProviderFound, failure.KindOf(err))
}

func TestAssertNetwork(t *testing.T) {
	t.Run("already there", func(t *testing.T) {
		w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
		require.NoError(t, connected(t, w).AssertNetwork(context.Background(), wallet.Sepolia))
		assert.Zero(t, w.SwitchCalls)
	})

	t.Run("switch", func(t *testing.T) {
		w := test.NewFakeWallet(account, 1)
		w.KnownChains[wallet.Sepolia.ChainID] = true

		require.NoError(t, connected(t, w).AssertNetwork(context.Background(), wallet.Sepolia))
		assert.Equal(t, 1, w.SwitchCalls)
		assert.Zero(t, w.AddCalls)
		assert.Equal(t, wallet.Sepolia.ChainID, w.Chain)
	})

	t.Run("register then switch", func(t *testing.T) {
		w := test.NewFakeWallet(account, 1)

		require.NoError(t, connected(t, w).AssertNetwork(context.Background(), wallet.Sepolia))
		assert.Equal(t, 2, w.SwitchCalls)
		assert.Equal(t, 1, w.AddCalls)
		assert.Equal(t, wallet.Sepolia.ChainID, w.Chain)
	})

	t.Run("switch rejected", func(t *testing.T) {
		w := test.NewFakeWallet(account, 1)
		w.KnownChains[wallet.Sepolia.ChainID] = true
		w.SwitchErr = wallet.ErrUserRejected

		err := connected(t, w).AssertNetwork(context.Background(), wallet.Sepolia)
		assert.Equal(t, failure.NetworkSwitchRejected, failure.KindOf(err))
	})

	t.Run("registration rejected", func(t *testing.T) {
		w := test.NewFakeWallet(account, 1)
		w.AddErr = wallet.ErrUserRejected

		err := connected(t, w).AssertNetwork(context.Background(), wallet.Sepolia)
		assert.Equal(t, failure.NetworkSwitchRejected, failure.KindOf(err))
	})

	t.Run("registration and switch fail", func(t *testing.T) {
		w := test.NewFakeWallet(account, 1)
		w.AddErr = errors.New("rpc endpoint unreachable")

		err := connected(t, w).AssertNetwork(context.Background(), wallet.Sepolia)
		assert.Equal(t, failure.NetworkUnavailable, failure.KindOf(err))
	})
}

func TestReadPrecisionAndBalance(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.Decimals = 6
	balance, _ := new(big.Int).SetString("123456789000000000000000", 10)
	w.SetBalance(distributor, balance)
	s := connected(t, w)

	precision, err := s.ReadPrecision(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 6, precision)

	got, err := s.ReadBalance(context.Background(), token, distributor)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Cmp(got))

	got, err = s.ReadBalance(context.Background(), token, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Sign())

	w.DecimalsErr = errors.New("execution reverted")
	_, err = s.ReadPrecision(context.Background(), token)
	require.Error(t, err)

	w.BalanceErr = errors.New("node down")
	_, err = s.ReadBalance(context.Background(), token, distributor)
	assert.Equal(t, failure.NetworkUnavailable, failure.KindOf(err))
}

func TestSubmitDistribution(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	s := connected(t, w)

	recipients := []common.Address{alice, distributor, token}
	amounts := []*big.Int{big.NewInt(3), big.NewInt(1), big.NewInt(2)}

	receipt, err := s.SubmitDistribution(context.Background(), ledger.DistributionRequest{
		From:        account,
		Distributor: distributor,
		Recipients:  recipients,
		Amounts:     amounts,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Pending, receipt.Status())

	sent := w.SentRequests()
	require.Len(t, sent, 1)
	assert.Equal(t, account, sent[0].From)
	assert.Equal(t, distributor, sent[0].To)

	gotRecipients, gotAmounts, err := ledger.UnpackAirdrop(sent[0].Data)
	require.NoError(t, err)
	assert.Equal(t, recipients, gotRecipients)
	require.Len(t, gotAmounts, len(amounts))
	for i := range amounts {
		assert.Equal(t, amounts[i].String(), gotAmounts[i].String())
	}
}

func TestSubmitDistributionLengthMismatch(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	s := connected(t, w)

	_, err := s.SubmitDistribution(context.Background(), ledger.DistributionRequest{
		From:        account,
		Distributor: distributor,
		Recipients:  []common.Address{alice, token},
		Amounts:     []*big.Int{big.NewInt(1)},
	})
	assert.Equal(t, failure.LengthMismatch, failure.KindOf(err))
	assert.Empty(t, w.SentRequests())
}

func TestSubmitDistributionRejected(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.SendErr = wallet.ErrUserRejected
	s := connected(t, w)

	_, err := s.SubmitDistribution(context.Background(), ledger.DistributionRequest{
		From:        account,
		Distributor: distributor,
		Recipients:  []common.Address{alice},
		Amounts:     []*big.Int{big.NewInt(1)},
	})
	assert.Equal(t, failure.SubmissionRejected, failure.KindOf(err))
	assert.ErrorIs(t, err, wallet.ErrUserRejected)
}

func TestAwaitConfirmation(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.ReceiptGate = make(chan struct{})
	s := connected(t, w)

	receipt := ledger.NewReceipt(common.HexToHash("0x01"))

	done := make(chan error, 1)
	go func() {
		done <- s.AwaitConfirmation(context.Background(), receipt)
	}()

	// still pending while the node does not know the receipt
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ledger.Pending, receipt.Status())

	close(w.ReceiptGate)
	require.NoError(t, <-done)

	assert.Equal(t, ledger.Confirmed, receipt.Status())
	block, ok := receipt.ConfirmedAtBlock()
	require.True(t, ok)
	assert.Equal(t, uint64(w.Block), block)
}

func TestAwaitConfirmationReverted(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.Revert = true
	s := connected(t, w)

	receipt := ledger.NewReceipt(common.HexToHash("0x02"))
	err := s.AwaitConfirmation(context.Background(), receipt)
	assert.Equal(t, failure.SettlementFailed, failure.KindOf(err))
	assert.Equal(t, ledger.Failed, receipt.Status())
	assert.NotEmpty(t, receipt.View().Reason)
}

func TestAwaitConfirmationCancelled(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.ReceiptGate = make(chan struct{})
	s := connected(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	receipt := ledger.NewReceipt(common.HexToHash("0x03"))

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := s.AwaitConfirmation(ctx, receipt)
	assert.Equal(t, failure.SettlementFailed, failure.KindOf(err))
	assert.Equal(t, ledger.Pending, receipt.Status())
}

func TestAwaitConfirmationSurvivesLookupErrors(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.ReceiptErr = errors.New("connection reset by peer")
	w.ReceiptErrCount = 2
	s := connected(t, w)

	receipt := ledger.NewReceipt(common.HexToHash("0x04"))
	require.NoError(t, s.AwaitConfirmation(context.Background(), receipt))

	assert.Equal(t, ledger.Confirmed, receipt.Status())
	assert.Equal(t, 3, w.ReceiptCalls)
}

func TestAwaitConfirmationCancelledDuringLookupErrors(t *testing.T) {
	w := test.NewFakeWallet(account, wallet.Sepolia.ChainID)
	w.ReceiptErr = errors.New("503 service unavailable")
	w.ReceiptErrCount = 1 << 30
	s := connected(t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	receipt := ledger.NewReceipt(common.HexToHash("0x05"))
	err := s.AwaitConfirmation(ctx, receipt)
	assert.Equal(t, failure.SettlementFailed, failure.KindOf(err))
	assert.Equal(t, ledger.Pending, receipt.Status())
	assert.Empty(t, receipt.View().Reason)
}
