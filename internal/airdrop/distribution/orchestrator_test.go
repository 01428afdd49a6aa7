package distribution_test

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/airdrop/address"
	"github/chapool/go-airdrop/internal/airdrop/distribution"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/ledger"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/test"
)

const (
	distributorHex = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	tokenHex       = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	alice          = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	bob            = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
	carol          = "0x52908400098527886E0F7030069857D2E4169EE7"
)

var (
	account     = common.HexToAddress("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
	distributor = common.HexToAddress(distributorHex)
)

func units(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func newWallet() *test.FakeWallet {
	return test.NewFakeWallet(account, wallet.Sepolia.ChainID)
}

func newEngine(t *testing.T, w *test.FakeWallet) *distribution.Orchestrator {
	t.Helper()

	l := ledger.NewService([]wallet.Provider{w}, ledger.Config{PollInterval: time.Millisecond})

	cfg, err := distribution.NewConfig(distributorHex, tokenHex, wallet.Sepolia, 200, distribution.DefaultPrecision)
	require.NoError(t, err)

	o, err := distribution.New(l, cfg, nil)
	require.NoError(t, err)

	return o
}

func connectedEngine(t *testing.T, w *test.FakeWallet) *distribution.Orchestrator {
	t.Helper()

	o := newEngine(t, w)
	_, err := o.Connect(context.Background())
	require.NoError(t, err)

	return o
}

func TestNewConfigRejectsInvalidAddresses(t *testing.T) {
	_, err := distribution.NewConfig("0x123", tokenHex, wallet.Sepolia, 0, 18)
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))

	_, err = distribution.NewConfig(distributorHex, "token", wallet.Sepolia, 0, 18)
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	cfg, err := distribution.NewConfig(distributorHex, tokenHex, wallet.Sepolia, 0, 18)
	require.NoError(t, err)

	_, err = distribution.New(nil, cfg, nil)
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))

	l := ledger.NewService(nil, ledger.Config{})
	bad := cfg
	bad.MaxBatchSize = -1
	_, err = distribution.New(l, bad, nil)
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))

	bad = cfg
	bad.Token = common.Address{}
	_, err = distribution.New(l, bad, nil)
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))
}

func TestConnect(t *testing.T) {
	w := test.NewFakeWallet(account, 1)
	w.Decimals = 6
	o := newEngine(t, w)
	assert.Equal(t, distribution.Idle, o.State())

	session, err := o.Connect(context.Background())
	require.NoError(t, err)

	assert.True(t, session.Connected)
	assert.Equal(t, "fake", session.Provider)
	assert.Equal(t, account, *session.Account)
	assert.Equal(t, wallet.Sepolia.ChainID, session.NetworkID.Int64())
	assert.Equal(t, address.Short(account), session.ShortAccount())
	assert.Equal(t, distribution.Connected, o.State())
	assert.Equal(t, &distribution.TokenMeta{Precision: 6}, o.Token())
	// wallet was moved to the target network
	assert.Equal(t, 1, w.AddCalls)
}

func TestConnectFailureLeavesIdle(t *testing.T) {
	w := newWallet()
	w.AccountsErr = wallet.ErrUserRejected
	o := newEngine(t, w)

	_, err := o.Connect(context.Background())
	assert.Equal(t, failure.AuthorizationDenied, failure.KindOf(err))
	assert.Equal(t, distribution.Idle, o.State())
	assert.False(t, o.Session().Connected)
}

func TestConnectNetworkRejected(t *testing.T) {
	w := test.NewFakeWallet(account, 1)
	w.AddErr = wallet.ErrUserRejected
	o := newEngine(t, w)

	_, err := o.Connect(context.Background())
	assert.Equal(t, failure.NetworkSwitchRejected, failure.KindOf(err))
	assert.Equal(t, distribution.Idle, o.State())
}

func TestPrecisionFallbackIsReadAgain(t *testing.T) {
	w := newWallet()
	w.DecimalsErr = errors.New("execution reverted")
	w.SetBalance(distributor, units("1000000000"))
	o := connectedEngine(t, w)

	assert.Equal(t, &distribution.TokenMeta{Precision: 18, Fallback: true}, o.Token())

	w.DecimalsErr = nil
	w.Decimals = 6

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1.5"))
	require.NoError(t, err)

	outcome, err := o.Distribute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, outcome.Precision)
	assert.Equal(t, "1500000", outcome.Demand)
	assert.Equal(t, &distribution.TokenMeta{Precision: 6}, o.Token())
}

func TestUploadScenarioD(t *testing.T) {
	o := connectedEngine(t, newWallet())

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1\n"))
	require.NoError(t, err)
	require.NotNil(t, o.Batch())

	_, err = o.Upload(context.Background(), strings.NewReader("notanaddress,5"))
	f, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.InvalidAddress, f.Kind)
	assert.Equal(t, 1, f.Row)

	// a new upload discards the previous batch even when it fails
	assert.Nil(t, o.Batch())
	assert.Equal(t, distribution.Connected, o.State())
}

func TestUploadBeforeConnect(t *testing.T) {
	o := newEngine(t, newWallet())

	summary, err := o.Upload(context.Background(), strings.NewReader(alice+",1.5\n"+bob+",2.25"))
	require.NoError(t, err)
	assert.Equal(t, distribution.BatchSummary{Rows: 2, Total: "3.75"}, summary)
	assert.Equal(t, distribution.Idle, o.State())

	_, err = o.Distribute(context.Background())
	require.ErrorIs(t, err, distribution.ErrNotConnected)
}

func TestDistributePreconditions(t *testing.T) {
	o := connectedEngine(t, newWallet())

	_, err := o.Distribute(context.Background())
	require.ErrorIs(t, err, distribution.ErrNoBatch)

	_, err = o.Retry(context.Background())
	require.ErrorIs(t, err, distribution.ErrNothingToRetry)

	assert.Equal(t, distribution.Connected, o.State())
}

func TestScenarioCInsufficientFunds(t *testing.T) {
	w := newWallet()
	w.Decimals = 0
	w.SetBalance(distributor, big.NewInt(999))
	o := connectedEngine(t, w)

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",600\n"+bob+",400"))
	require.NoError(t, err)

	outcome, err := o.Distribute(context.Background())
	assert.Equal(t, failure.InsufficientFunds, failure.KindOf(err))
	assert.Equal(t, distribution.Failed, outcome.Status)
	assert.Equal(t, "1000", outcome.Demand)

	assert.Empty(t, w.SentRequests())
	assert.Equal(t, distribution.Failed, o.State())
	// the batch survives a failed run
	assert.NotNil(t, o.Batch())
}

func TestSolvencyBoundaryEqualityProceeds(t *testing.T) {
	w := newWallet()
	w.Decimals = 0
	w.SetBalance(distributor, big.NewInt(1000))
	o := connectedEngine(t, w)

	outcome, err := o.Run(context.Background(), strings.NewReader(alice+",600\n"+bob+",400"))
	require.NoError(t, err)
	assert.Equal(t, distribution.Succeeded, outcome.Status)
	assert.Len(t, w.SentRequests(), 1)
}

func TestScenarioESuccess(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("100000000000000000000"))
	o := connectedEngine(t, w)

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1.5\n"+bob+",2\n"+carol+",0.000000000000000001\n"))
	require.NoError(t, err)

	outcome, err := o.Distribute(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.RunID)
	assert.Equal(t, distribution.Succeeded, outcome.Status)
	require.NotNil(t, outcome.Receipt)
	assert.Equal(t, ledger.Confirmed, outcome.Receipt.Status)
	require.NotNil(t, outcome.Receipt.ConfirmedAtBlock)
	assert.Equal(t, uint64(4242), *outcome.Receipt.ConfirmedAtBlock)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+outcome.Receipt.RequestID, outcome.ExplorerURL)
	assert.Equal(t, 3, outcome.Recipients)

	assert.Equal(t, distribution.Succeeded, o.State())
	assert.Nil(t, o.Batch())
	assert.Equal(t, outcome.RunID, o.LastOutcome().RunID)

	// order is preserved into the call data
	sent := w.SentRequests()
	require.Len(t, sent, 1)
	assert.Equal(t, account, sent[0].From)
	assert.Equal(t, distributor, sent[0].To)

	recipients, amounts, err := ledger.UnpackAirdrop(sent[0].Data)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress(alice),
		common.HexToAddress(bob),
		common.HexToAddress(carol),
	}, recipients)
	require.Len(t, amounts, 3)
	assert.Equal(t, "1500000000000000000", amounts[0].String())
	assert.Equal(t, "2000000000000000000", amounts[1].String())
	assert.Equal(t, "1", amounts[2].String())
}

func TestPrecisionExceededReturnsToConnected(t *testing.T) {
	w := newWallet()
	w.Decimals = 2
	w.SetBalance(distributor, big.NewInt(1_000_000))
	o := connectedEngine(t, w)

	outcome, err := o.Run(context.Background(), strings.NewReader(alice+",1\n"+bob+",0.001"))
	f, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.PrecisionExceeded, f.Kind)
	assert.Equal(t, 2, f.Row)
	assert.Equal(t, distribution.Failed, outcome.Status)

	assert.Equal(t, distribution.Connected, o.State())
	assert.Nil(t, o.Batch())
	assert.Empty(t, w.SentRequests())
}

func TestReentrancyWhileSubmitting(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.SendGate = make(chan struct{})
	o := connectedEngine(t, w)

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := o.Distribute(context.Background())
		done <- err
	}()

	<-w.SendStarted()
	require.Equal(t, distribution.Submitting, o.State())

	_, err = o.Distribute(context.Background())
	assert.Equal(t, failure.OperationInProgress, failure.KindOf(err))
	_, err = o.Upload(context.Background(), strings.NewReader(bob+",2"))
	assert.Equal(t, failure.OperationInProgress, failure.KindOf(err))
	_, err = o.Connect(context.Background())
	assert.Equal(t, failure.OperationInProgress, failure.KindOf(err))

	// in-flight state is untouched
	assert.Equal(t, distribution.Submitting, o.State())
	assert.Equal(t, &distribution.BatchSummary{Rows: 1, Total: "1"}, o.Batch())

	close(w.SendGate)
	require.NoError(t, <-done)
	assert.Equal(t, distribution.Succeeded, o.State())
}

func TestReentrancyWhileAwaitingConfirmation(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.ReceiptGate = make(chan struct{})
	o := connectedEngine(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), strings.NewReader(alice+",1"))
		done <- err
	}()

	require.Eventually(t, func() bool {
		return o.State() == distribution.AwaitingConfirmation
	}, time.Second, time.Millisecond)

	_, err := o.Retry(context.Background())
	assert.Equal(t, failure.OperationInProgress, failure.KindOf(err))
	assert.Equal(t, distribution.AwaitingConfirmation, o.State())

	close(w.ReceiptGate)
	require.NoError(t, <-done)
}

func TestFailedRunPreservesBatchForRetry(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.SendErr = wallet.ErrUserRejected
	o := connectedEngine(t, w)

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1\n"+bob+",2"))
	require.NoError(t, err)

	outcome, err := o.Distribute(context.Background())
	assert.Equal(t, failure.SubmissionRejected, failure.KindOf(err))
	assert.Equal(t, distribution.Failed, outcome.Status)
	assert.Equal(t, distribution.Failed, o.State())
	assert.NotNil(t, o.Batch())

	w.SendErr = nil

	retried, err := o.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, distribution.Succeeded, retried.Status)
	assert.NotEqual(t, outcome.RunID, retried.RunID)
	assert.Nil(t, o.Batch())

	_, err = o.Retry(context.Background())
	require.ErrorIs(t, err, distribution.ErrNothingToRetry)
}

func TestCancelWhileAwaitingApproval(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.SendGate = make(chan struct{})
	o := connectedEngine(t, w)

	assert.False(t, o.Cancel())

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), strings.NewReader(alice+",1"))
		done <- err
	}()

	<-w.SendStarted()
	require.True(t, o.Cancel())

	err := <-done
	assert.Equal(t, failure.SubmissionRejected, failure.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, distribution.Failed, o.State())
	assert.Empty(t, w.SentRequests())
	assert.NotNil(t, o.Batch())
}

func TestWalletNotifications(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	o := connectedEngine(t, w)

	// human switched networks in the wallet
	w.SetChain(1)
	o.NetworkChanged(big.NewInt(1))
	assert.Equal(t, int64(1), o.Session().NetworkID.Int64())

	outcome, err := o.Run(context.Background(), strings.NewReader(alice+",1"))
	require.NoError(t, err)
	assert.Equal(t, distribution.Succeeded, outcome.Status)
	// the target network was asserted again before submitting
	assert.Equal(t, 1, w.SwitchCalls)

	other := common.HexToAddress(bob)
	o.AccountsChanged([]common.Address{other})
	assert.Equal(t, other, *o.Session().Account)

	o.AccountsChanged(nil)
	assert.False(t, o.Session().Connected)
	assert.Equal(t, distribution.Idle, o.State())
}

func TestMetricsAreRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := distribution.NewMetrics(reg)
	require.NoError(t, err)

	_, err = distribution.NewMetrics(reg)
	require.Error(t, err)

	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	l := ledger.NewService([]wallet.Provider{w}, ledger.Config{PollInterval: time.Millisecond})
	cfg, err := distribution.NewConfig(distributorHex, tokenHex, wallet.Sepolia, 0, 18)
	require.NoError(t, err)
	o, err := distribution.New(l, cfg, metrics)
	require.NoError(t, err)

	_, err = o.Connect(context.Background())
	require.NoError(t, err)
	_, err = o.Run(context.Background(), strings.NewReader(alice+",1"))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "airdrop_runs_total")
	assert.Contains(t, names, "airdrop_batch_recipients")
	assert.Contains(t, names, "airdrop_orchestrator_state")
}

func TestStartRunsInBackground(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.SendGate = make(chan struct{})
	o := connectedEngine(t, w)

	_, err := o.Start(context.Background())
	require.ErrorIs(t, err, distribution.ErrNoBatch)

	_, err = o.Upload(context.Background(), strings.NewReader(alice+",1"))
	require.NoError(t, err)

	done, err := o.Start(context.Background())
	require.NoError(t, err)

	<-w.SendStarted()
	_, err = o.Start(context.Background())
	assert.Equal(t, failure.OperationInProgress, failure.KindOf(err))

	close(w.SendGate)
	outcome := <-done
	require.NotNil(t, outcome)
	assert.Equal(t, distribution.Succeeded, outcome.Status)
	assert.Equal(t, distribution.Succeeded, o.State())
}

func TestStartRetryAfterCancel(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.SendGate = make(chan struct{})
	o := connectedEngine(t, w)

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1"))
	require.NoError(t, err)

	done, err := o.Start(context.Background())
	require.NoError(t, err)

	<-w.SendStarted()
	require.True(t, o.Cancel())

	outcome := <-done
	assert.Equal(t, distribution.Failed, outcome.Status)
	assert.Equal(t, failure.SubmissionRejected, outcome.Failure.Kind)

	close(w.SendGate)

	retried, err := o.StartRetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, distribution.Succeeded, (<-retried).Status)
}

func TestCancelWhileAwaitingConfirmationBlocksResend(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.ReceiptGate = make(chan struct{})
	o := connectedEngine(t, w)

	_, err := o.Upload(context.Background(), strings.NewReader(alice+",1\n"+bob+",2"))
	require.NoError(t, err)

	done, err := o.Start(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return o.State() == distribution.AwaitingConfirmation
	}, time.Second, time.Millisecond)
	require.True(t, o.Cancel())

	outcome := <-done
	require.NotNil(t, outcome)
	assert.Equal(t, distribution.Unsettled, outcome.Status)
	require.NotNil(t, outcome.Receipt)
	assert.Equal(t, ledger.Pending, outcome.Receipt.Status)
	assert.Equal(t, distribution.Unsettled, o.State())
	assert.False(t, o.State().Busy())

	// the transaction may still be mined, so nothing is sent again
	_, err = o.Retry(context.Background())
	require.ErrorIs(t, err, distribution.ErrUnsettled)
	_, err = o.StartRetry(context.Background())
	require.ErrorIs(t, err, distribution.ErrUnsettled)
	_, err = o.Distribute(context.Background())
	require.ErrorIs(t, err, distribution.ErrUnsettled)
	_, err = o.Start(context.Background())
	require.ErrorIs(t, err, distribution.ErrUnsettled)
	_, err = o.Run(context.Background(), strings.NewReader(carol+",1"))
	require.ErrorIs(t, err, distribution.ErrUnsettled)
	_, err = o.Upload(context.Background(), strings.NewReader(carol+",1"))
	require.ErrorIs(t, err, distribution.ErrUnsettled)
	assert.Len(t, w.SentRequests(), 1)
	assert.Equal(t, distribution.Unsettled, o.State())

	close(w.ReceiptGate)

	reconciled, err := o.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, distribution.Succeeded, reconciled.Status)
	assert.Equal(t, outcome.RunID, reconciled.RunID)
	assert.Equal(t, ledger.Confirmed, reconciled.Receipt.Status)
	assert.Equal(t, distribution.Succeeded, o.State())
	assert.Nil(t, o.Batch())
	assert.Len(t, w.SentRequests(), 1)

	_, err = o.Reconcile(context.Background())
	require.ErrorIs(t, err, distribution.ErrNothingToReconcile)
	_, err = o.Retry(context.Background())
	require.ErrorIs(t, err, distribution.ErrNothingToRetry)
}

func TestReconcileRevertedAllowsRetry(t *testing.T) {
	w := newWallet()
	w.SetBalance(distributor, units("10000000000000000000"))
	w.ReceiptGate = make(chan struct{})
	o := connectedEngine(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), strings.NewReader(alice+",1"))
		done <- err
	}()

	require.Eventually(t, func() bool {
		return o.State() == distribution.AwaitingConfirmation
	}, time.Second, time.Millisecond)
	require.True(t, o.Cancel())
	assert.Equal(t, failure.SettlementFailed, failure.KindOf(<-done))
	assert.Equal(t, distribution.Unsettled, o.State())

	// interrupting the reconciliation keeps it unsettled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	again, err := o.Reconcile(ctx)
	require.Error(t, err)
	assert.Equal(t, distribution.Unsettled, again.Status)
	assert.Equal(t, distribution.Unsettled, o.State())

	w.Revert = true
	close(w.ReceiptGate)

	settled, err := o.Reconcile(context.Background())
	assert.Equal(t, failure.SettlementFailed, failure.KindOf(err))
	assert.Equal(t, distribution.Failed, settled.Status)
	assert.Equal(t, ledger.Failed, settled.Receipt.Status)
	assert.Equal(t, distribution.Failed, o.State())

	w.Revert = false

	retried, err := o.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, distribution.Succeeded, retried.Status)
	assert.Len(t, w.SentRequests(), 2)
}

func TestReconcilePreconditions(t *testing.T) {
	w := newWallet()
	o := newEngine(t, w)

	_, err := o.Reconcile(context.Background())
	require.ErrorIs(t, err, distribution.ErrNotConnected)

	_, err = o.Connect(context.Background())
	require.NoError(t, err)

	_, err = o.StartReconcile(context.Background())
	require.ErrorIs(t, err, distribution.ErrNothingToReconcile)
	assert.Equal(t, distribution.Connected, o.State())
}
