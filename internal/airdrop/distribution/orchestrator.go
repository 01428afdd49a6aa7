// Package distribution sequences a batch distribution: connect, validate,
// normalize, check solvency, submit, await confirmation.
package distribution

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/go-airdrop/internal/airdrop/address"
	"github/chapool/go-airdrop/internal/airdrop/amount"
	"github/chapool/go-airdrop/internal/airdrop/batch"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/ledger"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/util"
)

var (
	// ErrNotConnected is returned by operations that need a connected wallet.
	ErrNotConnected = errors.New("wallet is not connected")
	// ErrNoBatch is returned by Distribute when no validated batch is held.
	ErrNoBatch = errors.New("no validated batch")
	// ErrNothingToRetry is returned by Retry unless the last run failed with its input preserved.
	ErrNothingToRetry = errors.New("no failed distribution to retry")
	// ErrUnsettled is returned while a submitted transaction has not settled.
	// Nothing new is sent until Reconcile has seen its receipt.
	ErrUnsettled = errors.New("submitted distribution has not settled, reconcile it first")
	// ErrNothingToReconcile is returned by Reconcile when no receipt is pending.
	ErrNothingToReconcile = errors.New("no unsettled distribution to reconcile")
)

// DefaultPrecision is used when the token does not report its decimals.
const DefaultPrecision = 18

// Config holds the fixed parameters of the engine.
type Config struct {
	Distributor      common.Address
	Token            common.Address
	Network          wallet.Network
	MaxBatchSize     int
	DefaultPrecision int
}

// NewConfig validates the textual addresses. Either one being invalid is a
// ConfigurationInvalid failure.
func NewConfig(distributor, token string, network wallet.Network, maxBatchSize, defaultPrecision int) (Config, error) {
	distributorAddr, ok := address.Parse(distributor)
	if !ok {
		return Config{}, failure.Newf(failure.ConfigurationInvalid, "invalid distributor address %q", distributor)
	}

	tokenAddr, ok := address.Parse(token)
	if !ok {
		return Config{}, failure.Newf(failure.ConfigurationInvalid, "invalid token address %q", token)
	}

	return Config{
		Distributor:      distributorAddr,
		Token:            tokenAddr,
		Network:          network,
		MaxBatchSize:     maxBatchSize,
		DefaultPrecision: defaultPrecision,
	}, nil
}

// Orchestrator owns the session and the current batch and runs one operation
// at a time.
type Orchestrator struct {
	ledger    ledger.Service
	cfg       Config
	validator *batch.Validator
	metrics   *Metrics

	mu      sync.Mutex
	state   State
	session Session
	token   *TokenMeta
	batch   *batch.Batch
	raw     []byte
	outcome *Outcome
	pending *ledger.Receipt
	cancel  context.CancelFunc
}

// New creates an orchestrator in the Idle state. metrics may be nil.
func New(ledgerService ledger.Service, cfg Config, metrics *Metrics) (*Orchestrator, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(ledgerService, "ledgerService"),
		vala.Not(vala.GreaterThan(0, cfg.MaxBatchSize, "maxBatchSize")),
		vala.Not(vala.GreaterThan(0, cfg.DefaultPrecision, "defaultPrecision")),
		vala.Not(vala.GreaterThan(cfg.DefaultPrecision, amount.MaxPrecision, "defaultPrecision")),
	).Check(); err != nil {
		return nil, failure.Wrap(err, failure.ConfigurationInvalid, "invalid orchestrator arguments")
	}

	if cfg.Distributor == (common.Address{}) || cfg.Token == (common.Address{}) {
		return nil, failure.New(failure.ConfigurationInvalid, "distributor and token addresses are required")
	}

	return &Orchestrator{
		ledger:    ledgerService,
		cfg:       cfg,
		validator: batch.NewValidator(cfg.MaxBatchSize),
		metrics:   metrics,
		state:     Idle,
	}, nil
}

// Config returns the engine parameters.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Connect resolves the signing identity, moves the wallet to the target network
// and reads the token precision. Any failure leaves the orchestrator Idle.
func (o *Orchestrator) Connect(ctx context.Context) (Session, error) {
	if err := o.enter(Connecting, nil); err != nil {
		return Session{}, err
	}

	session, token, err := o.connect(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		o.session = Session{}
		o.token = nil
		o.setStateLocked(o.restingStateLocked())
		return Session{}, err
	}

	o.session = session
	o.token = token
	o.setStateLocked(o.restingStateLocked())

	return session.clone(), nil
}

func (o *Orchestrator) connect(ctx context.Context) (Session, *TokenMeta, error) {
	log := util.LogFromContext(ctx)

	identity, err := o.ledger.ResolveIdentity(ctx)
	if err != nil {
		return Session{}, nil, err
	}

	if err := o.ledger.AssertNetwork(ctx, o.cfg.Network); err != nil {
		return Session{}, nil, err
	}

	chainID, err := o.ledger.ChainID(ctx)
	if err != nil {
		return Session{}, nil, err
	}

	token := o.readToken(ctx)
	account := identity.Account

	log.Info().
		Str("provider", identity.Provider).
		Str("account", address.Short(account)).
		Str("chain_id", chainID.String()).
		Int("precision", token.Precision).
		Bool("precision_fallback", token.Fallback).
		Msg("Wallet connected")

	return Session{
		Connected: true,
		Provider:  identity.Provider,
		Account:   &account,
		NetworkID: chainID,
	}, token, nil
}

func (o *Orchestrator) readToken(ctx context.Context) *TokenMeta {
	precision, err := o.ledger.ReadPrecision(ctx, o.cfg.Token)
	if err != nil {
		util.LogFromContext(ctx).Warn().
			Err(err).
			Int("default_precision", o.cfg.DefaultPrecision).
			Msg("Failed to read token decimals, using default")

		return &TokenMeta{Precision: o.cfg.DefaultPrecision, Fallback: true}
	}

	return &TokenMeta{Precision: precision}
}

// Upload validates r and makes it the current batch, discarding any previous
// one first. On failure no batch is held.
func (o *Orchestrator) Upload(ctx context.Context, r io.Reader) (BatchSummary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return BatchSummary{}, errors.Wrap(err, "failed to read batch input")
	}

	b, err := o.validate(ctx, func() ([]byte, error) {
		if err := o.requireSettledLocked(); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return BatchSummary{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.setStateLocked(o.restingStateLocked())

	return summarize(b), nil
}

// Run uploads r and distributes it in one operation.
func (o *Orchestrator) Run(ctx context.Context, r io.Reader) (*Outcome, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read batch input")
	}

	b, err := o.validate(ctx, func() ([]byte, error) {
		if err := o.requireConnectedLocked(); err != nil {
			return nil, err
		}
		if err := o.requireSettledLocked(); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	return o.execute(ctx, o.runner(b))
}

// Distribute runs the held batch through normalization, the solvency check,
// submission and confirmation.
func (o *Orchestrator) Distribute(ctx context.Context) (*Outcome, error) {
	b, err := o.claim()
	if err != nil {
		return nil, err
	}

	return o.execute(ctx, o.runner(b))
}

// Start is Distribute in the background. Precondition failures are returned
// immediately; the outcome is delivered on the channel when the run ends.
func (o *Orchestrator) Start(ctx context.Context) (<-chan *Outcome, error) {
	b, err := o.claim()
	if err != nil {
		return nil, err
	}

	return o.background(ctx, o.runner(b)), nil
}

// Retry re-validates the input of the last failed run and distributes it again.
func (o *Orchestrator) Retry(ctx context.Context) (*Outcome, error) {
	b, err := o.revalidate(ctx)
	if err != nil {
		return nil, err
	}

	return o.execute(ctx, o.runner(b))
}

// StartRetry is Retry in the background.
func (o *Orchestrator) StartRetry(ctx context.Context) (<-chan *Outcome, error) {
	b, err := o.revalidate(ctx)
	if err != nil {
		return nil, err
	}

	return o.background(ctx, o.runner(b)), nil
}

// Reconcile waits again for the receipt of a submitted distribution whose
// confirmation wait was interrupted. A confirmed receipt ends the run as
// Succeeded, a reverted one as Failed with its input kept for Retry.
// Interrupting Reconcile leaves the distribution Unsettled.
func (o *Orchestrator) Reconcile(ctx context.Context) (*Outcome, error) {
	receipt, prev, err := o.reopen()
	if err != nil {
		return nil, err
	}

	return o.execute(ctx, o.settler(receipt, prev))
}

// StartReconcile is Reconcile in the background.
func (o *Orchestrator) StartReconcile(ctx context.Context) (<-chan *Outcome, error) {
	receipt, prev, err := o.reopen()
	if err != nil {
		return nil, err
	}

	return o.background(ctx, o.settler(receipt, prev)), nil
}

func (o *Orchestrator) reopen() (*ledger.Receipt, Outcome, error) {
	var (
		receipt *ledger.Receipt
		prev    Outcome
	)

	err := o.enter(AwaitingConfirmation, func() error {
		if err := o.requireConnectedLocked(); err != nil {
			return err
		}
		if o.pending == nil || o.outcome == nil {
			return ErrNothingToReconcile
		}
		receipt = o.pending
		prev = *o.outcome
		return nil
	})

	return receipt, prev, err
}

func (o *Orchestrator) claim() (*batch.Batch, error) {
	var b *batch.Batch

	err := o.enter(Normalizing, func() error {
		if err := o.requireConnectedLocked(); err != nil {
			return err
		}
		if err := o.requireSettledLocked(); err != nil {
			return err
		}
		if o.batch == nil {
			return ErrNoBatch
		}
		b = o.batch
		return nil
	})

	return b, err
}

func (o *Orchestrator) revalidate(ctx context.Context) (*batch.Batch, error) {
	return o.validate(ctx, func() ([]byte, error) {
		if err := o.requireConnectedLocked(); err != nil {
			return nil, err
		}
		if err := o.requireSettledLocked(); err != nil {
			return nil, err
		}
		if o.raw == nil || o.outcome == nil || o.outcome.Status != Failed {
			return nil, ErrNothingToRetry
		}
		return o.raw, nil
	})
}

// Cancel aborts the wait of the operation in flight. It returns false when
// nothing can be cancelled.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel == nil {
		return false
	}

	o.cancel()
	return true
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Session returns a copy of the session identity.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.session.clone()
}

// Token returns the cached token facts, or nil before Connect.
func (o *Orchestrator) Token() *TokenMeta {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.token == nil {
		return nil
	}
	t := *o.token
	return &t
}

// Batch describes the held batch, or nil.
func (o *Orchestrator) Batch() *BatchSummary {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.batch == nil {
		return nil
	}
	s := summarize(o.batch)
	return &s
}

// LastOutcome returns the outcome of the most recent run, or nil.
func (o *Orchestrator) LastOutcome() *Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.outcome == nil {
		return nil
	}
	out := *o.outcome
	return &out
}

// NetworkChanged records a network change reported by the wallet. The next
// submission re-asserts the target network.
func (o *Orchestrator) NetworkChanged(chainID *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.session.Connected || chainID == nil {
		return
	}

	o.session.NetworkID = new(big.Int).Set(chainID)
}

// AccountsChanged records an account change reported by the wallet. An empty
// list disconnects the session.
func (o *Orchestrator) AccountsChanged(accounts []common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.session.Connected {
		return
	}

	if len(accounts) == 0 {
		o.session = Session{}
		if !o.state.Busy() {
			o.setStateLocked(o.restingStateLocked())
		}
		return
	}

	account := accounts[0]
	o.session.Account = &account
}

// validate enters Validating, drops the held batch and validates the input
// returned by source, which runs under the lock before anything is dropped. On
// success the new batch and its input are held and the state stays Validating.
func (o *Orchestrator) validate(ctx context.Context, source func() ([]byte, error)) (*batch.Batch, error) {
	var raw []byte

	err := o.enter(Validating, func() error {
		input, err := source()
		if err != nil {
			return err
		}
		raw = input
		o.batch = nil
		o.raw = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	b, err := o.validator.Validate(bytes.NewReader(raw))

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Msg("Batch rejected")
		o.setStateLocked(o.restingStateLocked())
		return nil, err
	}

	o.batch = b
	o.raw = raw

	return b, nil
}

type work func(ctx context.Context) (*Outcome, error)

// execute runs w under a context Cancel can abort.
func (o *Orchestrator) execute(ctx context.Context, w work) (*Outcome, error) {
	runCtx, cancel := o.arm(ctx)
	defer cancel()

	return w(runCtx)
}

func (o *Orchestrator) background(ctx context.Context, w work) <-chan *Outcome {
	done := make(chan *Outcome, 1)
	runCtx, cancel := o.arm(ctx)

	go func() {
		defer cancel()
		outcome, _ := w(runCtx)
		done <- outcome
	}()

	return done
}

func (o *Orchestrator) runner(b *batch.Batch) work {
	return func(ctx context.Context) (*Outcome, error) {
		return o.run(ctx, b)
	}
}

func (o *Orchestrator) settler(receipt *ledger.Receipt, prev Outcome) work {
	return func(ctx context.Context) (*Outcome, error) {
		return o.reconcile(ctx, receipt, prev)
	}
}

// arm makes ctx cancellable through Cancel.
func (o *Orchestrator) arm(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	return runCtx, cancel
}

func (o *Orchestrator) run(ctx context.Context, b *batch.Batch) (*Outcome, error) {
	runID := uuid.New().String()
	logger := util.LogFromContext(ctx).With().Str("run_id", runID).Logger()
	runCtx := logger.WithContext(ctx)

	outcome := &Outcome{
		RunID:      runID,
		Recipients: b.Len(),
		Total:      b.Total.String(),
		StartedAt:  time.Now(),
	}

	logger.Info().Int("recipients", b.Len()).Str("total", outcome.Total).Msg("Distribution started")

	err := o.pipeline(runCtx, b, outcome)
	outcome.FinishedAt = time.Now()

	return o.finish(logger, outcome, err)
}

func (o *Orchestrator) reconcile(ctx context.Context, receipt *ledger.Receipt, prev Outcome) (*Outcome, error) {
	logger := util.LogFromContext(ctx).With().Str("run_id", prev.RunID).Logger()
	runCtx := logger.WithContext(ctx)

	outcome := prev
	outcome.Failure = nil

	logger.Info().Str("tx_hash", receipt.RequestID.Hex()).Msg("Reconciling distribution")

	err := o.ledger.AwaitConfirmation(runCtx, receipt)
	view := receipt.View()
	outcome.Receipt = &view
	outcome.FinishedAt = time.Now()

	return o.finish(logger, &outcome, err)
}

// finish records the outcome of a run or reconciliation and picks the next
// state. A receipt still pending after an error makes the outcome Unsettled.
func (o *Orchestrator) finish(logger zerolog.Logger, outcome *Outcome, err error) (*Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancel = nil

	if err == nil {
		outcome.Status = Succeeded
		o.batch = nil
		o.raw = nil
		o.pending = nil
		o.setStateLocked(Succeeded)
	} else {
		f, ok := failure.As(err)
		if !ok {
			f = failure.Wrap(err, failure.Unknown, "unexpected error")
		}
		outcome.Failure = f

		switch {
		case o.pending != nil && o.pending.Status() == ledger.Pending:
			outcome.Status = Unsettled
			o.setStateLocked(Unsettled)
		case f.Kind.Validation():
			// the batch cannot be sent as is
			outcome.Status = Failed
			o.batch = nil
			o.raw = nil
			o.pending = nil
			o.setStateLocked(o.restingStateLocked())
		default:
			outcome.Status = Failed
			o.pending = nil
			o.setStateLocked(Failed)
		}
	}

	o.outcome = outcome
	o.metrics.observeRun(outcome)

	event := logger.Info()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Str("status", outcome.Status.String()).
		Str("explorer_url", outcome.ExplorerURL).
		Dur("duration", outcome.FinishedAt.Sub(outcome.StartedAt)).
		Msg("Distribution finished")

	out := *outcome
	return &out, err
}

func (o *Orchestrator) pipeline(ctx context.Context, b *batch.Batch, outcome *Outcome) error {
	log := util.LogFromContext(ctx)

	o.transition(Normalizing)

	precision := o.precision(ctx)
	outcome.Precision = precision

	if err := batch.Normalize(b, precision); err != nil {
		return err
	}

	o.transition(CheckingSolvency)

	demand := amount.Sum(b.Normalized)
	outcome.Demand = demand.String()

	balance, err := o.ledger.ReadBalance(ctx, o.cfg.Token, o.cfg.Distributor)
	if err != nil {
		return err
	}

	log.Debug().
		Str("demand", demand.String()).
		Str("balance", balance.String()).
		Msg("Solvency check")

	if demand.Cmp(balance) > 0 {
		return failure.Newf(failure.InsufficientFunds, "distributor holds %s tokens but the batch needs %s",
			amount.Format(balance, precision), amount.Format(demand, precision))
	}

	o.transition(Submitting)

	session := o.Session()
	if !session.Connected || session.Account == nil {
		return failure.New(failure.AuthorizationDenied, "wallet disconnected before submission")
	}

	if err := o.ledger.AssertNetwork(ctx, o.cfg.Network); err != nil {
		return err
	}

	receipt, err := o.ledger.SubmitDistribution(ctx, ledger.DistributionRequest{
		From:        *session.Account,
		Distributor: o.cfg.Distributor,
		Recipients:  b.Recipients(),
		Amounts:     b.Normalized,
	})
	if err != nil {
		return err
	}

	o.metrics.observeSubmission(b.Len())
	outcome.ExplorerURL = o.cfg.Network.TxURL(receipt.RequestID)
	view := receipt.View()
	outcome.Receipt = &view

	o.mu.Lock()
	o.pending = receipt
	o.setStateLocked(AwaitingConfirmation)
	o.mu.Unlock()

	err = o.ledger.AwaitConfirmation(ctx, receipt)
	view = receipt.View()
	outcome.Receipt = &view

	return err
}

func (o *Orchestrator) precision(ctx context.Context) int {
	o.mu.Lock()
	token := o.token
	o.mu.Unlock()

	if token != nil && !token.Fallback {
		return token.Precision
	}

	fresh := o.readToken(ctx)

	o.mu.Lock()
	o.token = fresh
	o.mu.Unlock()

	return fresh.Precision
}

// enter moves to next unless busy. check runs under the lock before the move.
func (o *Orchestrator) enter(next State, check func() error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Busy() {
		return failure.Newf(failure.OperationInProgress, "orchestrator is %s", o.state)
	}

	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}

	o.setStateLocked(next)
	return nil
}

func (o *Orchestrator) transition(next State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.setStateLocked(next)
}

func (o *Orchestrator) setStateLocked(s State) {
	o.state = s
	o.metrics.setState(s)
}

func (o *Orchestrator) restingStateLocked() State {
	if o.pending != nil {
		return Unsettled
	}
	if o.session.Connected {
		return Connected
	}
	return Idle
}

func (o *Orchestrator) requireConnectedLocked() error {
	if !o.session.Connected {
		return ErrNotConnected
	}
	return nil
}

func (o *Orchestrator) requireSettledLocked() error {
	if o.pending != nil {
		return ErrUnsettled
	}
	return nil
}

func summarize(b *batch.Batch) BatchSummary {
	return BatchSummary{Rows: b.Len(), Total: b.Total.String()}
}
