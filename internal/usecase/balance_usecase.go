package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/iho/balanceledger/internal/domain"
)

// Rejection reasons reported to MetricsRecorder.
const (
	RejectionInsufficientBalance = "insufficient_balance"
	RejectionInvalidAmount       = "invalid_amount"
	RejectionAmountTooLarge      = "amount_too_large"
)

// BalanceUseCase derives the balance from the latest entry and posts new entries.
// It is the only component that constructs ledger entries.
type BalanceUseCase struct {
	store        EntryStore
	idGen        IDGenerator
	retrier      Retrier
	metrics      MetricsRecorder
	storeTimeout time.Duration
	now          func() time.Time

	// sem serializes read-decide-append.
	sem *semaphore.Weighted
}

// BalanceOption customizes a BalanceUseCase.
type BalanceOption func(*BalanceUseCase)

// WithStoreTimeout overrides DefaultStoreTimeout.
func WithStoreTimeout(d time.Duration) BalanceOption {
	return func(uc *BalanceUseCase) {
		if d > 0 {
			uc.storeTimeout = d
		}
	}
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) BalanceOption {
	return func(uc *BalanceUseCase) {
		uc.now = now
	}
}

// NewBalanceUseCase creates a new BalanceUseCase. retrier and metrics may be nil.
func NewBalanceUseCase(
	store EntryStore,
	idGen IDGenerator,
	retrier Retrier,
	metrics MetricsRecorder,
	opts ...BalanceOption,
) *BalanceUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	uc := &BalanceUseCase{
		store:        store,
		idGen:        idGen,
		retrier:      retrier,
		metrics:      metrics,
		storeTimeout: DefaultStoreTimeout,
		now:          time.Now,
		sem:          semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// GetBalance returns the current balance. It never writes.
func (uc *BalanceUseCase) GetBalance(ctx context.Context) (domain.Balance, error) {
	latest, err := uc.latest(ctx)
	if err != nil {
		return domain.Balance{}, err
	}

	balance := domain.BalanceFromLatest(latest)
	uc.metrics.SetBalance(balance.Amount)

	return balance, nil
}

// DepositFunds appends a deposit entry and returns the new balance.
func (uc *BalanceUseCase) DepositFunds(ctx context.Context, deposit domain.Deposit) (domain.Balance, error) {
	if err := uc.validate(deposit.Amount); err != nil {
		return domain.Balance{}, err
	}

	return uc.post(ctx, deposit.Amount)
}

// WithdrawFunds appends a withdrawal entry and returns the new balance.
// It fails with domain.ErrInsufficientBalance when the amount exceeds the balance.
func (uc *BalanceUseCase) WithdrawFunds(ctx context.Context, withdrawal domain.Withdrawal) (domain.Balance, error) {
	if err := uc.validate(withdrawal.Amount); err != nil {
		return domain.Balance{}, err
	}

	return uc.post(ctx, withdrawal.Amount.Neg())
}

// post runs read-decide-append for a signed amount under the posting lock.
func (uc *BalanceUseCase) post(ctx context.Context, amount decimal.Decimal) (domain.Balance, error) {
	if err := uc.sem.Acquire(ctx, 1); err != nil {
		return domain.Balance{}, err
	}
	defer uc.sem.Release(1)

	var result domain.Balance

	err := uc.retry(ctx, func() error {
		balance, err := uc.appendNext(ctx, amount)
		if err != nil {
			return err
		}

		result = balance

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			uc.metrics.RecordRejection(RejectionInsufficientBalance)
		}

		return domain.Balance{}, err
	}

	return result, nil
}

func (uc *BalanceUseCase) appendNext(ctx context.Context, amount decimal.Decimal) (domain.Balance, error) {
	latest, err := uc.latest(ctx)
	if err != nil {
		return domain.Balance{}, err
	}

	current := domain.BalanceFromLatest(latest)

	if amount.IsNegative() {
		if err := current.Covers(amount.Neg()); err != nil {
			return domain.Balance{}, err
		}
	}

	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		Sequence:      domain.NextSequence(latest),
		Amount:        amount,
		BalanceBefore: current.Amount,
		CreatedAt:     uc.now().UTC(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.store.AppendEntry(storeCtx, entry); err != nil {
		return domain.Balance{}, err
	}

	after := domain.Balance{Amount: entry.BalanceAfter()}

	uc.metrics.RecordPosting(entry.Kind(), amount.Abs())
	uc.metrics.SetBalance(after.Amount)

	return after, nil
}

func (uc *BalanceUseCase) latest(ctx context.Context) (*domain.LedgerEntry, error) {
	storeCtx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	return uc.store.GetLatestEntry(storeCtx)
}

func (uc *BalanceUseCase) retry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

func (uc *BalanceUseCase) validate(amount decimal.Decimal) error {
	err := domain.ValidateAmount(amount)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAmountTooLarge):
		uc.metrics.RecordRejection(RejectionAmountTooLarge)
	default:
		uc.metrics.RecordRejection(RejectionInvalidAmount)
	}
	return err
}

type noopMetrics struct{}

func (noopMetrics) RecordPosting(domain.EntryKind, decimal.Decimal) {}
func (noopMetrics) RecordRejection(string)                          {}
func (noopMetrics) SetBalance(decimal.Decimal)                      {}
