package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// EntryStore is the append-only log the balance is derived from.
type EntryStore interface {
	// GetLatestEntry returns the most recently appended entry, or nil for an empty ledger.
	GetLatestEntry(ctx context.Context) (*domain.LedgerEntry, error)
	// AppendEntry persists entry durably. It fails with domain.ErrEntryConflict
	// unless entry.Sequence directly follows the latest stored sequence.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error
}

// EntryReader lists entries in chain order.
type EntryReader interface {
	ListEntries(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// MetricsRecorder receives posting outcomes.
type MetricsRecorder interface {
	RecordPosting(kind domain.EntryKind, amount decimal.Decimal)
	RecordRejection(reason string)
	SetBalance(balance decimal.Decimal)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request may be retried.
	Release(ctx context.Context, key string) error
}
