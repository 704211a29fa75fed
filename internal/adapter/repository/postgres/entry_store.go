package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// PostgreSQL error codes the store distinguishes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

const getLatestEntry = `-- name: GetLatestEntry :one
SELECT id, sequence, amount::TEXT, balance_before::TEXT, created_at
FROM ledger_entries
ORDER BY sequence DESC
LIMIT 1
`

// appendEntry inserts only while $2 directly follows the stored maximum sequence.
const appendEntry = `-- name: AppendEntry :execrows
INSERT INTO ledger_entries (id, sequence, amount, balance_before, created_at)
SELECT $1, $2::BIGINT, $3::NUMERIC, $4::NUMERIC, $5::TIMESTAMPTZ
WHERE COALESCE((SELECT MAX(sequence) FROM ledger_entries), 0) = $2::BIGINT - 1
`

const listEntries = `-- name: ListEntries :many
SELECT id, sequence, amount::TEXT, balance_before::TEXT, created_at
FROM ledger_entries
ORDER BY sequence ASC
LIMIT $1 OFFSET $2
`

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EntryStore implements usecase.EntryStore and usecase.EntryReader on PostgreSQL.
type EntryStore struct {
	db dbtx
}

// NewEntryStore creates a new EntryStore.
func NewEntryStore(pool *pgxpool.Pool) *EntryStore {
	return newEntryStoreWithDB(pool)
}

func newEntryStoreWithDB(db dbtx) *EntryStore {
	return &EntryStore{db: db}
}

// GetLatestEntry returns the entry with the highest sequence, or nil when empty.
func (s *EntryStore) GetLatestEntry(ctx context.Context) (*domain.LedgerEntry, error) {
	entry, err := scanEntry(s.db.QueryRow(ctx, getLatestEntry))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyError(err)
	}

	return entry, nil
}

// AppendEntry inserts entry with a single conditional statement.
func (s *EntryStore) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	tag, err := s.db.Exec(ctx, appendEntry,
		entry.ID,
		entry.Sequence,
		entry.Amount.String(),
		entry.BalanceBefore.String(),
		entry.CreatedAt,
	)
	if err != nil {
		return classifyError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEntryConflict
	}

	return nil
}

// ListEntries returns entries in ascending sequence order.
func (s *EntryStore) ListEntries(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := s.db.Query(ctx, listEntries, int64(limit), int64(offset))
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, classifyError(err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError(err)
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		id            string
		sequence      int64
		amount        string
		balanceBefore string
		createdAt     time.Time
	)

	if err := row.Scan(&id, &sequence, &amount, &balanceBefore, &createdAt); err != nil {
		return nil, err
	}

	amountDec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("entry %s: invalid amount %q: %w", id, amount, err)
	}

	balanceDec, err := decimal.NewFromString(balanceBefore)
	if err != nil {
		return nil, fmt.Errorf("entry %s: invalid balance_before %q: %w", id, balanceBefore, err)
	}

	return &domain.LedgerEntry{
		ID:            id,
		Sequence:      sequence,
		Amount:        amountDec,
		BalanceBefore: balanceDec,
		CreatedAt:     createdAt.UTC(),
	}, nil
}

// classifyError maps driver errors onto domain errors. Serialization failures and
// deadlocks stay unwrapped so the retrier can recognise them.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return domain.ErrEntryConflict
		case pgErrDeadlock, pgErrSerializationFailure:
			return err
		}
	}

	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
