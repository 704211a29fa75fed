package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

var entryColumns = []string{"id", "sequence", "amount", "balance_before", "created_at"}

func TestEntryStore_GetLatestEntry(t *testing.T) {
	mockPool := newMockPool(t)
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence DESC")).
		WillReturnRows(pgxmock.NewRows(entryColumns).AddRow("e2", int64(2), "50", "100", createdAt))

	store := newEntryStoreWithDB(mockPool)
	entry, err := store.GetLatestEntry(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.ID != "e2" || entry.Sequence != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.BalanceAfter().Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected balance after 150, got %s", entry.BalanceAfter())
	}
	if !entry.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at %s, got %s", createdAt, entry.CreatedAt)
	}

	assertExpectations(t, mockPool)
}

func TestEntryStore_GetLatestEntryEmpty(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence DESC")).
		WillReturnRows(pgxmock.NewRows(entryColumns))

	store := newEntryStoreWithDB(mockPool)
	entry, err := store.GetLatestEntry(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %+v", entry)
	}

	assertExpectations(t, mockPool)
}

func TestEntryStore_GetLatestEntryWrapsInfrastructureErrors(t *testing.T) {
	mockPool := newMockPool(t)
	connErr := errors.New("connection refused")
	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence DESC")).WillReturnError(connErr)

	store := newEntryStoreWithDB(mockPool)
	_, err := store.GetLatestEntry(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) || !errors.Is(err, connErr) {
		t.Fatalf("expected wrapped ErrStoreUnavailable, got %v", err)
	}
}

func TestEntryStore_AppendEntry(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &domain.LedgerEntry{
		ID:            "e3",
		Sequence:      3,
		Amount:        decimal.NewFromInt(-75),
		BalanceBefore: decimal.NewFromInt(150),
		CreatedAt:     createdAt,
	}

	tests := []struct {
		name    string
		setup   func(pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "inserted",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
					WithArgs("e3", int64(3), "-75", "150", createdAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "stale sequence inserts nothing",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
					WithArgs("e3", int64(3), "-75", "150", createdAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
			wantErr: domain.ErrEntryConflict,
		},
		{
			name: "unique violation",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
					WithArgs("e3", int64(3), "-75", "150", createdAt).
					WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
			},
			wantErr: domain.ErrEntryConflict,
		},
		{
			name: "connection failure",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
					WithArgs("e3", int64(3), "-75", "150", createdAt).
					WillReturnError(errors.New("broken pipe"))
			},
			wantErr: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			tt.setup(mockPool)

			err := newEntryStoreWithDB(mockPool).AppendEntry(context.Background(), entry)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			assertExpectations(t, mockPool)
		})
	}
}

func TestEntryStore_AppendEntryKeepsSerializationFailureRetryable(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
		WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})

	err := newEntryStoreWithDB(mockPool).AppendEntry(context.Background(), &domain.LedgerEntry{
		ID: "e1", Sequence: 1, Amount: decimal.NewFromInt(1), BalanceBefore: decimal.Zero,
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrSerializationFailure {
		t.Fatalf("expected raw serialization failure, got %v", err)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("serialization failure must not be reported as store unavailable")
	}
}

func TestEntryStore_ListEntries(t *testing.T) {
	mockPool := newMockPool(t)
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence ASC")).
		WithArgs(int64(2), int64(0)).
		WillReturnRows(pgxmock.NewRows(entryColumns).
			AddRow("e1", int64(1), "100", "0", createdAt).
			AddRow("e2", int64(2), "-25.50", "100", createdAt))

	entries, err := newEntryStoreWithDB(mockPool).ListEntries(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[1].BalanceAfter().Equal(decimal.RequireFromString("74.50")) {
		t.Fatalf("expected 74.50, got %s", entries[1].BalanceAfter())
	}

	assertExpectations(t, mockPool)
}

func TestEntryStore_ListEntries_OffsetBeyondInt32(t *testing.T) {
	mockPool := newMockPool(t)
	offset := 1 << 32

	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence ASC")).
		WithArgs(int64(20), int64(offset)).
		WillReturnRows(pgxmock.NewRows(entryColumns))

	entries, err := newEntryStoreWithDB(mockPool).ListEntries(context.Background(), 20, offset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries past the end of the log, got %d", len(entries))
	}

	assertExpectations(t, mockPool)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
