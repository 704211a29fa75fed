package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry by the sign of its amount.
type EntryKind string

const (
	EntryKindDeposit    EntryKind = "deposit"
	EntryKindWithdrawal EntryKind = "withdrawal"
)

// LedgerEntry is one posted transaction in the append-only log.
// Entries are never mutated once created.
type LedgerEntry struct {
	CreatedAt     time.Time
	ID            string
	Sequence      int64
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
}

// BalanceAfter returns the balance produced by this entry.
func (e *LedgerEntry) BalanceAfter() decimal.Decimal {
	return e.BalanceBefore.Add(e.Amount)
}

// Kind reports whether the entry is a deposit or a withdrawal.
func (e *LedgerEntry) Kind() EntryKind {
	if e.Amount.IsNegative() {
		return EntryKindWithdrawal
	}
	return EntryKindDeposit
}

// NextSequence returns the sequence the entry following latest must carry.
// A nil latest means the ledger is empty.
func NextSequence(latest *LedgerEntry) int64 {
	if latest == nil {
		return 1
	}
	return latest.Sequence + 1
}
