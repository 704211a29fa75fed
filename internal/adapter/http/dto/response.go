package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

// BalanceResponse represents the current balance.
type BalanceResponse struct {
	Amount decimal.Decimal `json:"amount"`
}

// BalanceFromDomain converts a domain balance.
func BalanceFromDomain(b domain.Balance) BalanceResponse {
	return BalanceResponse{Amount: b.Amount}
}

// EntryResponse represents a ledger entry.
type EntryResponse struct {
	ID            string          `json:"id"`
	Sequence      int64           `json:"sequence"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry.
func EntryFromDomain(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		Sequence:      e.Sequence,
		Kind:          string(e.Kind()),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter(),
		CreatedAt:     e.CreatedAt,
	}
}

// ListEntriesResponse is a page of entries.
type ListEntriesResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// EntriesFromDomain converts a page of domain entries.
func EntriesFromDomain(entries []*domain.LedgerEntry, limit, offset int) ListEntriesResponse {
	resp := ListEntriesResponse{
		Entries: make([]EntryResponse, 0, len(entries)),
		Total:   len(entries),
		Limit:   limit,
		Offset:  offset,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryFromDomain(e))
	}
	return resp
}

// VerifyResponse is the outcome of a chain verification.
type VerifyResponse struct {
	Consistent       bool            `json:"consistent"`
	Entries          int             `json:"entries"`
	Balance          decimal.Decimal `json:"balance"`
	BrokenAtSequence int64           `json:"broken_at_sequence,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	CheckedAt        time.Time       `json:"checked_at"`
}

// VerifyFromReport converts a chain report.
func VerifyFromReport(r *usecase.ChainReport) VerifyResponse {
	return VerifyResponse{
		Consistent:       r.Consistent,
		Entries:          r.Entries,
		Balance:          r.Balance,
		BrokenAtSequence: r.BrokenAtSequence,
		Reason:           r.Reason,
		CheckedAt:        r.CheckedAt,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
