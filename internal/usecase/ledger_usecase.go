package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// LedgerUseCase handles read-only operations over the whole entry log.
type LedgerUseCase struct {
	reader EntryReader
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(reader EntryReader) *LedgerUseCase {
	return &LedgerUseCase{
		reader: reader,
	}
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	Limit  int
	Offset int
}

// ListEntries lists entries in chain order.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.reader.ListEntries(ctx, limit, offset)
}

// ChainReport is the outcome of walking the entry log.
type ChainReport struct {
	Entries          int
	Balance          decimal.Decimal
	Consistent       bool
	BrokenAtSequence int64
	Reason           string
	CheckedAt        time.Time
}

// VerifyChain walks every entry and checks the running-total linkage.
// A broken chain is reported in the result; only store failures return an error.
func (uc *LedgerUseCase) VerifyChain(ctx context.Context) (*ChainReport, error) {
	report := &ChainReport{
		Balance:    decimal.Zero,
		Consistent: true,
	}

	var prev *domain.LedgerEntry

	for offset := 0; ; {
		page, err := uc.reader.ListEntries(ctx, verifyPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, entry := range page {
			report.Entries++

			if reason := checkLink(prev, entry); reason != "" {
				report.Consistent = false
				report.BrokenAtSequence = entry.Sequence
				report.Reason = reason
				report.CheckedAt = time.Now().UTC()

				return report, nil
			}

			report.Balance = entry.BalanceAfter()
			prev = entry
		}

		if len(page) < verifyPageSize {
			break
		}

		offset += len(page)
	}

	report.CheckedAt = time.Now().UTC()

	return report, nil
}

func checkLink(prev, entry *domain.LedgerEntry) string {
	if want := domain.NextSequence(prev); entry.Sequence != want {
		return fmt.Sprintf("expected sequence %d, got %d", want, entry.Sequence)
	}

	if entry.Amount.IsZero() {
		return "entry amount is zero"
	}

	if want := domain.BalanceFromLatest(prev).Amount; !entry.BalanceBefore.Equal(want) {
		return fmt.Sprintf("balance before %s does not match previous balance after %s", entry.BalanceBefore, want)
	}

	if entry.BalanceAfter().IsNegative() {
		return fmt.Sprintf("balance after %s is negative", entry.BalanceAfter())
	}

	return ""
}
