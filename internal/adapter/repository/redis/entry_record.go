package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// entryRecord is the JSON form of a ledger entry stored in Redis.
type entryRecord struct {
	ID            string          `json:"id"`
	Sequence      int64           `json:"sequence"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toRecord(e *domain.LedgerEntry) entryRecord {
	return entryRecord{
		ID:            e.ID,
		Sequence:      e.Sequence,
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		CreatedAt:     e.CreatedAt,
	}
}

func decodeEntry(raw []byte) (*domain.LedgerEntry, error) {
	var rec entryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	return &domain.LedgerEntry{
		ID:            rec.ID,
		Sequence:      rec.Sequence,
		Amount:        rec.Amount,
		BalanceBefore: rec.BalanceBefore,
		CreatedAt:     rec.CreatedAt.UTC(),
	}, nil
}
