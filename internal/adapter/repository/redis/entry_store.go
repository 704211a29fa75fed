package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/balanceledger/internal/domain"
)

// EntryStore implements usecase.EntryStore and usecase.EntryReader on a Redis list.
// List index i holds the entry with sequence i+1.
type EntryStore struct {
	client *redis.Client
	key    string
}

// NewEntryStore creates a new EntryStore keeping entries under prefix + "entries".
func NewEntryStore(client *redis.Client, prefix string) *EntryStore {
	return &EntryStore{
		client: client,
		key:    prefix + "entries",
	}
}

// GetLatestEntry returns the last entry of the list, or nil when empty.
func (s *EntryStore) GetLatestEntry(ctx context.Context) (*domain.LedgerEntry, error) {
	raw, err := s.client.LIndex(ctx, s.key, -1).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}

	return decodeEntry(raw)
}

// AppendEntry pushes entry if its sequence directly follows the list length.
// Concurrent writers are detected with WATCH; the loser gets ErrEntryConflict.
func (s *EntryStore) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	payload, err := json.Marshal(toRecord(entry))
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		length, err := tx.LLen(ctx, s.key).Result()
		if err != nil {
			return err
		}
		if length != entry.Sequence-1 {
			return domain.ErrEntryConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, s.key, payload)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrEntryConflict), errors.Is(err, redis.TxFailedErr):
		return domain.ErrEntryConflict
	default:
		return unavailable(err)
	}
}

// ListEntries returns entries in ascending sequence order.
func (s *EntryStore) ListEntries(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		return []*domain.LedgerEntry{}, nil
	}

	raws, err := s.client.LRange(ctx, s.key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	entries := make([]*domain.LedgerEntry, 0, len(raws))
	for _, raw := range raws {
		entry, err := decodeEntry([]byte(raw))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
