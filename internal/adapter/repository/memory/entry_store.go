package memory

import (
	"context"
	"sync"

	"github.com/iho/balanceledger/internal/domain"
)

// EntryStore implements usecase.EntryStore and usecase.EntryReader in process memory.
type EntryStore struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

// NewEntryStore creates an empty EntryStore.
func NewEntryStore() *EntryStore {
	return &EntryStore{
		entries: make([]domain.LedgerEntry, 0),
	}
}

// GetLatestEntry returns a copy of the latest entry, or nil when empty.
func (s *EntryStore) GetLatestEntry(ctx context.Context) (*domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil
	}

	latest := s.entries[len(s.entries)-1]

	return &latest, nil
}

// AppendEntry stores a copy of entry if its sequence follows the latest one.
func (s *EntryStore) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Sequence != int64(len(s.entries))+1 {
		return domain.ErrEntryConflict
	}

	s.entries = append(s.entries, *entry)

	return nil
}

// ListEntries returns copies of entries in chain order.
func (s *EntryStore) ListEntries(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.entries) {
		return []*domain.LedgerEntry{}, nil
	}

	end := min(offset+limit, len(s.entries))

	result := make([]*domain.LedgerEntry, 0, end-offset)
	for _, e := range s.entries[offset:end] {
		result = append(result, &e)
	}

	return result, nil
}

// Len returns the number of stored entries.
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
