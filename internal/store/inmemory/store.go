package inmemory

import (
	"context"
	"sync"

	"github.com/dvloznov/account-mirror/internal/mirror"
	"github.com/dvloznov/account-mirror/internal/store"
)

// Store is an in-memory implementation of RecordStore.
// It is safe for concurrent use. Data is lost on process exit - for
// persistence, use the BigQuery-backed store.
type Store struct {
	mu      sync.RWMutex
	records []*mirror.Record
	cursor  string
}

// NewStore creates a new empty in-memory record store.
func NewStore() *Store {
	return &Store{}
}

// LoadAll implements the RecordStore interface. It returns a copy of the
// stored set in display order so callers cannot mutate persisted state.
func (s *Store) LoadAll(ctx context.Context) ([]*mirror.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*mirror.Record, len(s.records))
	for i, r := range s.records {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// ReplaceAll implements the RecordStore interface. The stored content is
// swapped wholesale; readers never observe a partially applied cycle.
func (s *Store) ReplaceAll(ctx context.Context, records []*mirror.Record) error {
	next := make([]*mirror.Record, len(records))
	for i, r := range records {
		cp := *r
		next[i] = &cp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	return nil
}

// LoadCursor implements the RecordStore interface.
func (s *Store) LoadCursor(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, nil
}

// SaveCursor implements the RecordStore interface.
func (s *Store) SaveCursor(ctx context.Context, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
	return nil
}

// Close implements the RecordStore interface.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements the RecordStore interface.
var _ store.RecordStore = (*Store)(nil)
