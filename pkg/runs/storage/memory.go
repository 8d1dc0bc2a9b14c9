package storage

import (
	"context"
	"maps"
	"slices"
	"sync"

	"mercator-hq/quotegate/pkg/runs"
)

// MemoryStorage implements runs.Storage with an in-process map. Records do
// not survive a restart.
type MemoryStorage struct {
	records map[string]*runs.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory ledger.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*runs.Record)}
}

// Store persists a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *runs.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = clone(record)
	return nil
}

// Get returns a copy of the record with id.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*runs.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, runs.ErrNotFound
	}
	return clone(record), nil
}

// Query returns copies of the matching records ordered by StartedAt.
func (s *MemoryStorage) Query(ctx context.Context, q *runs.Query) ([]*runs.Record, error) {
	s.mu.RLock()
	results := make([]*runs.Record, 0)
	for _, record := range s.records {
		if matches(record, q) {
			results = append(results, clone(record))
		}
	}
	s.mu.RUnlock()

	desc := q.SortOrder != "asc"
	slices.SortFunc(results, func(a, b *runs.Record) int {
		c := a.StartedAt.Compare(b.StartedAt)
		if desc {
			return -c
		}
		return c
	})

	if q.Offset >= len(results) {
		return []*runs.Record{}, nil
	}
	results = results[q.Offset:]
	if q.Limit > 0 && q.Limit < len(results) {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, q *runs.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matches(record, q) {
			count++
		}
	}
	return count, nil
}

// Delete removes the matching records.
func (s *MemoryStorage) Delete(ctx context.Context, q *runs.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matches(record, q) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops every record.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*runs.Record)
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

func matches(record *runs.Record, q *runs.Query) bool {
	if q.StartTime != nil && record.StartedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && record.StartedAt.After(*q.EndTime) {
		return false
	}
	if q.Status != "" && record.Status != q.Status {
		return false
	}
	if q.Token != "" && record.Token != q.Token {
		return false
	}
	if q.RequestID != "" && record.RequestID != q.RequestID {
		return false
	}
	return true
}

func clone(record *runs.Record) *runs.Record {
	c := *record
	c.Inputs = maps.Clone(record.Inputs)
	c.LastSnapshot = maps.Clone(record.LastSnapshot)
	c.Defaulted = slices.Clone(record.Defaulted)
	c.InvalidFields = slices.Clone(record.InvalidFields)
	return &c
}
