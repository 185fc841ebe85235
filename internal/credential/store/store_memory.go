package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"vouch/internal/credential"
)

// Memory is an in-memory implementation of Store. It is safe for concurrent
// use but does not persist across process restarts.
type Memory struct {
	mu        sync.RWMutex
	byContent map[string]credential.Record
	nextID    int64

	now func() time.Time
}

// NewMemory constructs an empty in-memory credential store.
func NewMemory() *Memory {
	return &Memory{
		byContent: make(map[string]credential.Record),
		nextID:    1,
		now:       time.Now,
	}
}

// InsertOrGet implements Store. The whole check-then-act runs under one lock,
// so two concurrent calls with the same content never both insert.
func (s *Memory) InsertOrGet(_ context.Context, content, workerID string) (credential.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byContent[content]; ok {
		return existing, false, nil
	}

	record := credential.Record{
		ID:       s.nextID,
		Content:  content,
		WorkerID: workerID,
		IssuedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	s.nextID++
	s.byContent[content] = record
	return record, true, nil
}

// FindByContent implements Store.
func (s *Memory) FindByContent(_ context.Context, content string) (credential.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.byContent[content]; ok {
		return record, nil
	}
	return credential.Record{}, ErrNotFound
}

// ListAll implements Store.
func (s *Memory) ListAll(_ context.Context) ([]credential.Record, error) {
	s.mu.RLock()
	records := make([]credential.Record, 0, len(s.byContent))
	for _, record := range s.byContent {
		records = append(records, record)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].IssuedAt.Equal(records[j].IssuedAt) {
			return records[i].IssuedAt.After(records[j].IssuedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Close implements Store. Nothing to release for the in-memory backend.
func (s *Memory) Close() error {
	return nil
}
