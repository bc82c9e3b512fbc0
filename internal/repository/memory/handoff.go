package memory

import (
	"context"
	"sync"
	"time"

	"tgstorefront/internal/domain"
)

// HandoffStore is a process-local handoff store.
// Not shared between instances: a multi-instance deployment needs the
// postgres or redis store.
type HandoffStore struct {
	mu      sync.Mutex
	records map[string]domain.HandoffRecord
	now     func() time.Time
}

// NewHandoffStore creates an empty in-memory store
func NewHandoffStore() *HandoffStore {
	return &HandoffStore{
		records: make(map[string]domain.HandoffRecord),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for expiry checks
func (s *HandoffStore) WithClock(now func() time.Time) *HandoffStore {
	s.now = now
	return s
}

var (
	processStoreOnce sync.Once
	processStore     *HandoffStore
)

// ProcessStore returns the process-wide store, created on first access
func ProcessStore() *HandoffStore {
	processStoreOnce.Do(func() {
		processStore = NewHandoffStore()
	})
	return processStore
}

// Set sweeps expired records and stores the new one
func (s *HandoffStore) Set(_ context.Context, code string, record domain.HandoffRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.records[code] = record
	return nil
}

// Consume sweeps expired records, then pops the code
func (s *HandoffStore) Consume(_ context.Context, code string) (*domain.HandoffRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	record, ok := s.records[code]
	if !ok {
		return nil, nil
	}
	delete(s.records, code)
	return &record, nil
}

// Len returns the number of stored records, expired ones included
func (s *HandoffStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep drops expired records and returns how many were removed
func (s *HandoffStore) Sweep(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(), nil
}

// O(n) on every access
func (s *HandoffStore) sweepLocked() int64 {
	var removed int64
	nowMs := s.now().UnixMilli()
	for code, record := range s.records {
		if record.Expired(nowMs) {
			delete(s.records, code)
			removed++
		}
	}
	return removed
}
