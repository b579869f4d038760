package store

import (
	"sync"

	"github.com/monitoragent/stream-monitor/internal/model"
)

// TranscriptStore is an append-only in-memory log of transcript records
// with a bounded retention window. Records are immutable once appended.
type TranscriptStore struct {
	mu      sync.RWMutex
	records []model.TranscriptRecord
	limit   int
}

// New creates a store retaining at most limit records; older ones are
// evicted as new ones arrive.
func New(limit int) *TranscriptStore {
	if limit <= 0 {
		limit = 500
	}
	return &TranscriptStore{limit: limit}
}

// Append adds a record, evicting the oldest when over the retention
// limit.
func (s *TranscriptStore) Append(rec model.TranscriptRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.limit {
		s.records = s.records[len(s.records)-s.limit:]
	}
}

// Latest returns up to n of the most recent records, oldest first.
func (s *TranscriptStore) Latest(n int) []model.TranscriptRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.records) {
		n = len(s.records)
	}
	out := make([]model.TranscriptRecord, n)
	copy(out, s.records[len(s.records)-n:])
	return out
}

// Len reports how many records are retained.
func (s *TranscriptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
