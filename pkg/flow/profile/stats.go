package profile

import (
	"sync"
	"time"
)

// DefaultStats is the mutex-guarded Stats implementation.
type DefaultStats struct {
	mu      sync.Mutex
	entries map[string]time.Duration
}

// NewDefaultStats creates an empty stats collection.
func NewDefaultStats() *DefaultStats {
	return &DefaultStats{
		entries: make(map[string]time.Duration),
	}
}

func (s *DefaultStats) Merge(label string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[label] = elapsed
}

func (s *DefaultStats) Snapshot() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Duration, len(s.entries))
	for label, elapsed := range s.entries {
		out[label] = elapsed
	}

	return out
}

func (s *DefaultStats) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

var _ Stats = (*DefaultStats)(nil)
