package partuploader

import (
	"sync"
	"time"
)

// Stats aggregates part upload timings for progress reporting.
type Stats struct {
	mu      sync.Mutex
	count   int
	total   time.Duration
	slowest time.Duration
}

// NewStats ...
func NewStats() *Stats {
	return &Stats{}
}

// Record adds a successful part upload duration.
func (s *Stats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.total += d
	if d > s.slowest {
		s.slowest = d
	}
}

// Average returns the mean duration of the recorded part uploads.
func (s *Stats) Average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}

// Slowest returns the longest recorded part upload duration.
func (s *Stats) Slowest() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slowest
}

// Count returns the number of recorded part uploads.
func (s *Stats) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
