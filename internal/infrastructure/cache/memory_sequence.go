package cache

import (
	"context"
	"sync"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
)

// InMemorySequenceReserver is a process-local SequenceReserver for tests
// and single-instance development runs.
type InMemorySequenceReserver struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewInMemorySequenceReserver creates an empty reserver
func NewInMemorySequenceReserver() *InMemorySequenceReserver {
	return &InMemorySequenceReserver{counters: make(map[string]int64)}
}

// Next returns 1 for the first call per (name, day)
func (r *InMemorySequenceReserver) Next(_ context.Context, name string, day time.Time) (int64, error) {
	key := SequenceKey(name, day)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key]++
	return r.counters[key], nil
}

var _ shared.SequenceReserver = (*InMemorySequenceReserver)(nil)
