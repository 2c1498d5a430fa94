package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"mercator-hq/retainer/pkg/history"
)

// MemoryStore implements history.Store using an in-memory map.
// Runs are lost when the process exits.
type MemoryStore struct {
	runs map[string]*history.Run
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*history.Run),
	}
}

// Save stores a copy of run.
func (s *MemoryStore) Save(ctx context.Context, run *history.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = copyRun(run)
	return nil
}

// Get returns a copy of the run with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*history.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, history.ErrRunNotFound
	}
	return copyRun(run), nil
}

// List returns copies of the runs matching q, newest first.
func (s *MemoryStore) List(ctx context.Context, q history.Query) ([]*history.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*history.Run{}
	for _, run := range s.runs {
		if q.Operation != "" && run.Operation != q.Operation {
			continue
		}
		if q.Status != "" && run.Status != q.Status {
			continue
		}
		results = append(results, copyRun(run))
	}

	slices.SortFunc(results, func(a, b *history.Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	if limit := q.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Prune deletes runs started before cutoff.
func (s *MemoryStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, run := range s.runs {
		if run.StartedAt.Before(cutoff) {
			delete(s.runs, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close drops all runs.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]*history.Run)
	return nil
}

func copyRun(run *history.Run) *history.Run {
	c := *run
	c.Result = slices.Clone(run.Result)
	return &c
}
