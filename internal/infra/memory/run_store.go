package memory

import (
	"sync"

	"english-practice-service/internal/app"
)

// RunStore is an in-memory implementation of app.RunRegistry.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*app.Runner
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*app.Runner),
	}
}

func (s *RunStore) Put(runID string, runner *app.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = runner
}

func (s *RunStore) Get(runID string) (*app.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.runs[runID]
	return runner, ok
}

func (s *RunStore) Delete(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
}

// Len reports how many runs are registered.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
