package redis

import (
	"context"
	"sync"
	"time"

	"english-practice-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// RunStore is a Redis-aware implementation of app.RunRegistry.
// Notes:
//   - Runners own timers and subscribers, so they stay in a local map.
//   - Redis marks run liveness (SET simulation:run:{id} owner) so other
//     instances and operators can see which runs exist and who owns them.
//   - The marker TTL is renewed on every runner transition, so it outlives
//     runs that take longer than the TTL as long as the user keeps going.
type RunStore struct {
	client *redis.Client
	ttl    time.Duration
	owner  string
	mu     sync.RWMutex
	runs   map[string]trackedRun
}

type trackedRun struct {
	runner *app.Runner
	cancel func()
}

func NewRunStore(client *redis.Client, ttl time.Duration, owner string) *RunStore {
	return &RunStore{
		client: client,
		ttl:    ttl,
		owner:  owner,
		runs:   make(map[string]trackedRun),
	}
}

func (s *RunStore) Put(runID string, runner *app.Runner) {
	updates, cancel := runner.Subscribe()

	s.mu.Lock()
	if prev, ok := s.runs[runID]; ok {
		prev.cancel()
	}
	s.runs[runID] = trackedRun{runner: runner, cancel: cancel}
	s.mu.Unlock()

	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(runID), s.owner, s.ttl).Err()
	go s.keepAlive(runID, updates)
}

// keepAlive renews the marker after each transition until the runner is
// closed or removed from the store.
func (s *RunStore) keepAlive(runID string, updates <-chan app.Snapshot) {
	for range updates {
		_ = s.client.Expire(context.Background(), s.key(runID), s.ttl).Err()
	}
}

func (s *RunStore) Get(runID string) (*app.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run.runner, ok
}

func (s *RunStore) Delete(runID string) {
	s.mu.Lock()
	run, ok := s.runs[runID]
	if ok {
		delete(s.runs, runID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	run.cancel()
	_ = s.client.Del(context.Background(), s.key(runID)).Err()
}

func (s *RunStore) key(runID string) string {
	return "simulation:run:" + runID
}
