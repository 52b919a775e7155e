package memory

import (
	"context"
	"sync"

	"english-practice-service/internal/domain"
)

// StatusStore keeps sparse status maps per user and kind.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]map[string]string
}

func NewStatusStore() *StatusStore {
	return &StatusStore{statuses: make(map[string]map[string]string)}
}

func (s *StatusStore) GetStatuses(_ context.Context, userID string, kind domain.ProgressKind) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.statuses[s.key(userID, kind)]
	out := make(map[string]string, len(stored))
	for id, status := range stored {
		out[id] = status
	}
	return out, nil
}

func (s *StatusStore) SetStatus(_ context.Context, userID string, kind domain.ProgressKind, entityID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(userID, kind)
	if status == "" {
		delete(s.statuses[key], entityID)
		return nil
	}
	if s.statuses[key] == nil {
		s.statuses[key] = make(map[string]string)
	}
	s.statuses[key][entityID] = status
	return nil
}

func (s *StatusStore) key(userID string, kind domain.ProgressKind) string {
	return string(kind) + ":" + userID
}
