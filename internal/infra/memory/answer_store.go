package memory

import (
	"context"
	"sync"

	"english-practice-service/internal/domain"
)

// AnswerStore keeps finished runs per user in insertion order.
type AnswerStore struct {
	mu      sync.RWMutex
	history map[string][]domain.HistoryEntry
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{history: make(map[string][]domain.HistoryEntry)}
}

func (s *AnswerStore) SaveUserAnswer(_ context.Context, answer domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[answer.UserID] = append(s.history[answer.UserID], domain.HistoryEntry{
		SimulationID: answer.SimulationID,
		Answers:      append([]domain.Answer(nil), answer.Answers...),
		Score:        answer.Score,
		Timestamp:    answer.Timestamp,
	})
	return nil
}

func (s *AnswerStore) GetUserHistory(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.HistoryEntry(nil), s.history[userID]...), nil
}
