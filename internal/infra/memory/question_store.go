package memory

import (
	"context"
	"sync"

	"english-practice-service/internal/domain"
)

// QuestionStore is an in-memory question bank (useful for tests/demos).
type QuestionStore struct {
	mu        sync.RWMutex
	questions []domain.Question
}

func NewQuestionStore(questions []domain.Question) *QuestionStore {
	return &QuestionStore{questions: append([]domain.Question(nil), questions...)}
}

// AddQuestions appends questions, replacing any with the same id.
func (s *QuestionStore) AddQuestions(_ context.Context, questions ...domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		replaced := false
		for i := range s.questions {
			if s.questions[i].ID == q.ID {
				s.questions[i] = q
				replaced = true
				break
			}
		}
		if !replaced {
			s.questions = append(s.questions, q)
		}
	}
	return nil
}

func (s *QuestionStore) ListQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if filter.Match(q) {
			out = append(out, q)
		}
	}
	return out, nil
}
