package memory

import (
	"context"
	"sync"

	"english-practice-service/internal/domain"
)

// WordStore is a static vocabulary catalog.
type WordStore struct {
	mu    sync.RWMutex
	words []domain.Word
}

func NewWordStore(words []domain.Word) *WordStore {
	return &WordStore{words: append([]domain.Word(nil), words...)}
}

func (s *WordStore) ListWords(_ context.Context) ([]domain.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Word(nil), s.words...), nil
}

// AddWords appends words, replacing any with the same id.
func (s *WordStore) AddWords(_ context.Context, words ...domain.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range words {
		replaced := false
		for i := range s.words {
			if s.words[i].ID == w.ID {
				s.words[i] = w
				replaced = true
				break
			}
		}
		if !replaced {
			s.words = append(s.words, w)
		}
	}
	return nil
}
