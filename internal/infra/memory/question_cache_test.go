package memory

import (
	"context"
	"testing"
	"time"

	"english-practice-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	loader := &countingLoader{QuestionStore: NewQuestionStore(sampleQuestions())}
	cache := NewQuestionCache(loader, time.Minute)

	questions, err := cache.ListQuestions(context.Background(), domain.QuestionFilter{})
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.ListQuestions(context.Background(), domain.QuestionFilter{}); err != nil {
		t.Fatalf("list questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	filtered, err := cache.ListQuestions(context.Background(), domain.QuestionFilter{Type: domain.Restatement})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || loader.calls != 2 {
		t.Fatalf("expected separate cache entry per filter, got %d questions and %d calls", len(filtered), loader.calls)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{QuestionStore: NewQuestionStore(sampleQuestions())}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.ListQuestions(context.Background(), domain.QuestionFilter{})
	now = now.Add(2 * time.Minute)
	_, _ = cache.ListQuestions(context.Background(), domain.QuestionFilter{})
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}

	cache.Invalidate()
	_, _ = cache.ListQuestions(context.Background(), domain.QuestionFilter{})
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	*QuestionStore
	calls int
}

func (l *countingLoader) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	l.calls++
	return l.QuestionStore.ListQuestions(ctx, filter)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "sc1", Text: "She ___ to school.", Options: []string{"go", "goes"}, CorrectAnswer: 1, Type: domain.SentenceCompletion},
		{ID: "r1", Text: "Restate: it rained.", Options: []string{"It was wet.", "It was dry."}, CorrectAnswer: 0, Type: domain.Restatement},
		{ID: "p1q1", Text: "What is the passage about?", Options: []string{"Cats", "Dogs"}, CorrectAnswer: 0, Type: domain.TextAndQuestions, PassageID: "p1"},
	}
}
