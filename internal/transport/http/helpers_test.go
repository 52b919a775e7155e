package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"english-practice-service/internal/app"
	"english-practice-service/internal/domain"
	"english-practice-service/internal/infra/memory"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*httptest.Server
	simulations *app.SimulationService
	answers     *memory.AnswerStore
	runs        *memory.RunStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	answers := memory.NewAnswerStore()
	runs := memory.NewRunStore()
	statuses := memory.NewStatusStore()

	sims := app.NewSimulationService(app.SimulationDeps{
		Questions:   memory.NewQuestionStore(sampleQuestions()),
		Simulations: memory.NewSimulationStore(),
		Answers:     answers,
		Runs:        runs,
	})
	vocab := app.NewVocabularyService(memory.NewWordStore(sampleWords()), statuses, nil)
	progress := app.NewProgressService(statuses)

	rest := NewRESTHandler(sims, vocab, progress, app.BuildConfig{SentenceCompletion: 2, Restatement: 1}, nil)
	router := NewRouter(rest, NewWSHandler(sims, nil), RouterOptions{})

	srv := &testServer{Server: httptest.NewServer(router), simulations: sims, answers: answers, runs: runs}
	t.Cleanup(srv.Close)
	return srv
}

func sampleQuestions() []domain.Question {
	now := time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)
	q := func(id string, typ domain.QuestionType, correct int) domain.Question {
		return domain.Question{
			ID:            id,
			Text:          "question " + id,
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: correct,
			Type:          typ,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return []domain.Question{
		q("sc-1", domain.SentenceCompletion, 0),
		q("sc-2", domain.SentenceCompletion, 1),
		q("rs-1", domain.Restatement, 2),
	}
}

func sampleWords() []domain.Word {
	return []domain.Word{
		{ID: "w1", Word: "abundant", Category: "adjectives"},
		{ID: "w2", Word: "postpone", Category: "verbs"},
	}
}
