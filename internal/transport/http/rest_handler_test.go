package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"english-practice-service/internal/app"
	"english-practice-service/internal/domain"
)

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestCreateAndFetchSimulation(t *testing.T) {
	srv := newTestServer(t)

	var created domain.Simulation
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/simulations", nil, &created); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	// defaults: one restatement stage, one sentence-completion stage
	if len(created.Stages) != 2 || created.Stages[0].Type != domain.Restatement || created.QuestionCount() != 3 {
		t.Fatalf("unexpected simulation %+v", created)
	}

	var fetched domain.Simulation
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/simulations/"+created.ID, nil, &fetched); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, fetched.ID)
	}

	if code := doJSON(t, http.MethodGet, srv.URL+"/api/simulations/missing", nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestCreateSimulationOverridesDefaults(t *testing.T) {
	srv := newTestServer(t)

	var created domain.Simulation
	code := doJSON(t, http.MethodPost, srv.URL+"/api/simulations", map[string]any{"name": "Mini", "sentenceCompletion": 5}, &created)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	// the request names sentence completion only; restatement keeps its default
	if created.Name != "Mini" || created.QuestionCount() != 3 {
		t.Fatalf("unexpected simulation %+v", created)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/api/simulations", map[string]int{"passages": -1}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative counts, got %d", code)
	}
}

func TestCreateQuiz(t *testing.T) {
	srv := newTestServer(t)

	var quiz domain.Simulation
	code := doJSON(t, http.MethodPost, srv.URL+"/api/quizzes", app.QuizConfig{Type: domain.SentenceCompletion, Count: 1}, &quiz)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if len(quiz.Stages) != 1 || len(quiz.Stages[0].Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/api/quizzes", map[string]any{"type": "essay", "count": 1}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid type, got %d", code)
	}
}

func TestListQuestions(t *testing.T) {
	srv := newTestServer(t)

	var questions []domain.Question
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/questions?type=sentence_completion", nil, &questions); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	if code := doJSON(t, http.MethodGet, srv.URL+"/api/questions?type=bogus", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestWordCycleAndProgress(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/users/u1"

	var word domain.Word
	if code := doJSON(t, http.MethodPost, base+"/words/w1/cycle", nil, &word); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if word.Status != domain.WordLearning {
		t.Fatalf("expected learning, got %s", word.Status)
	}
	doJSON(t, http.MethodPost, base+"/words/w1/cycle", nil, nil)

	var progress app.VocabularyProgress
	doJSON(t, http.MethodGet, base+"/progress", nil, &progress)
	if progress.Percentage != 50 || progress.Categories["adjectives"].Percentage != 100 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	var words []domain.Word
	doJSON(t, http.MethodGet, base+"/words?category=verbs", nil, &words)
	if len(words) != 1 || words[0].Status != domain.WordToLearn {
		t.Fatalf("unexpected verbs %+v", words)
	}

	if code := doJSON(t, http.MethodPost, base+"/words/nope/cycle", nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestTrackProgress(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/users/u1/progress"

	for i := 0; i < 2; i++ {
		if code := doJSON(t, http.MethodPost, base+"/tips/t1/cycle", nil, nil); code != http.StatusOK {
			t.Fatalf("cycle %d: expected 200, got %d", i, code)
		}
	}

	var resp struct {
		Statuses map[string]domain.TrackStatus `json:"statuses"`
		Group    app.GroupProgress             `json:"group"`
	}
	doJSON(t, http.MethodGet, base+"/tips?ids=t1,t2", nil, &resp)
	if resp.Statuses["t1"] != domain.TrackDone {
		t.Fatalf("expected t1 done, got %v", resp.Statuses)
	}
	if resp.Group.Done != 1 || resp.Group.Total != 2 || resp.Group.Percentage != 50 {
		t.Fatalf("unexpected group %+v", resp.Group)
	}

	if code := doJSON(t, http.MethodGet, base+"/recipes", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", code)
	}
}

func TestRunState(t *testing.T) {
	srv := newTestServer(t)

	var created domain.Simulation
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/simulations", nil, &created); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	runner, err := srv.simulations.StartRun(context.Background(), "u1", created.ID)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := runner.SelectAnswer(2); err != nil {
		t.Fatalf("select: %v", err)
	}

	var snap app.Snapshot
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/runs/"+runner.ID(), nil, &snap); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if snap.RunID != runner.ID() || snap.StageCount != 2 || snap.Finished {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if idx, ok := snap.Answers[0][0].Index(); !ok || idx != 2 {
		t.Fatalf("expected first answer 2, got %v", snap.Answers[0][0])
	}

	srv.simulations.EndRun(runner.ID())
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/runs/"+runner.ID(), nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after the run ended, got %d", code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrSimulationNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", domain.ErrWordNotFound), http.StatusNotFound},
		{domain.ErrInvalidQuestionType, http.StatusBadRequest},
		{domain.ErrIncompleteStage, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Fatalf("%v: expected %d, got %d", c.err, c.want, got)
		}
	}
}
