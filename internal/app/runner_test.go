package app_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"english-practice-service/internal/app"
	"english-practice-service/internal/domain"
)

type recordingRecorder struct {
	mu      sync.Mutex
	results []app.RunResult
	err     error
}

func (r *recordingRecorder) RecordResult(_ context.Context, result app.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func (r *recordingRecorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func startRunner(t *testing.T, sim domain.Simulation, rec app.ResultRecorder) (*app.Runner, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	runner := app.NewRunner(sim, app.WithRunID("run-1"), app.WithClock(clock), app.WithRecorder(rec))
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(runner.Close)
	return runner, clock
}

func TestRunnerFullRunScoresAndPersistsOnce(t *testing.T) {
	rec := &recordingRecorder{}
	runner, _ := startRunner(t, twoStageSimulation(), rec)

	answerStage(t, runner, 0, 1)
	if err := runner.SubmitStage(); err != nil {
		t.Fatalf("submit stage 1: %v", err)
	}
	snap := runner.Snapshot()
	if snap.StageIndex != 1 || snap.QuestionIndex != 0 {
		t.Fatalf("expected stage 2 question 1, got stage %d question %d", snap.StageIndex, snap.QuestionIndex)
	}
	if snap.TimeRemaining != 90 {
		t.Fatalf("expected fresh 90s budget, got %d", snap.TimeRemaining)
	}

	answerStage(t, runner, 0, 0)
	if err := runner.SubmitStage(); err != nil {
		t.Fatalf("submit stage 2: %v", err)
	}

	result, ok := runner.Result()
	if !ok {
		t.Fatalf("expected finished run")
	}
	if result.Score != 75 {
		t.Fatalf("expected score 75, got %d", result.Score)
	}
	if len(result.Answers) != 4 {
		t.Fatalf("expected 4 flattened answers, got %d", len(result.Answers))
	}
	if !reflect.DeepEqual(result.StageCorrect, []int{2, 1}) {
		t.Fatalf("unexpected per-stage correct %v", result.StageCorrect)
	}
	if rec.calls() != 1 {
		t.Fatalf("expected one persistence call, got %d", rec.calls())
	}

	snap = runner.Snapshot()
	if !snap.Finished || !snap.Persisted || snap.Result == nil || snap.Result.Score != 75 {
		t.Fatalf("unexpected final snapshot %+v", snap)
	}
	if err := runner.SubmitStage(); !errors.Is(err, domain.ErrRunFinished) {
		t.Fatalf("expected finished error, got %v", err)
	}
	if rec.calls() != 1 {
		t.Fatalf("expected still one persistence call, got %d", rec.calls())
	}
}

func TestRunnerRejectsIncompleteSubmit(t *testing.T) {
	runner, _ := startRunner(t, twoStageSimulation(), &recordingRecorder{})

	if err := runner.SelectAnswer(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	before := runner.Snapshot()

	if err := runner.SubmitStage(); !errors.Is(err, domain.ErrIncompleteStage) {
		t.Fatalf("expected incomplete stage error, got %v", err)
	}
	if after := runner.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed on rejected submit:\nbefore %+v\nafter  %+v", before, after)
	}

	if err := runner.ForceSubmit(); err != nil {
		t.Fatalf("force submit: %v", err)
	}
	snap := runner.Snapshot()
	if snap.StageIndex != 1 || !snap.Submitted[0] {
		t.Fatalf("expected forced move to stage 2, got %+v", snap)
	}
	if snap.Answers[0][1].IsAnswered() {
		t.Fatalf("expected skipped slot to stay unanswered")
	}
}

func TestRunnerNavigationIsClamped(t *testing.T) {
	runner, _ := startRunner(t, twoStageSimulation(), nil)

	if err := runner.Previous(); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if got := runner.Snapshot().QuestionIndex; got != 0 {
		t.Fatalf("expected clamp at 0, got %d", got)
	}
	_ = runner.Next()
	_ = runner.Next()
	if got := runner.Snapshot().QuestionIndex; got != 1 {
		t.Fatalf("expected clamp at last question, got %d", got)
	}

	if err := runner.SelectAnswer(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := runner.SelectAnswer(3); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if i, _ := runner.Snapshot().Answers[0][1].Index(); i != 3 {
		t.Fatalf("expected overwrite to option 3, got %d", i)
	}
	if err := runner.SelectAnswer(4); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	if err := runner.GoTo(0); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if err := runner.GoTo(5); !errors.Is(err, domain.ErrQuestionIndexOutOfRange) {
		t.Fatalf("expected question index error, got %v", err)
	}
	if got := runner.Snapshot().QuestionIndex; got != 0 {
		t.Fatalf("expected question 0, got %d", got)
	}
}

func TestRunnerTimeoutAdvancesAndFinishes(t *testing.T) {
	rec := &recordingRecorder{}
	runner, clock := startRunner(t, twoStageSimulation(), rec)

	clock.Advance(15 * time.Second)
	if got := runner.Snapshot().TimeRemaining; got != 45 {
		t.Fatalf("expected 45s left, got %d", got)
	}

	_ = runner.SelectAnswer(0)
	clock.Advance(45 * time.Second)

	snap := runner.Snapshot()
	if snap.StageIndex != 1 || !snap.Submitted[0] {
		t.Fatalf("expected timeout to move to stage 2, got %+v", snap)
	}

	clock.Advance(90 * time.Second)
	result, ok := runner.Result()
	if !ok {
		t.Fatalf("expected last stage timeout to finish the run")
	}
	// One correct answer out of four.
	if result.Score != 25 {
		t.Fatalf("expected score 25, got %d", result.Score)
	}
	if rec.calls() != 1 {
		t.Fatalf("expected one persistence call, got %d", rec.calls())
	}
	if clock.active() != 0 {
		t.Fatalf("expected no armed timers after finish, got %d", clock.active())
	}
}

func TestRunnerIgnoresStaleTimer(t *testing.T) {
	runner, clock := startRunner(t, twoStageSimulation(), &recordingRecorder{})

	answerStage(t, runner, 0, 1)
	if err := runner.SubmitStage(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if clock.active() != 1 {
		t.Fatalf("expected only the stage 2 timer armed, got %d", clock.active())
	}

	before := runner.Snapshot()
	clock.fireStopped(0)
	if after := runner.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("stale timer changed state")
	}
}

func TestRunnerSelectAfterFinishIsNoop(t *testing.T) {
	sim := twoStageSimulation()
	sim.Stages = sim.Stages[:1]
	runner, _ := startRunner(t, sim, &recordingRecorder{})

	answerStage(t, runner, 0, 1)
	if err := runner.SubmitStage(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	before := runner.Snapshot()

	if err := runner.SelectAnswer(2); !errors.Is(err, domain.ErrStageSubmitted) {
		t.Fatalf("expected stage submitted, got %v", err)
	}
	if err := runner.Next(); !errors.Is(err, domain.ErrStageSubmitted) {
		t.Fatalf("expected navigation disabled, got %v", err)
	}
	if after := runner.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed after finish")
	}
}

func TestRunnerPersistenceFailureKeepsScore(t *testing.T) {
	rec := &recordingRecorder{err: errors.New("store down")}
	sim := twoStageSimulation()
	sim.Stages = sim.Stages[:1]
	runner, _ := startRunner(t, sim, rec)

	answerStage(t, runner, 0, 0)
	err := runner.SubmitStage()
	if err == nil {
		t.Fatalf("expected persistence error")
	}

	snap := runner.Snapshot()
	if !snap.Finished || snap.Result == nil || snap.Result.Score != 50 {
		t.Fatalf("expected score 50 despite failure, got %+v", snap)
	}
	if snap.Persisted || snap.PersistError == "" {
		t.Fatalf("expected persistence failure on snapshot, got %+v", snap)
	}
	if rec.calls() != 1 {
		t.Fatalf("persistence must not be retried, got %d calls", rec.calls())
	}
}

func TestRunnerEmptyStagesAndSimulation(t *testing.T) {
	sim := domain.Simulation{ID: "sim-empty", Stages: []domain.Stage{
		{Type: domain.Restatement, Questions: []domain.Question{}, TimeInSeconds: 30},
		{Type: domain.SentenceCompletion, Questions: []domain.Question{question("q1", domain.SentenceCompletion, 2)}, TimeInSeconds: 30},
	}}
	runner, _ := startRunner(t, sim, &recordingRecorder{})

	if !runner.StageComplete() {
		t.Fatalf("expected empty stage to be complete")
	}
	if err := runner.SubmitStage(); err != nil {
		t.Fatalf("submit empty stage: %v", err)
	}
	_ = runner.SelectAnswer(2)
	if err := runner.SubmitStage(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result, _ := runner.Result(); result.Score != 100 || len(result.Answers) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	rec := &recordingRecorder{}
	empty, _ := startRunner(t, domain.Simulation{ID: "none"}, rec)
	result, ok := empty.Result()
	if !ok || result.Score != 0 || len(result.Answers) != 0 {
		t.Fatalf("expected immediate finish with score 0, got %+v (%v)", result, ok)
	}
	if rec.calls() != 1 {
		t.Fatalf("expected empty run persisted once, got %d", rec.calls())
	}
}

func TestRunnerCloseCancelsTimerAndSubscribers(t *testing.T) {
	clock := newFakeClock()
	runner := app.NewRunner(twoStageSimulation(), app.WithClock(clock))
	if err := runner.SelectAnswer(0); !errors.Is(err, domain.ErrRunNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	_ = runner.Start(context.Background())

	updates, cancel := runner.Subscribe()
	defer cancel()
	<-updates // initial snapshot

	_ = runner.SelectAnswer(1)
	update := <-updates
	if i, _ := update.Answers[0][0].Index(); i != 1 {
		t.Fatalf("expected update with selection, got %+v", update.Answers)
	}

	runner.Close()
	if clock.active() != 0 {
		t.Fatalf("expected timer cancelled on close")
	}
	if _, ok := <-updates; ok {
		t.Fatalf("expected subscriber channel closed")
	}

	clock.Advance(time.Hour)
	if runner.Snapshot().Finished {
		t.Fatalf("closed run must not advance")
	}
	if err := runner.ForceSubmit(); !errors.Is(err, domain.ErrRunClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func answerStage(t *testing.T, runner *app.Runner, options ...int) {
	t.Helper()
	for i, option := range options {
		if err := runner.GoTo(i); err != nil {
			t.Fatalf("goto %d: %v", i, err)
		}
		if err := runner.SelectAnswer(option); err != nil {
			t.Fatalf("select %d: %v", option, err)
		}
	}
}
