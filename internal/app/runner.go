package app

import (
	"context"
	"math"
	"sync"
	"time"

	"english-practice-service/internal/domain"
	"go.uber.org/zap"
)

// Clock abstracts time so countdowns can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending countdown callback.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// RunResult is the outcome of a finished run.
type RunResult struct {
	Score        int             `json:"score"`
	Answers      []domain.Answer `json:"answers"`
	StageCorrect []int           `json:"stageCorrect"`
	Total        int             `json:"total"`
	FinishedAt   time.Time       `json:"finishedAt"`
}

// ResultRecorder persists the result of a finished run.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result RunResult) error
}

// RecorderFunc adapts a function to ResultRecorder.
type RecorderFunc func(ctx context.Context, result RunResult) error

func (f RecorderFunc) RecordResult(ctx context.Context, result RunResult) error {
	return f(ctx, result)
}

// Snapshot is a read-only copy of run state for presentation.
type Snapshot struct {
	RunID         string            `json:"runId"`
	SimulationID  string            `json:"simulationId"`
	StageIndex    int               `json:"stageIndex"`
	StageCount    int               `json:"stageCount"`
	StageType     string            `json:"stageType,omitempty"`
	QuestionIndex int               `json:"questionIndex"`
	TimeRemaining int               `json:"timeRemaining"`
	Answers       [][]domain.Answer `json:"answers"`
	Submitted     []bool            `json:"submitted"`
	Finished      bool              `json:"finished"`
	Result        *RunResult        `json:"result,omitempty"`
	Persisted     bool              `json:"persisted"`
	PersistError  string            `json:"persistError,omitempty"`
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithRunID(id string) RunnerOption { return func(r *Runner) { r.id = id } }

func WithClock(clock Clock) RunnerOption { return func(r *Runner) { r.clock = clock } }

func WithRecorder(rec ResultRecorder) RunnerOption { return func(r *Runner) { r.recorder = rec } }

func WithLogger(log *zap.Logger) RunnerOption { return func(r *Runner) { r.log = log } }

func WithPersistTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.persistTimeout = d }
}

// Runner drives one user through the stages of a simulation.
//
// Every stage has a countdown armed while it is active. Expiry submits the
// stage as if the user had forced it. Only one timer is armed at a time and
// it is stopped on every transition out of the stage it was armed for.
type Runner struct {
	id             string
	sim            domain.Simulation
	clock          Clock
	recorder       ResultRecorder
	log            *zap.Logger
	persistTimeout time.Duration

	mu          sync.Mutex
	ctx         context.Context
	started     bool
	closed      bool
	stage       int
	question    int
	deadline    time.Time
	timer       Timer
	answers     [][]domain.Answer
	submitted   []bool
	finished    bool
	result      *RunResult
	persisted   bool
	persistErr  error
	subscribers map[chan Snapshot]struct{}
}

func NewRunner(sim domain.Simulation, opts ...RunnerOption) *Runner {
	r := &Runner{
		sim:            sim,
		clock:          SystemClock,
		log:            zap.NewNop(),
		persistTimeout: 10 * time.Second,
		answers:        make([][]domain.Answer, len(sim.Stages)),
		submitted:      make([]bool, len(sim.Stages)),
		subscribers:    make(map[chan Snapshot]struct{}),
	}
	for i, stage := range sim.Stages {
		r.answers[i] = make([]domain.Answer, len(stage.Questions))
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("run_id", r.id), zap.String("simulation_id", sim.ID))
	return r
}

// ID returns the run identifier.
func (r *Runner) ID() string { return r.id }

// Simulation returns the simulation being run.
func (r *Runner) Simulation() domain.Simulation { return r.sim }

// Start arms the first stage's countdown. A simulation without stages
// finishes immediately with a score of 0.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrRunClosed
	}
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.ctx = ctx

	var result *RunResult
	if len(r.sim.Stages) == 0 {
		result = r.finishLocked()
	} else {
		r.armLocked()
	}
	r.broadcastLocked()
	r.mu.Unlock()

	r.log.Info("simulation run started", zap.Int("stages", len(r.sim.Stages)))
	if result != nil {
		return r.persist(*result)
	}
	return nil
}

// SelectAnswer records option for the current question, replacing any earlier selection.
func (r *Runner) SelectAnswer(option int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editableLocked(); err != nil {
		return err
	}
	q := r.sim.Stages[r.stage].Questions
	if r.question >= len(q) {
		return domain.ErrQuestionIndexOutOfRange
	}
	if option < 0 || option >= len(q[r.question].Options) {
		return domain.ErrOptionOutOfRange
	}
	r.answers[r.stage][r.question] = domain.Answered(option)
	r.broadcastLocked()
	return nil
}

// Next moves to the following question, staying put on the last one.
func (r *Runner) Next() error {
	return r.move(1)
}

// Previous moves to the preceding question, staying put on the first one.
func (r *Runner) Previous() error {
	return r.move(-1)
}

// GoTo jumps to a question of the current stage.
func (r *Runner) GoTo(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editableLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(r.sim.Stages[r.stage].Questions) {
		return domain.ErrQuestionIndexOutOfRange
	}
	if index != r.question {
		r.question = index
		r.broadcastLocked()
	}
	return nil
}

func (r *Runner) move(step int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editableLocked(); err != nil {
		return err
	}
	next := r.question + step
	if next < 0 || next >= len(r.sim.Stages[r.stage].Questions) {
		return nil
	}
	r.question = next
	r.broadcastLocked()
	return nil
}

// StageComplete reports whether every question of the current stage has an answer.
func (r *Runner) StageComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stageCompleteLocked()
}

// SubmitStage submits the current stage once every question is answered and
// moves to the next stage, or finishes the run on the last one. The returned
// error reports a persistence failure when the run finished; the result is
// available from Snapshot either way.
func (r *Runner) SubmitStage() error {
	return r.submit(false)
}

// ForceSubmit submits the current stage regardless of unanswered questions.
// Unanswered slots count as incorrect.
func (r *Runner) ForceSubmit() error {
	return r.submit(true)
}

func (r *Runner) submit(force bool) error {
	r.mu.Lock()
	if err := r.activeLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	if !force && !r.stageCompleteLocked() {
		r.mu.Unlock()
		return domain.ErrIncompleteStage
	}
	result := r.advanceLocked()
	r.broadcastLocked()
	r.mu.Unlock()

	if result != nil {
		return r.persist(*result)
	}
	return nil
}

// expire fires when the countdown armed for stage runs out.
func (r *Runner) expire(stage int) {
	r.mu.Lock()
	if r.closed || r.finished || r.stage != stage || r.submitted[stage] {
		r.mu.Unlock()
		return
	}
	r.log.Info("stage time expired", zap.Int("stage", stage))
	result := r.advanceLocked()
	r.broadcastLocked()
	r.mu.Unlock()

	if result != nil {
		_ = r.persist(*result)
	}
}

// Close tears the run down: the countdown is cancelled and subscribers are released.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.disarmLocked()
	for ch := range r.subscribers {
		delete(r.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Result returns the final result once the run has finished.
func (r *Runner) Result() (RunResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return RunResult{}, false
	}
	return *r.result, true
}

// Subscribe returns a channel receiving a snapshot after every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (r *Runner) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}
	ch <- r.snapshotLocked()
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *Runner) activeLocked() error {
	switch {
	case r.closed:
		return domain.ErrRunClosed
	case !r.started:
		return domain.ErrRunNotStarted
	case r.finished:
		return domain.ErrRunFinished
	}
	return nil
}

func (r *Runner) editableLocked() error {
	if err := r.activeLocked(); err != nil {
		if err == domain.ErrRunFinished {
			return domain.ErrStageSubmitted
		}
		return err
	}
	if r.submitted[r.stage] {
		return domain.ErrStageSubmitted
	}
	return nil
}

func (r *Runner) stageCompleteLocked() bool {
	if r.stage >= len(r.answers) {
		return true
	}
	for _, a := range r.answers[r.stage] {
		if !a.IsAnswered() {
			return false
		}
	}
	return true
}

// advanceLocked marks the current stage submitted and moves on. It returns
// the result when this transition finished the run.
func (r *Runner) advanceLocked() *RunResult {
	r.disarmLocked()
	r.submitted[r.stage] = true
	if r.stage == len(r.sim.Stages)-1 {
		return r.finishLocked()
	}
	r.stage++
	r.question = 0
	r.armLocked()
	return nil
}

func (r *Runner) finishLocked() *RunResult {
	r.disarmLocked()
	r.finished = true

	correct := make([]int, len(r.sim.Stages))
	for i, stage := range r.sim.Stages {
		correct[i] = StageCorrect(stage, r.answers[i])
	}
	result := RunResult{
		Score:        Score(r.sim.Stages, r.answers),
		Answers:      Flatten(r.answers),
		StageCorrect: correct,
		Total:        r.sim.QuestionCount(),
		FinishedAt:   r.clock.Now(),
	}
	r.result = &result
	r.log.Info("simulation run finished", zap.Int("score", result.Score), zap.Int("questions", result.Total))
	return &result
}

// armLocked starts the countdown for the current stage. Stages without a
// positive budget are untimed.
func (r *Runner) armLocked() {
	r.disarmLocked()
	secs := r.sim.Stages[r.stage].TimeInSeconds
	if secs <= 0 {
		r.deadline = time.Time{}
		return
	}
	budget := time.Duration(secs) * time.Second
	stage := r.stage
	r.deadline = r.clock.Now().Add(budget)
	r.timer = r.clock.AfterFunc(budget, func() { r.expire(stage) })
}

func (r *Runner) disarmLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.deadline = time.Time{}
}

// persist hands the result to the recorder. It runs at most once per run
// because only the finishing transition produces a result.
func (r *Runner) persist(result RunResult) error {
	var err error
	if r.recorder != nil {
		ctx := context.WithoutCancel(r.baseContext())
		if r.persistTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.persistTimeout)
			defer cancel()
		}
		err = r.recorder.RecordResult(ctx, result)
		if err != nil {
			r.log.Error("persist simulation result", zap.Error(err))
		}
	}

	r.mu.Lock()
	r.persisted = err == nil
	r.persistErr = err
	r.broadcastLocked()
	r.mu.Unlock()
	return err
}

func (r *Runner) baseContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

func (r *Runner) snapshotLocked() Snapshot {
	answers := make([][]domain.Answer, len(r.answers))
	for i, stageAnswers := range r.answers {
		answers[i] = append([]domain.Answer(nil), stageAnswers...)
	}
	snap := Snapshot{
		RunID:         r.id,
		SimulationID:  r.sim.ID,
		StageIndex:    r.stage,
		StageCount:    len(r.sim.Stages),
		QuestionIndex: r.question,
		TimeRemaining: r.remainingLocked(),
		Answers:       answers,
		Submitted:     append([]bool(nil), r.submitted...),
		Finished:      r.finished,
		Persisted:     r.persisted,
	}
	if r.stage < len(r.sim.Stages) {
		snap.StageType = string(r.sim.Stages[r.stage].Type)
	}
	if r.result != nil {
		result := *r.result
		snap.Result = &result
	}
	if r.persistErr != nil {
		snap.PersistError = r.persistErr.Error()
	}
	return snap
}

func (r *Runner) remainingLocked() int {
	if r.deadline.IsZero() {
		return 0
	}
	left := r.deadline.Sub(r.clock.Now())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func (r *Runner) broadcastLocked() {
	if len(r.subscribers) == 0 {
		return
	}
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so slow readers see the newest state.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
