package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"english-practice-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestionRepository lists questions from the question store.
type QuestionRepository interface {
	ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}

// SimulationRepository stores built simulations.
type SimulationRepository interface {
	CreateSimulation(ctx context.Context, sim domain.Simulation) (string, error)
	GetSimulation(ctx context.Context, id string) (domain.Simulation, error)
}

// AnswerRepository stores finished runs.
type AnswerRepository interface {
	SaveUserAnswer(ctx context.Context, answer domain.UserAnswer) error
	GetUserHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
}

// RunRegistry tracks runners that are in progress (in-memory, Redis, etc).
type RunRegistry interface {
	Put(runID string, runner *Runner)
	Get(runID string) (*Runner, bool)
	Delete(runID string)
}

// EventPublisher announces domain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// EventSimulationFinished is published after a run result was stored.
const EventSimulationFinished = "simulation.finished"

// SimulationFinished is the payload of EventSimulationFinished.
type SimulationFinished struct {
	RunID        string    `json:"runId"`
	UserID       string    `json:"userId"`
	SimulationID string    `json:"simulationId"`
	Score        int       `json:"score"`
	Questions    int       `json:"questions"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// SimulationDeps wires a SimulationService. Publisher, Clock, Logger and
// PersistTimeout are optional.
type SimulationDeps struct {
	Questions      QuestionRepository
	Simulations    SimulationRepository
	Answers        AnswerRepository
	Runs           RunRegistry
	Builder        *Builder
	Publisher      EventPublisher
	Clock          Clock
	Logger         *zap.Logger
	PersistTimeout time.Duration
}

// SimulationService contains the simulation use cases.
type SimulationService struct {
	questions   QuestionRepository
	simulations SimulationRepository
	answers     AnswerRepository
	runs        RunRegistry
	builder     *Builder
	publisher   EventPublisher
	clock       Clock
	log         *zap.Logger
	persistTTL  time.Duration
	newID       func() string
}

func NewSimulationService(deps SimulationDeps) *SimulationService {
	s := &SimulationService{
		questions:   deps.Questions,
		simulations: deps.Simulations,
		answers:     deps.Answers,
		runs:        deps.Runs,
		builder:     deps.Builder,
		publisher:   deps.Publisher,
		clock:       deps.Clock,
		log:         deps.Logger,
		persistTTL:  deps.PersistTimeout,
		newID:       uuid.NewString,
	}
	if s.builder == nil {
		s.builder = NewBuilder(nil, nil)
	}
	if s.clock == nil {
		s.clock = SystemClock
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// ListQuestions returns the questions matching filter.
func (s *SimulationService) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.ErrInvalidQuestionType
	}
	return s.questions.ListQuestions(ctx, filter)
}

// CreateSimulation builds a simulation from the full question pool and stores it.
func (s *SimulationService) CreateSimulation(ctx context.Context, cfg BuildConfig) (domain.Simulation, error) {
	pool, err := s.questions.ListQuestions(ctx, domain.QuestionFilter{})
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("list question pool: %w", err)
	}
	sim := s.builder.Build(cfg, pool)
	if sim.Name == "" {
		sim.Name = "Simulation"
	}
	return s.store(ctx, sim)
}

// CreateQuiz builds a single-stage quiz of one question type and stores it.
func (s *SimulationService) CreateQuiz(ctx context.Context, cfg QuizConfig) (domain.Simulation, error) {
	if !cfg.Type.Valid() {
		return domain.Simulation{}, domain.ErrInvalidQuestionType
	}
	pool, err := s.questions.ListQuestions(ctx, domain.QuestionFilter{Type: cfg.Type})
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("list question pool: %w", err)
	}
	sim, err := s.builder.BuildQuiz(cfg, pool)
	if err != nil {
		return domain.Simulation{}, err
	}
	if sim.Name == "" {
		sim.Name = "Quiz"
	}
	return s.store(ctx, sim)
}

func (s *SimulationService) store(ctx context.Context, sim domain.Simulation) (domain.Simulation, error) {
	now := s.clock.Now().UTC()
	sim.ID = s.newID()
	sim.CreatedAt = now
	sim.UpdatedAt = now

	id, err := s.simulations.CreateSimulation(ctx, sim)
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("create simulation: %w", err)
	}
	sim.ID = id
	s.log.Info("simulation created",
		zap.String("simulation_id", id),
		zap.Int("stages", len(sim.Stages)),
		zap.Int("questions", sim.QuestionCount()))
	return sim, nil
}

// GetSimulation returns domain.ErrSimulationNotFound for unknown ids.
func (s *SimulationService) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	return s.simulations.GetSimulation(ctx, id)
}

// StartRun loads a simulation and starts a runner for userID. The runner
// stores its result once, when the last stage is submitted or times out.
func (s *SimulationService) StartRun(ctx context.Context, userID, simulationID string) (*Runner, error) {
	sim, err := s.simulations.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}

	runID := s.newID()
	recorder := RecorderFunc(func(ctx context.Context, result RunResult) error {
		return s.recordResult(ctx, runID, userID, sim.ID, result)
	})
	opts := []RunnerOption{
		WithRunID(runID),
		WithClock(s.clock),
		WithRecorder(recorder),
		WithLogger(s.log.With(zap.String("user_id", userID))),
	}
	if s.persistTTL > 0 {
		opts = append(opts, WithPersistTimeout(s.persistTTL))
	}
	runner := NewRunner(sim, opts...)
	s.runs.Put(runID, runner)

	if err := runner.Start(ctx); err != nil {
		// Only a run without stages persists on start; its score is still on the snapshot.
		s.log.Warn("simulation run start", zap.String("run_id", runID), zap.Error(err))
	}
	return runner, nil
}

// Run returns an in-progress runner.
func (s *SimulationService) Run(runID string) (*Runner, error) {
	runner, ok := s.runs.Get(runID)
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return runner, nil
}

// EndRun tears a runner down and forgets it.
func (s *SimulationService) EndRun(runID string) {
	runner, ok := s.runs.Get(runID)
	if !ok {
		return
	}
	runner.Close()
	s.runs.Delete(runID)
}

// History returns the user's finished runs, newest first.
func (s *SimulationService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	entries, err := s.answers.GetUserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *SimulationService) recordResult(ctx context.Context, runID, userID, simulationID string, result RunResult) error {
	answer := domain.UserAnswer{
		UserID:       userID,
		SimulationID: simulationID,
		Answers:      result.Answers,
		Score:        result.Score,
		Timestamp:    result.FinishedAt.UTC(),
	}
	if err := s.answers.SaveUserAnswer(ctx, answer); err != nil {
		return fmt.Errorf("save user answer: %w", err)
	}

	if s.publisher != nil {
		event := SimulationFinished{
			RunID:        runID,
			UserID:       userID,
			SimulationID: simulationID,
			Score:        result.Score,
			Questions:    result.Total,
			FinishedAt:   answer.Timestamp,
		}
		if err := s.publisher.Publish(ctx, EventSimulationFinished, event); err != nil {
			s.log.Warn("publish simulation finished", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return nil
}
