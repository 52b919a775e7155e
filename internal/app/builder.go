package app

import (
	"math/rand"

	"english-practice-service/internal/domain"
)

// RandSource is the randomness the builder samples with. *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// globalRand uses the auto-seeded package source, which is safe for concurrent use.
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// StageBudgets maps a stage type to its countdown in seconds.
type StageBudgets map[domain.QuestionType]int

// DefaultStageBudgets are used for types missing from configuration.
var DefaultStageBudgets = StageBudgets{
	domain.TextAndQuestions:   20 * 60,
	domain.Restatement:        10 * 60,
	domain.SentenceCompletion: 10 * 60,
}

// BuildConfig requests a full simulation.
type BuildConfig struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	SentenceCompletion int    `json:"sentenceCompletion"`
	Restatement        int    `json:"restatement"`
	Passages           int    `json:"passages"`
}

// QuizConfig requests a single-stage quiz of one type. For text_and_questions
// one whole passage is used: PassageID when set, otherwise a random one.
type QuizConfig struct {
	Name      string              `json:"name"`
	Type      domain.QuestionType `json:"type"`
	Count     int                 `json:"count"`
	PassageID string              `json:"passageId"`
}

// Builder assembles simulations from a question pool.
type Builder struct {
	rnd     RandSource
	budgets StageBudgets
}

func NewBuilder(rnd RandSource, budgets StageBudgets) *Builder {
	if rnd == nil {
		rnd = globalRand{}
	}
	merged := make(StageBudgets, len(DefaultStageBudgets))
	for t, secs := range DefaultStageBudgets {
		merged[t] = secs
	}
	for t, secs := range budgets {
		if secs > 0 {
			merged[t] = secs
		}
	}
	return &Builder{rnd: rnd, budgets: merged}
}

// Build samples passages, restatement and sentence-completion questions
// without replacement. Counts larger than the pool yield what is available.
func (b *Builder) Build(cfg BuildConfig, pool []domain.Question) domain.Simulation {
	byType := partition(pool)

	stages := make([]domain.Stage, 0, cfg.Passages+2)
	if cfg.Passages > 0 {
		groups := groupByPassage(byType[domain.TextAndQuestions])
		for _, group := range sample(b.rnd, groups, cfg.Passages) {
			stages = append(stages, b.stage(domain.TextAndQuestions, group))
		}
	}
	if cfg.Restatement > 0 {
		picked := sample(b.rnd, byType[domain.Restatement], cfg.Restatement)
		stages = append(stages, b.stage(domain.Restatement, picked))
	}
	if cfg.SentenceCompletion > 0 {
		picked := sample(b.rnd, byType[domain.SentenceCompletion], cfg.SentenceCompletion)
		stages = append(stages, b.stage(domain.SentenceCompletion, picked))
	}

	return domain.Simulation{
		Name:        cfg.Name,
		Description: cfg.Description,
		Stages:      stages,
	}
}

// BuildQuiz builds exactly one stage of a single type.
func (b *Builder) BuildQuiz(cfg QuizConfig, pool []domain.Question) (domain.Simulation, error) {
	if !cfg.Type.Valid() {
		return domain.Simulation{}, domain.ErrInvalidQuestionType
	}
	questions := partition(pool)[cfg.Type]

	var picked []domain.Question
	if cfg.Type == domain.TextAndQuestions {
		groups := groupByPassage(questions)
		if cfg.PassageID != "" {
			for _, group := range groups {
				if group[0].PassageID == cfg.PassageID {
					picked = group
					break
				}
			}
		} else if chosen := sample(b.rnd, groups, 1); len(chosen) == 1 {
			picked = chosen[0]
		}
	} else {
		picked = sample(b.rnd, questions, cfg.Count)
	}

	return domain.Simulation{
		Name:   cfg.Name,
		Stages: []domain.Stage{b.stage(cfg.Type, picked)},
	}, nil
}

func (b *Builder) stage(t domain.QuestionType, questions []domain.Question) domain.Stage {
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.Stage{Type: t, Questions: questions, TimeInSeconds: b.budgets[t]}
}

func partition(pool []domain.Question) map[domain.QuestionType][]domain.Question {
	out := make(map[domain.QuestionType][]domain.Question)
	for _, q := range pool {
		out[q.Type] = append(out[q.Type], q)
	}
	return out
}

// groupByPassage keeps first-seen passage order and pool order within a passage.
func groupByPassage(questions []domain.Question) [][]domain.Question {
	index := make(map[string]int)
	var groups [][]domain.Question
	for _, q := range questions {
		i, ok := index[q.PassageID]
		if !ok {
			i = len(groups)
			index[q.PassageID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], q)
	}
	return groups
}

// sample shuffles a copy of items (Fisher-Yates) and returns the first n.
func sample[T any](rnd RandSource, items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
