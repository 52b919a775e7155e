package app_test

import (
	"sort"
	"sync"
	"time"

	"english-practice-service/internal/app"
	"english-practice-service/internal/domain"
)

// fakeClock fires timers only when Advance moves past their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// Advance moves time forward and runs due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// fireStopped runs a timer callback even after Stop, simulating a late fire.
func (c *fakeClock) fireStopped(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.fn()
}

// active counts timers that are armed and not yet fired.
func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// seqRand returns Intn results from a fixed script, then zeros.
type seqRand struct {
	values []int
}

func (r *seqRand) Intn(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func question(id string, t domain.QuestionType, correct int) domain.Question {
	return domain.Question{
		ID:            id,
		Text:          "Question " + id,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Type:          t,
	}
}

func passageQuestion(id, passage string, correct int) domain.Question {
	q := question(id, domain.TextAndQuestions, correct)
	q.PassageID = passage
	return q
}

// twoStageSimulation has two stages of questions with correct answers 0 and 1.
func twoStageSimulation() domain.Simulation {
	return domain.Simulation{
		ID:   "sim-1",
		Name: "Mock exam",
		Stages: []domain.Stage{
			{
				Type:          domain.SentenceCompletion,
				Questions:     []domain.Question{question("q1", domain.SentenceCompletion, 0), question("q2", domain.SentenceCompletion, 1)},
				TimeInSeconds: 60,
			},
			{
				Type:          domain.Restatement,
				Questions:     []domain.Question{question("q3", domain.Restatement, 0), question("q4", domain.Restatement, 1)},
				TimeInSeconds: 90,
			},
		},
	}
}
