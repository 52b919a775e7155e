package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer is the recorded selection for one question slot: either an option
// index or Unanswered. The zero value is Unanswered.
type Answer struct {
	index    int
	answered bool
}

// Unanswered is the "no answer recorded" marker.
var Unanswered = Answer{}

// Answered records the selection of option i.
func Answered(i int) Answer {
	return Answer{index: i, answered: true}
}

// Index returns the selected option and whether one was recorded.
func (a Answer) Index() (int, bool) {
	return a.index, a.answered
}

// IsAnswered reports whether an option was selected.
func (a Answer) IsAnswered() bool {
	return a.answered
}

// Matches reports whether the answer selects the question's correct option.
func (a Answer) Matches(q Question) bool {
	return a.answered && a.index == q.CorrectAnswer
}

// Int returns the option index, or -1 when unanswered.
func (a Answer) Int() int {
	if !a.answered {
		return -1
	}
	return a.index
}

// AnswerFromInt is the inverse of Int: negative values are Unanswered.
func AnswerFromInt(v int) Answer {
	if v < 0 {
		return Unanswered
	}
	return Answered(v)
}

func (a Answer) String() string {
	if !a.answered {
		return "unanswered"
	}
	return fmt.Sprintf("option(%d)", a.index)
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.answered {
		return []byte("null"), nil
	}
	return json.Marshal(a.index)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Unanswered
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}
	*a = AnswerFromInt(i)
	return nil
}

// AnswersToInts encodes answers for integer storage.
func AnswersToInts(answers []Answer) []int {
	out := make([]int, len(answers))
	for i, a := range answers {
		out[i] = a.Int()
	}
	return out
}

// AnswersFromInts decodes answers from integer storage.
func AnswersFromInts(values []int) []Answer {
	out := make([]Answer, len(values))
	for i, v := range values {
		out[i] = AnswerFromInt(v)
	}
	return out
}
