package domain

import "time"

// QuestionType classifies questions and the stages that hold them.
type QuestionType string

const (
	SentenceCompletion QuestionType = "sentence_completion"
	Restatement        QuestionType = "restatement"
	TextAndQuestions   QuestionType = "text_and_questions"
)

// QuestionTypes lists every known type in simulation order.
var QuestionTypes = []QuestionType{TextAndQuestions, Restatement, SentenceCompletion}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case SentenceCompletion, Restatement, TextAndQuestions:
		return true
	}
	return false
}

// ParseQuestionType validates a raw type string.
func ParseQuestionType(raw string) (QuestionType, error) {
	t := QuestionType(raw)
	if !t.Valid() {
		return "", ErrInvalidQuestionType
	}
	return t, nil
}

// Question is a multiple choice question. CorrectAnswer indexes Options.
type Question struct {
	ID            string       `json:"id" bson:"_id"`
	Text          string       `json:"text" bson:"text"`
	Options       []string     `json:"options" bson:"options"`
	CorrectAnswer int          `json:"correctAnswer" bson:"correct_answer"`
	Type          QuestionType `json:"type" bson:"type"`
	PassageID     string       `json:"passageId,omitempty" bson:"passage_id,omitempty"`
	CreatedAt     time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time    `json:"updatedAt" bson:"updated_at"`
}

// QuestionFilter narrows a question listing. Zero values match everything.
type QuestionFilter struct {
	Type      QuestionType
	PassageID string
}

// Match reports whether q passes the filter.
func (f QuestionFilter) Match(q Question) bool {
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	if f.PassageID != "" && q.PassageID != f.PassageID {
		return false
	}
	return true
}

// Stage is one timed block of a simulation.
type Stage struct {
	Type          QuestionType `json:"type" bson:"type"`
	Questions     []Question   `json:"questions" bson:"questions"`
	TimeInSeconds int          `json:"timeInSeconds" bson:"time_in_seconds"`
}

// Simulation is an ordered list of stages executed strictly in order.
type Simulation struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Stages      []Stage   `json:"stages" bson:"stages"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// QuestionCount returns the total number of questions across stages.
func (s Simulation) QuestionCount() int {
	total := 0
	for _, stage := range s.Stages {
		total += len(stage.Questions)
	}
	return total
}

// UserAnswer is the persisted outcome of one finished run.
type UserAnswer struct {
	UserID       string    `json:"userId"`
	SimulationID string    `json:"simulationId"`
	Answers      []Answer  `json:"answers"`
	Score        int       `json:"score"`
	Timestamp    time.Time `json:"timestamp"`
}

// HistoryEntry is a past run as shown to its user.
type HistoryEntry struct {
	SimulationID string    `json:"simulationId"`
	Answers      []Answer  `json:"answers"`
	Score        int       `json:"score"`
	Timestamp    time.Time `json:"timestamp"`
}

// Word is a vocabulary entry. Status is per user and filled in by the vocabulary service.
type Word struct {
	ID                string     `json:"id" yaml:"id" bson:"_id"`
	Word              string     `json:"word" yaml:"word" bson:"word"`
	Definition        string     `json:"definition" yaml:"definition" bson:"definition"`
	Example           string     `json:"example" yaml:"example" bson:"example"`
	HebrewTranslation string     `json:"hebrewTranslation" yaml:"hebrewTranslation" bson:"hebrew_translation"`
	Category          string     `json:"category" yaml:"category" bson:"category"`
	Level             int        `json:"level" yaml:"level" bson:"level"`
	Status            WordStatus `json:"status" yaml:"-" bson:"-"`
}
