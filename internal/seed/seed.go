package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"english-practice-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var defaultData []byte

// Catalog is where seed content is written.
type Catalog interface {
	AddQuestions(ctx context.Context, questions ...domain.Question) error
	AddWords(ctx context.Context, words ...domain.Word) error
}

// Data is the seed content.
type Data struct {
	Questions []domain.Question
	Words     []domain.Word
}

type questionEntry struct {
	ID            string   `yaml:"id"`
	Text          string   `yaml:"text"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correctAnswer"`
	Type          string   `yaml:"type"`
	PassageID     string   `yaml:"passageId"`
}

type document struct {
	Questions []questionEntry `yaml:"questions"`
	Words     []domain.Word   `yaml:"words"`
}

// Default parses the bundled sample content.
func Default(now time.Time) (Data, error) {
	return Parse(defaultData, now)
}

// Parse decodes seed YAML and stamps questions with now.
func Parse(raw []byte, now time.Time) (Data, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}

	data := Data{Words: doc.Words}
	for _, e := range doc.Questions {
		t, err := domain.ParseQuestionType(e.Type)
		if err != nil {
			return Data{}, fmt.Errorf("question %s: %w", e.ID, err)
		}
		if e.CorrectAnswer < 0 || e.CorrectAnswer >= len(e.Options) {
			return Data{}, fmt.Errorf("question %s: %w", e.ID, domain.ErrOptionOutOfRange)
		}
		if t == domain.TextAndQuestions && e.PassageID == "" {
			return Data{}, fmt.Errorf("question %s: passage question without passageId", e.ID)
		}
		data.Questions = append(data.Questions, domain.Question{
			ID:            e.ID,
			Text:          e.Text,
			Options:       e.Options,
			CorrectAnswer: e.CorrectAnswer,
			Type:          t,
			PassageID:     e.PassageID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return data, nil
}

// Apply writes data into catalog.
func Apply(ctx context.Context, catalog Catalog, data Data) error {
	if len(data.Questions) > 0 {
		if err := catalog.AddQuestions(ctx, data.Questions...); err != nil {
			return fmt.Errorf("seed questions: %w", err)
		}
	}
	if len(data.Words) > 0 {
		if err := catalog.AddWords(ctx, data.Words...); err != nil {
			return fmt.Errorf("seed words: %w", err)
		}
	}
	return nil
}
