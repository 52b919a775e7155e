package app

import (
	"context"
	"fmt"
	"sort"

	"english-practice-service/internal/domain"
	"go.uber.org/zap"
)

// WordRepository lists the vocabulary catalog.
type WordRepository interface {
	ListWords(ctx context.Context) ([]domain.Word, error)
}

// StatusRepository persists sparse per-user status maps, one map per kind.
// Setting an empty status removes the entry.
type StatusRepository interface {
	GetStatuses(ctx context.Context, userID string, kind domain.ProgressKind) (map[string]string, error)
	SetStatus(ctx context.Context, userID string, kind domain.ProgressKind, entityID, status string) error
}

// GroupProgress is the learned share of a group of entities.
type GroupProgress struct {
	Done       int `json:"done"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// VocabularyProgress summarizes a user's vocabulary.
type VocabularyProgress struct {
	GroupProgress
	Categories map[string]GroupProgress `json:"categories"`
}

// VocabularyService tracks per-user word status.
type VocabularyService struct {
	words    WordRepository
	statuses StatusRepository
	log      *zap.Logger
}

func NewVocabularyService(words WordRepository, statuses StatusRepository, log *zap.Logger) *VocabularyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VocabularyService{words: words, statuses: statuses, log: log}
}

// GetWordStatus returns the user's stored (non-default) word statuses.
func (s *VocabularyService) GetWordStatus(ctx context.Context, userID string) (map[string]domain.WordStatus, error) {
	raw, err := s.statuses.GetStatuses(ctx, userID, domain.KindWords)
	if err != nil {
		return nil, fmt.Errorf("get word status: %w", err)
	}
	out := make(map[string]domain.WordStatus, len(raw))
	for id, v := range raw {
		if st := domain.WordStatus(v); st.Valid() {
			out[id] = st
		}
	}
	return out, nil
}

// SetWordStatus stores status for one word.
func (s *VocabularyService) SetWordStatus(ctx context.Context, userID, wordID string, status domain.WordStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	stored := string(status)
	if status == status.Default() {
		stored = ""
	}
	if err := s.statuses.SetStatus(ctx, userID, domain.KindWords, wordID, stored); err != nil {
		s.log.Error("set word status", zap.String("user_id", userID), zap.String("word_id", wordID), zap.Error(err))
		return fmt.Errorf("set word status: %w", err)
	}
	return nil
}

// Words returns the catalog with the user's statuses, optionally limited to a category.
func (s *VocabularyService) Words(ctx context.Context, userID, category string) ([]domain.Word, error) {
	words, tracker, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Word, 0, len(words))
	for _, w := range words {
		if category != "" && w.Category != category {
			continue
		}
		w.Status = tracker.Status(w.ID)
		out = append(out, w)
	}
	return out, nil
}

// CycleWord advances one word through to_learn -> learning -> learned -> to_learn.
func (s *VocabularyService) CycleWord(ctx context.Context, userID, wordID string) (domain.Word, error) {
	words, tracker, err := s.load(ctx, userID)
	if err != nil {
		return domain.Word{}, err
	}
	var word *domain.Word
	for i := range words {
		if words[i].ID == wordID {
			word = &words[i]
			break
		}
	}
	if word == nil {
		return domain.Word{}, domain.ErrWordNotFound
	}

	next := tracker.Cycle(wordID)
	if err := s.SetWordStatus(ctx, userID, wordID, next); err != nil {
		return domain.Word{}, err
	}
	word.Status = next
	return *word, nil
}

// Progress returns the learned percentage overall and per category.
func (s *VocabularyService) Progress(ctx context.Context, userID string) (VocabularyProgress, error) {
	words, tracker, err := s.load(ctx, userID)
	if err != nil {
		return VocabularyProgress{}, err
	}

	all := make([]string, 0, len(words))
	byCategory := make(map[string][]string)
	for _, w := range words {
		all = append(all, w.ID)
		byCategory[w.Category] = append(byCategory[w.Category], w.ID)
	}

	progress := VocabularyProgress{
		GroupProgress: groupProgress(tracker, all),
		Categories:    make(map[string]GroupProgress, len(byCategory)),
	}
	for category, ids := range byCategory {
		progress.Categories[category] = groupProgress(tracker, ids)
	}
	return progress, nil
}

func (s *VocabularyService) load(ctx context.Context, userID string) ([]domain.Word, *Tracker[domain.WordStatus], error) {
	words, err := s.words.ListWords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list words: %w", err)
	}
	sort.SliceStable(words, func(i, j int) bool { return words[i].ID < words[j].ID })
	statuses, err := s.GetWordStatus(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return words, NewTracker(statuses), nil
}

func groupProgress[S Cyclic[S]](tracker *Tracker[S], ids []string) GroupProgress {
	return GroupProgress{Done: tracker.Done(ids), Total: len(ids), Percentage: tracker.Percentage(ids)}
}
