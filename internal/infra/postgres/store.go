package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"english-practice-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store keeps questions, simulations and user progress in Postgres.
// Documents (questions, simulations, words) are stored as JSONB.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM questions
		 WHERE ($1 = '' OR type = $1) AND ($2 = '' OR passage_id = $2)
		 ORDER BY created_at, id`,
		string(filter.Type), filter.PassageID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AddQuestions upserts questions by id.
func (s *Store) AddQuestions(ctx context.Context, questions ...domain.Question) error {
	batch := &pgx.Batch{}
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question %s: %w", q.ID, err)
		}
		batch.Queue(
			`INSERT INTO questions (id, type, passage_id, data, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, passage_id = EXCLUDED.passage_id,
			   data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			q.ID, string(q.Type), q.PassageID, data, orNow(q.CreatedAt), orNow(q.UpdatedAt))
	}
	return s.sendBatch(ctx, batch, len(questions))
}

func (s *Store) CreateSimulation(ctx context.Context, sim domain.Simulation) (string, error) {
	data, err := json.Marshal(sim)
	if err != nil {
		return "", fmt.Errorf("marshal simulation: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO simulations (id, data, created_at) VALUES ($1, $2, $3)`,
		sim.ID, data, orNow(sim.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert simulation: %w", err)
	}
	return sim.ID, nil
}

func (s *Store) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM simulations WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Simulation{}, domain.ErrSimulationNotFound
	}
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("load simulation: %w", err)
	}
	var sim domain.Simulation
	if err := json.Unmarshal(raw, &sim); err != nil {
		return domain.Simulation{}, fmt.Errorf("unmarshal simulation: %w", err)
	}
	return sim, nil
}

func (s *Store) SaveUserAnswer(ctx context.Context, answer domain.UserAnswer) error {
	data, err := json.Marshal(answer.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_answers (user_id, simulation_id, answers, score, created_at) VALUES ($1, $2, $3, $4, $5)`,
		answer.UserID, answer.SimulationID, data, answer.Score, orNow(answer.Timestamp))
	if err != nil {
		return fmt.Errorf("insert user answer: %w", err)
	}
	return nil
}

func (s *Store) GetUserHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT simulation_id, answers, score, created_at FROM user_answers
		 WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.HistoryEntry
	for rows.Next() {
		var (
			entry domain.HistoryEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.SimulationID, &raw, &entry.Score, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(raw, &entry.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (s *Store) GetStatuses(ctx context.Context, userID string, kind domain.ProgressKind) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_id, status FROM progress_statuses WHERE user_id=$1 AND kind=$2`,
		userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]string)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses[id] = status
	}
	return statuses, rows.Err()
}

func (s *Store) SetStatus(ctx context.Context, userID string, kind domain.ProgressKind, entityID, status string) error {
	var err error
	if status == "" {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM progress_statuses WHERE user_id=$1 AND kind=$2 AND entity_id=$3`,
			userID, string(kind), entityID)
	} else {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO progress_statuses (user_id, kind, entity_id, status, updated_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (user_id, kind, entity_id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`,
			userID, string(kind), entityID, status)
	}
	if err != nil {
		return fmt.Errorf("store status: %w", err)
	}
	return nil
}

func (s *Store) ListWords(ctx context.Context) ([]domain.Word, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM words ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var words []domain.Word
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		var w domain.Word
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("unmarshal word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// AddWords upserts vocabulary entries by id.
func (s *Store) AddWords(ctx context.Context, words ...domain.Word) error {
	batch := &pgx.Batch{}
	for _, w := range words {
		w.Status = ""
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("marshal word %s: %w", w.ID, err)
		}
		batch.Queue(
			`INSERT INTO words (id, category, data) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET category = EXCLUDED.category, data = EXCLUDED.data`,
			w.ID, w.Category, data)
	}
	return s.sendBatch(ctx, batch, len(words))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	if n == 0 {
		return nil
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
