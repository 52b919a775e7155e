package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"english-practice-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Store is the document-database backend. Questions, simulations and words
// are stored as-is. Statuses are one document per user, kind and entity;
// default statuses have no document.
type Store struct {
	questions   *mongo.Collection
	simulations *mongo.Collection
	answers     *mongo.Collection
	statuses    *mongo.Collection
	words       *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		questions:   db.Collection("questions"),
		simulations: db.Collection("simulations"),
		answers:     db.Collection("user_answers"),
		statuses:    db.Collection("progress_statuses"),
		words:       db.Collection("words"),
	}
}

type answerDoc struct {
	UserID       string    `bson:"user_id"`
	SimulationID string    `bson:"simulation_id"`
	Answers      []int     `bson:"answers"`
	Score        int       `bson:"score"`
	Timestamp    time.Time `bson:"timestamp"`
}

type statusDoc struct {
	UserID   string `bson:"user_id"`
	Kind     string `bson:"kind"`
	EntityID string `bson:"entity_id"`
	Status   string `bson:"status"`
}

func (s *Store) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	if filter.PassageID != "" {
		query["passage_id"] = filter.PassageID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.questions.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer cur.Close(ctx)

	var questions []domain.Question
	for cur.Next(ctx) {
		var q domain.Question
		if err := cur.Decode(&q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}

// AddQuestions upserts questions by id.
func (s *Store) AddQuestions(ctx context.Context, questions ...domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(questions))
	for _, q := range questions {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": q.ID}).
			SetReplacement(q).
			SetUpsert(true))
	}
	if _, err := s.questions.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("upsert questions: %w", err)
	}
	return nil
}

func (s *Store) CreateSimulation(ctx context.Context, sim domain.Simulation) (string, error) {
	if _, err := s.simulations.InsertOne(ctx, sim); err != nil {
		return "", fmt.Errorf("insert simulation: %w", err)
	}
	return sim.ID, nil
}

func (s *Store) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	var sim domain.Simulation
	err := s.simulations.FindOne(ctx, bson.M{"_id": id}).Decode(&sim)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Simulation{}, domain.ErrSimulationNotFound
	}
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("find simulation: %w", err)
	}
	return sim, nil
}

func (s *Store) SaveUserAnswer(ctx context.Context, answer domain.UserAnswer) error {
	doc := answerDoc{
		UserID:       answer.UserID,
		SimulationID: answer.SimulationID,
		Answers:      domain.AnswersToInts(answer.Answers),
		Score:        answer.Score,
		Timestamp:    answer.Timestamp,
	}
	if _, err := s.answers.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert user answer: %w", err)
	}
	return nil
}

func (s *Store) GetUserHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.answers.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	defer cur.Close(ctx)

	var history []domain.HistoryEntry
	for cur.Next(ctx) {
		var doc answerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		history = append(history, domain.HistoryEntry{
			SimulationID: doc.SimulationID,
			Answers:      domain.AnswersFromInts(doc.Answers),
			Score:        doc.Score,
			Timestamp:    doc.Timestamp,
		})
	}
	return history, cur.Err()
}

func (s *Store) GetStatuses(ctx context.Context, userID string, kind domain.ProgressKind) (map[string]string, error) {
	cur, err := s.statuses.Find(ctx, bson.M{"user_id": userID, "kind": string(kind)})
	if err != nil {
		return nil, fmt.Errorf("find statuses: %w", err)
	}
	defer cur.Close(ctx)

	statuses := map[string]string{}
	for cur.Next(ctx) {
		var doc statusDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode status: %w", err)
		}
		statuses[doc.EntityID] = doc.Status
	}
	return statuses, cur.Err()
}

// SetStatus upserts the status of one entity. An empty status removes it.
// Entity ids are only ever matched as values, so any string is accepted.
func (s *Store) SetStatus(ctx context.Context, userID string, kind domain.ProgressKind, entityID, status string) error {
	filter := bson.M{"user_id": userID, "kind": string(kind), "entity_id": entityID}
	if status == "" {
		if _, err := s.statuses.DeleteOne(ctx, filter); err != nil {
			return fmt.Errorf("delete status: %w", err)
		}
		return nil
	}
	doc := statusDoc{UserID: userID, Kind: string(kind), EntityID: entityID, Status: status}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.statuses.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique status key used by SetStatus upserts.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.statuses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "entity_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create status index: %w", err)
	}
	return nil
}

func (s *Store) ListWords(ctx context.Context) ([]domain.Word, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.words.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find words: %w", err)
	}
	defer cur.Close(ctx)

	var words []domain.Word
	if err := cur.All(ctx, &words); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}
	return words, nil
}

// AddWords upserts vocabulary entries by id.
func (s *Store) AddWords(ctx context.Context, words ...domain.Word) error {
	if len(words) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(words))
	for _, w := range words {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": w.ID}).
			SetReplacement(w).
			SetUpsert(true))
	}
	if _, err := s.words.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("upsert words: %w", err)
	}
	return nil
}
