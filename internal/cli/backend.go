package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"english-practice-service/internal/app"
	"english-practice-service/internal/config"
	"english-practice-service/internal/infra/memory"
	mongostore "english-practice-service/internal/infra/mongo"
	pgstore "english-practice-service/internal/infra/postgres"
	pgmigrations "english-practice-service/internal/infra/postgres/migrations"
	redisstore "english-practice-service/internal/infra/redis"
	"english-practice-service/internal/logging"
	"english-practice-service/internal/seed"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// backend bundles the repositories selected by config.
type backend struct {
	questions   app.QuestionRepository
	simulations app.SimulationRepository
	answers     app.AnswerRepository
	statuses    app.StatusRepository
	words       app.WordRepository
	runs        app.RunRegistry
	catalog     seed.Catalog

	invalidate func(context.Context) error
	closers    []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// memoryCatalog lets seed content reach the in-memory question and word stores.
type memoryCatalog struct {
	*memory.QuestionStore
	*memory.WordStore
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.Init(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{}
	var source app.QuestionRepository

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		group, err := pgmigrations.Apply(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		log.Info("migrations applied", zap.String("group", group.String()))

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		store := pgstore.NewStore(pool)
		source, b.simulations, b.answers, b.statuses, b.words, b.catalog = store, store, store, store, store, store
	case config.BackendMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		store := mongostore.NewStore(client.Database(cfg.Mongo.Database))
		if err := store.EnsureIndexes(ctx); err != nil {
			b.Close()
			return nil, err
		}
		source, b.simulations, b.answers, b.statuses, b.words, b.catalog = store, store, store, store, store, store
	default:
		questions := memory.NewQuestionStore(nil)
		words := memory.NewWordStore(nil)
		source, b.words = questions, words
		b.catalog = memoryCatalog{QuestionStore: questions, WordStore: words}
		b.simulations = memory.NewSimulationStore()
		b.answers = memory.NewAnswerStore()
		b.statuses = memory.NewStatusStore()
	}

	questionTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	if cfg.Redis.Addr == "" {
		cache := memory.NewQuestionCache(source, questionTTL)
		b.questions = cache
		b.invalidate = func(context.Context) error { cache.Invalidate(); return nil }
		b.runs = memory.NewRunStore()
		log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))
		return b, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		b.Close()
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	b.closers = append(b.closers, func() { _ = client.Close() })

	cache := redisstore.NewQuestionCache(client, source, questionTTL, log)
	b.questions = cache
	b.invalidate = cache.Invalidate

	owner, _ := os.Hostname()
	b.runs = redisstore.NewRunStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), owner)
	if cfg.Storage.Backend == config.BackendMemory {
		// keep statuses across restarts when nothing else is durable
		b.statuses = redisstore.NewStatusStore(client)
	}
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend), zap.String("redis", cfg.Redis.Addr))
	return b, nil
}

// seedBackend loads the bundled sample content and drops cached question lists.
func seedBackend(ctx context.Context, b *backend, log *zap.Logger) error {
	data, err := seed.Default(time.Now().UTC())
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, b.catalog, data); err != nil {
		return err
	}
	if err := b.invalidate(ctx); err != nil {
		log.Warn("invalidate question cache", zap.Error(err))
	}
	log.Info("seed applied", zap.Int("questions", len(data.Questions)), zap.Int("words", len(data.Words)))
	return nil
}
