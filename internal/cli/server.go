package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"english-practice-service/internal/app"
	"english-practice-service/internal/config"
	"english-practice-service/internal/infra/events"
	transport "english-practice-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the practice server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Seed.Enabled {
		if err := seedBackend(ctx, b, log); err != nil {
			return err
		}
	}

	deps := app.SimulationDeps{
		Questions:      b.questions,
		Simulations:    b.simulations,
		Answers:        b.answers,
		Runs:           b.runs,
		Builder:        app.NewBuilder(nil, app.StageBudgets(cfg.Simulation.StageSeconds)),
		Logger:         log,
		PersistTimeout: config.TTLDuration(cfg.Simulation.PersistTimeout, 10*time.Second),
	}
	if cfg.AMQP.URL != "" {
		publisher, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		deps.Publisher = publisher
	} else {
		log.Info("amqp not configured, simulation events will not be published")
	}

	simulations := app.NewSimulationService(deps)
	vocabulary := app.NewVocabularyService(b.words, b.statuses, log)
	progress := app.NewProgressService(b.statuses)

	defaults := app.BuildConfig{
		SentenceCompletion: cfg.Simulation.SentenceCompletion,
		Restatement:        cfg.Simulation.Restatement,
		Passages:           cfg.Simulation.Passages,
	}
	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(
		transport.NewRESTHandler(simulations, vocabulary, progress, defaults, log),
		transport.NewWSHandler(simulations, log),
		transport.RouterOptions{AllowOrigins: cfg.CORS.AllowOrigins, Logger: log},
	)

	// no read/write timeouts: they would also cut long-lived websocket runs
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting practice service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
