package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/config"
	"quiz-competition-service/internal/infra/memory"
	"quiz-competition-service/internal/infra/postgres"
	redisattempts "quiz-competition-service/internal/infra/redis"
	"quiz-competition-service/internal/logger"
	transport "quiz-competition-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

// repositories is the storage wiring shared by the server and the admin commands.
type repositories struct {
	departments  app.DepartmentRepository
	questions    app.QuestionSource
	participants app.ParticipantRepository
	results      app.ResultRepository
	contacts     app.ContactRepository
	catalog      app.CatalogWriter

	closers []func()
}

func (r *repositories) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// openRepositories uses Postgres when a URL is configured and the in-memory
// store otherwise. The memory store is seeded from the configured question bank.
func openRepositories(ctx context.Context, cfg config.Config, log zerolog.Logger, migrateSchema bool) (*repositories, error) {
	if cfg.Postgres.URL == "" {
		store := memory.NewStore()
		repos := &repositories{
			departments:  store,
			questions:    store,
			participants: store,
			results:      store,
			contacts:     store,
			catalog:      store,
		}
		if cfg.Quiz.QuestionBank != "" {
			report, err := seedFromFile(ctx, store, cfg.Quiz.QuestionBank)
			if err != nil {
				return nil, err
			}
			log.Info().
				Int("departments", report.Departments).
				Int("questions", report.Questions).
				Msg("in-memory store seeded")
		}
		log.Warn().Msg("postgres not configured; using in-memory store")
		return repos, nil
	}

	db := postgres.Open(cfg.Postgres.URL)
	if migrateSchema {
		if err := runMigrations(ctx, db, log); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect question loader: %w", err)
	}
	store := postgres.NewStore(db)
	return &repositories{
		departments:  store,
		questions:    postgres.NewQuestionLoader(pool),
		participants: store,
		results:      store,
		contacts:     store,
		catalog:      store,
		closers:      []func(){func() { _ = db.Close() }, pool.Close},
	}, nil
}

func openAttemptStore(cfg config.Config, log zerolog.Logger) (app.AttemptStore, func()) {
	// redis.ttl, when set, overrides quiz.attempt_ttl for the Redis keys only.
	ttl := config.TTLDuration(cfg.Redis.TTL, config.TTLDuration(cfg.Quiz.AttemptTTL, 2*time.Hour))
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("redis not configured; attempts are kept in process memory")
		return memory.NewAttemptStore(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return redisattempts.NewAttemptStore(client, ttl), func() { _ = client.Close() }
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	repos, err := openRepositories(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer repos.Close()

	attempts, closeAttempts := openAttemptStore(cfg, log)
	defer closeAttempts()

	participants := app.NewParticipantDirectory(repos.participants)
	selector := app.NewSelector(repos.questions)
	services := transport.Services{
		Quiz: app.NewQuizService(app.QuizDeps{
			Departments:  repos.departments,
			Questions:    repos.questions,
			Participants: participants,
			Results:      repos.results,
			Attempts:     attempts,
			Selector:     selector,
		}, cfg.Quiz.NumDept, cfg.Quiz.NumGen),
		Catalog:  app.NewCatalogService(repos.departments, selector),
		Results:  app.NewResultService(repos.departments, participants, repos.results),
		Contacts: app.NewContactService(repos.contacts),
	}
	router := transport.NewRouter(services, transport.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AttemptTTL:     config.TTLDuration(cfg.Quiz.AttemptTTL, 2*time.Hour),
		SecureCookies:  cfg.Server.SecureCookies,
	}, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
