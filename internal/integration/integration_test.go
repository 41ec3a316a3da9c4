package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/infra/postgres"
	pgmigrations "quiz-competition-service/internal/infra/postgres/migrations"
	infraredis "quiz-competition-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const bank = `
departments: [CompSci, Math]
questions:
  - {text: "cs-1", options: [A, B, C, D], answer: B, department: CompSci, type: DEPT}
  - {text: "cs-2", options: [A, B, C, D], answer: B, department: CompSci, type: DEPT}
  - {text: "cs-3", options: [A, B, C, D], answer: B, department: CompSci, type: DEPT}
  - {text: "gen-1", options: [A, B, C, D], answer: B}
  - {text: "gen-2", options: [A, B, C, D], answer: B}
  - {text: "gen-3", options: [A, B, C, D], answer: B}
  - {text: "gen-4", options: [A, B, C, D], answer: B}
  - {text: "gen-5", options: [A, B, C, D], answer: B}
  - {text: "gen-6", options: [A, B, C, D], answer: B}
`

func TestQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.Open(pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)
	store := postgres.NewStore(db)
	seed(t, ctx, store)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	loader := postgres.NewQuestionLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	participants := app.NewParticipantDirectory(store)
	service := app.NewQuizService(app.QuizDeps{
		Departments:  store,
		Questions:    loader,
		Participants: participants,
		Results:      store,
		Attempts:     infraredis.NewAttemptStore(redisClient, 5*time.Minute),
		Selector:     app.NewSelector(loader),
	}, 5, 5)

	attempt, err := service.Start(ctx, app.LoginInput{Name: "Ada", Matric: "m1", Department: "CompSci"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if attempt.Total != 8 {
		t.Fatalf("expected 3 dept + 5 gen questions, got %d", attempt.Total)
	}

	for i := 0; i < attempt.Total; i++ {
		current, err := service.Current(ctx, attempt.ID)
		if err != nil {
			t.Fatalf("current %d: %v", i, err)
		}
		if _, err := service.Advance(ctx, attempt.ID, current.Question.ID, "B"); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if _, err := service.Advance(ctx, attempt.ID, current.Question.ID, "B"); err == nil {
			t.Fatalf("replayed answer %d was accepted", i)
		}
	}

	outcome, err := service.Finalize(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if outcome.Score != 8 || outcome.Percentage != 100 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, err := service.Finalize(ctx, attempt.ID); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected second finalize to miss, got %v", err)
	}

	results := app.NewResultService(store, participants, store)
	if _, err := results.Submit(ctx, app.ResultSubmission{Matric: "M2", Name: "Bo", Field: "Math", Score: 7, Total: 10, Competition: true}); err != nil {
		t.Fatalf("save result: %v", err)
	}
	if _, err := results.Submit(ctx, app.ResultSubmission{Matric: "M3", Name: "Cy", Score: 11, Total: 10}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	board, err := results.Leaderboard(ctx, app.AllDepartments)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].Matric != "M1" || board[1].Percentage != 70 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}
	math, err := results.Leaderboard(ctx, "Math")
	if err != nil || len(math) != 1 || math[0].Department != "Math" {
		t.Fatalf("unexpected Math leaderboard %+v (%v)", math, err)
	}

	count, err := db.NewSelect().Table("competition_entries").Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected one competition entry, got %d (%v)", count, err)
	}
}

func TestParticipantUniqueness(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := postgres.Open(pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)
	store := postgres.NewStore(db)

	first := domain.Participant{Matric: "M1", Name: "Ada"}
	if err := store.CreateParticipant(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := domain.Participant{Matric: "M1", Name: "Other"}
	if err := store.CreateParticipant(ctx, &dup); !errors.Is(err, domain.ErrParticipantExists) {
		t.Fatalf("expected ErrParticipantExists, got %v", err)
	}

	p, err := app.NewParticipantDirectory(store).Upsert(ctx, "m1", "Third", nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.ID != first.ID || p.Name != "Ada" {
		t.Fatalf("upsert should return the existing row, got %+v", p)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func seed(t *testing.T, ctx context.Context, store *postgres.Store) {
	t.Helper()
	qb, err := app.LoadQuestionBank(strings.NewReader(bank))
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if _, err := app.NewSeeder(store).Seed(ctx, qb); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
