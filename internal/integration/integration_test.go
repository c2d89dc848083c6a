package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	pgstore "quizdesk/internal/infra/postgres"
	pgmigrations "quizdesk/internal/infra/postgres/migrations"
	infraredis "quizdesk/internal/infra/redis"
)

const owner = "owner-integration"

func TestAuthoringLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAuthoring(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := infraredis.NewCache(redisClient, pgstore.NewStore(pool), owner, 5*time.Minute)

	manager := app.NewManager(store, owner)
	if err := manager.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := manager.CreateSubject(ctx, domain.SubjectForm{Title: "Physics", Icon: "atom"}); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	physics := manager.Snapshot().Subjects[0].ID

	quiz := domain.NewQuiz(physics)
	quiz.Title = "Mechanics"
	quiz.Description = "Forces and motion"
	mcq := domain.NewQuestion(domain.KindMultipleChoice)
	mcq.ID = 1
	mcq.Text = "Unit of force?"
	mcq.Choice.Options = []string{"Newton", "Joule", "Watt", "Pascal"}
	coding := domain.NewQuestion(domain.KindCompiler)
	coding.ID = 2
	coding.Text = "Compute kinetic energy"
	coding.Compiler.Language = domain.LangPython
	coding.Compiler.ReferenceCode = "def ke(m, v):\n    return 0.5 * m * v * v\n"
	quiz.Questions = []domain.Question{mcq, coding}

	if err := manager.SaveQuiz(ctx, quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	snap := manager.Snapshot()
	if snap.TotalCount != 1 || snap.SubjectCounts[physics] != 1 {
		t.Fatalf("expected the quiz counted under its stack, got %+v", snap)
	}

	// A fresh manager sees the same data through the JSONB round trip.
	reloaded := app.NewManager(store, owner)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	snap = reloaded.Snapshot()
	if snap.TotalCount != 1 {
		t.Fatalf("expected the quiz persisted, got %+v", snap)
	}
	persisted := snap.Quizzes[0]
	if persisted.Title != "Mechanics" || persisted.SubjectID != physics {
		t.Fatalf("unexpected quiz after reload: %+v", persisted)
	}
	if len(persisted.Questions) != 2 {
		t.Fatalf("expected both questions back, got %+v", persisted.Questions)
	}
	if persisted.Questions[1].Kind != domain.KindCompiler {
		t.Fatalf("expected the compiler kind to survive, got %+v", persisted.Questions[1])
	}
	if persisted.Questions[1].Compiler.Language != domain.LangPython {
		t.Fatalf("expected the language to survive, got %+v", persisted.Questions[1].Compiler)
	}

	// Bulk import: one fresh quiz plus an upsert of the stored one.
	renamed := persisted.Clone()
	renamed.Title = "Mechanics II"
	extra := domain.NewQuiz("")
	extra.Title = "Optics"
	extra.Description = "Lenses"
	message, err := store.ImportQuizzes(ctx, owner, []domain.Quiz{renamed, extra})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if message != "imported 2 quizzes" {
		t.Fatalf("unexpected import message %q", message)
	}

	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload after import: %v", err)
	}
	snap = reloaded.Snapshot()
	if snap.TotalCount != 2 {
		t.Fatalf("expected the upsert not to duplicate, got %+v", snap)
	}

	// Deleting the stack uncategorizes its quizzes server-side.
	if err := reloaded.DeleteSubject(ctx, physics); err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	final := app.NewManager(store, owner)
	if err := final.Load(ctx); err != nil {
		t.Fatalf("final load: %v", err)
	}
	snap = final.Snapshot()
	if len(snap.Subjects) != 0 {
		t.Fatalf("expected the subject gone, got %+v", snap.Subjects)
	}
	if snap.TotalCount != 2 || snap.UncategorizedCount != 2 {
		t.Fatalf("expected every quiz to survive uncategorized, got %+v", snap)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quizdesk", "POSTGRES_PASSWORD": "quizdeskpass", "POSTGRES_DB": "quizdeskdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://quizdesk:quizdeskpass@%s:%s/quizdeskdb?sslmode=disable", host, port.Port())
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

func migrateAuthoring(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
