package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizdesk/internal/app"
	"quizdesk/internal/config"
	"quizdesk/internal/domain"
	"quizdesk/internal/infra/memory"
	pgstore "quizdesk/internal/infra/postgres"
	redisauthor "quizdesk/internal/infra/redis"
	reststore "quizdesk/internal/infra/rest"
	"quizdesk/internal/transfer"
	transport "quizdesk/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the authoring server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the authoring server",
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

	if cfg.API.BaseURL == "" && cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, false); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	owner := ownerID(cfg)
	if cfg.API.BaseURL == "" && cfg.Postgres.URL == "" {
		seedSampleData(ctx, store, owner)
	}

	manager := app.NewManager(store, owner)
	if err := manager.Load(ctx); err != nil {
		log.Printf("initial load: %v", err)
	}
	wsHandler := transport.NewWSHandler(manager)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting authoring server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStore assembles the store chain from config: the platform API when one
// is configured, otherwise Postgres, otherwise memory; Redis caching wraps
// whichever backend was picked. The returned cleanup closes owned resources.
func buildStore(ctx context.Context, cfg config.Config) (app.Store, func(), error) {
	var store app.Store
	closers := []func(){}

	switch {
	case cfg.API.BaseURL != "":
		timeout := config.TTLDuration(cfg.API.Timeout, 15*time.Second)
		store = reststore.NewClient(cfg.API.BaseURL, &http.Client{Timeout: timeout})
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		store = pgstore.NewStore(pool)
	default:
		store = memory.NewStore()
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		ttl := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		store = redisauthor.NewCache(client, store, ownerID(cfg), ttl)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return store, cleanup, nil
}

func ownerID(cfg config.Config) string {
	if cfg.Author.OwnerID != "" {
		return cfg.Author.OwnerID
	}
	return "local-author"
}

// seedSampleData gives the in-memory backend something to show on first run.
func seedSampleData(ctx context.Context, store app.Store, owner string) {
	sample := transfer.SampleSubject()
	subject, err := store.CreateSubject(ctx, owner, domain.SubjectForm{
		Title:       sample.Title,
		Description: sample.Description,
		Icon:        sample.Icon,
	})
	if err != nil {
		log.Printf("seed subject: %v", err)
		return
	}
	quiz := transfer.SampleQuiz()
	quiz.SubjectID = subject.ID
	if _, err := store.CreateQuiz(ctx, owner, quiz); err != nil {
		log.Printf("seed quiz: %v", err)
	}
}
