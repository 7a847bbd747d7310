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

	"studybuddy-quiz-service/internal/app"
	"studybuddy-quiz-service/internal/config"
	"studybuddy-quiz-service/internal/domain"
	"studybuddy-quiz-service/internal/infra/memory"
	infrapg "studybuddy-quiz-service/internal/infra/postgres"
	infraredis "studybuddy-quiz-service/internal/infra/redis"
	transport "studybuddy-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Without Postgres the service runs in demo mode on seeded in-memory
	// stores; with Redis on top, flashcard reads go through the cache.
	var flashcards app.FlashcardRepository
	var results app.ResultStore
	var performance app.PerformanceRepository
	if pool != nil {
		flashcards = infrapg.NewFlashcardRepository(pool)
		results = infrapg.NewResultStore(pool)
		performance = infrapg.NewPerformanceRepository(pool)
	} else {
		flashcards = memory.NewSeededFlashcardRepository(sampleFlashcards())
		results = memory.NewResultStore()
		performance = memory.NewPerformanceRepository()
	}
	if redisClient != nil {
		flashcards = infraredis.NewFlashcardCache(redisClient, flashcards, cacheTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = infraredis.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	service := app.NewQuizService(flashcards, sessions, results, performance, cfg.Quiz.QuestionCount)
	wsHandler := transport.NewWSHandler(service)
	apiHandler := transport.NewAPIHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting studybuddy quiz service on :%s", finalPort)
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

// sampleFlashcards seeds demo mode with enough cards to start a quiz.
func sampleFlashcards() []domain.Flashcard {
	now := time.Now()
	cards := []struct {
		q, a, subject string
	}{
		{"What pigment drives photosynthesis?", "Chlorophyll", "Biology"},
		{"Which organelle produces ATP?", "Mitochondria", "Biology"},
		{"What is the powerhouse molecule of cells?", "ATP", "Biology"},
		{"What gas do plants absorb?", "Carbon dioxide", "Biology"},
		{"What is H2O commonly called?", "Water", "Chemistry"},
		{"What is the atomic number of carbon?", "6", "Chemistry"},
	}
	flashcards := make([]domain.Flashcard, 0, len(cards))
	for i, c := range cards {
		flashcards = append(flashcards, domain.Flashcard{
			ID:        "demo-" + string(rune('a'+i)),
			OwnerID:   "demo-user",
			Question:  c.q,
			Answer:    c.a,
			Subject:   c.subject,
			CreatedAt: now,
		})
	}
	return flashcards
}
