package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overlay-quiz-service/internal/app"
	"overlay-quiz-service/internal/config"
	"overlay-quiz-service/internal/domain"
	"overlay-quiz-service/internal/infra/memory"
	pginfra "overlay-quiz-service/internal/infra/postgres"
	redisinfra "overlay-quiz-service/internal/infra/redis"
	"overlay-quiz-service/internal/playback"
	transport "overlay-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the overlay websocket server",
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

	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	wsHandler := transport.NewWSHandler(service)

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
		log.Printf("starting overlay service on :%s", finalPort)
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

// buildService picks the storage adapters from config: Postgres for question
// sets and the ledger when a URL is set, Redis for caching and liveness when
// an address is set, and in-memory stores otherwise.
func buildService(ctx context.Context, cfg config.Config) (*app.OverlayService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	var loader memory.QuestionSetLoader
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		loader = pginfra.NewQuestionSetLoader(pool)
	case cfg.Questions.File != "":
		fileLoader, err := memory.NewFileQuestionSetLoader(cfg.Questions.File)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		loader = fileLoader
	default:
		log.Printf("no question source configured, serving sample sets")
		loader = memory.NewStaticQuestionSetLoader(sampleQuestionSets())
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var sets app.QuestionSetRepository
	var playbacks app.PlaybackRepository
	if redisClient != nil {
		sets = redisinfra.NewQuestionSetRepository(redisClient, loader, questionTTL)
		playbacks = redisinfra.NewPlaybackStore(redisClient, cfg.IdleTTL())
	} else {
		sets = memory.NewQuestionSetRepository(loader, questionTTL)
		playbacks = memory.NewPlaybackStore()
	}

	var ledger app.RewardLedger
	switch {
	case cfg.Postgres.URL != "":
		db := openBunDB(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })
		ledger = pginfra.NewLedger(db)
	case redisClient != nil:
		ledger = redisinfra.NewLedger(redisClient)
	default:
		ledger = memory.NewLedger()
	}

	opts := playback.Options{ArmDelay: cfg.ArmDelay()}
	return app.NewOverlayService(sets, playbacks, ledger, opts), cleanup, nil
}

// sampleQuestionSets keeps a server started without any question source usable for demos.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"demo-video": {
			VideoID:              "demo-video",
			VideoDurationSeconds: 120,
			Placement:            domain.Placement{Mode: domain.PlacementEvenSpread},
			Questions: []domain.QuestionSpec{
				{ID: "q1", DurationSeconds: 20, TimeLimitSeconds: 15, AnswerKey: "b", Reward: domain.Reward{BaseMeritos: 10, BaseOndas: 5}},
				{ID: "q2", DurationSeconds: 20, TimeLimitSeconds: 15, AnswerKey: "a", Reward: domain.Reward{BaseMeritos: 10, BaseOndas: 5}},
			},
		},
	}
}
