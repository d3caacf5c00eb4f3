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
	"github.com/spf13/cobra"

	"trivia-service/internal/app"
	"trivia-service/internal/bank"
	"trivia-service/internal/config"
	"trivia-service/internal/domain"
	"trivia-service/internal/infra/memory"
	pgstore "trivia-service/internal/infra/postgres"
	redisstore "trivia-service/internal/infra/redis"
	transport "trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var store app.QuestionStore
	var loader redisstore.BankLoader
	if pool != nil {
		pg := pgstore.NewQuestionStore(pool)
		store, loader = pg, pg
	} else {
		mem := memory.NewQuestionStore(loadBank(cfg))
		store, loader = mem, mem
	}

	poolTTL := config.TTLDuration(cfg.Trivia.PoolTTL, 5*time.Minute)
	if redisClient != nil {
		store = redisstore.NewQuestionStore(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else if pool != nil {
		store = memory.NewCachedStore(store, poolTTL)
	}

	var sessions app.SessionRegistry
	if redisClient != nil {
		sessions = redisstore.NewSessionRegistry(redisClient, config.TTLDuration(cfg.Trivia.SessionTTL, 30*time.Minute))
	} else {
		sessions = memory.NewSessionRegistry()
	}

	engine := app.NewEngine(store,
		app.WithAnswerTimeout(config.TTLDuration(cfg.Trivia.AnswerTimeout, app.DefaultAnswerTimeout)),
		app.WithSelectionAttempts(cfg.Trivia.SelectionAttempts),
	)
	service := app.NewTriviaService(engine, sessions)
	wsHandler := transport.NewWSHandler(service, transport.NewHub())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
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

// loadBank reads the YAML bank, falling back to a tiny built-in one so the
// server still starts without content on disk.
func loadBank(cfg config.Config) bank.Bank {
	b, err := bank.LoadDir(bankDir(cfg))
	if err != nil {
		log.Printf("question bank unavailable, using sample questions: %v", err)
		return sampleBank()
	}
	return b
}

func sampleBank() bank.Bank {
	return bank.Bank{
		Questions: []domain.Question{
			{
				Prompt:           "What is 2 + 2?",
				Difficulty:       domain.DifficultyEasy,
				CorrectAnswer:    "4",
				IncorrectAnswers: []string{"3", "5"},
				Version:          1,
				Type:             "bad-boss",
			},
		},
		Fillers: []string{"22", "Ask HR"},
		Good:    []string{"Fine. Don't let it go to your head."},
		Bad:     []string{"Typical."},
	}
}
