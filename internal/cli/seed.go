package cli

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-service/internal/bank"
	"trivia-service/internal/config"
	pgstore "trivia-service/internal/infra/postgres"
	redisstore "trivia-service/internal/infra/redis"
)

// NewSeedCmd loads the YAML question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed Postgres from the YAML question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "question bank directory (defaults to trivia.bank_dir)")
	return cmd
}

func runSeed(ctx context.Context, configPath, dirFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dir := dirFlag
	if dir == "" {
		dir = bankDir(cfg)
	}
	b, err := bank.LoadDir(dir)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrateDB(ctx, db); err != nil {
		return err
	}
	stats, err := pgstore.Seed(ctx, db, b)
	if err != nil {
		return err
	}
	log.Printf("seeded from %s: questions=%d fillers=%d good=%d bad=%d", dir, stats.Questions, stats.Fillers, stats.Good, stats.Bad)

	// drop the cached bank so running instances pick up the new rows
	if client := newRedisClient(cfg); client != nil {
		defer client.Close()
		store := redisstore.NewQuestionStore(client, nil, 0)
		if err := store.Invalidate(ctx); err != nil {
			log.Printf("invalidate redis cache: %v", err)
		}
	}
	return nil
}

func bankDir(cfg config.Config) string {
	if cfg.Trivia.BankDir != "" {
		return cfg.Trivia.BankDir
	}
	return "questions"
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
