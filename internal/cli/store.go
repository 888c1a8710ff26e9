package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/FoadGhasemi/CodeSpark/internal/app"
	"github.com/FoadGhasemi/CodeSpark/internal/config"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/file"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/memory"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/postgres"
	redisstore "github.com/FoadGhasemi/CodeSpark/internal/infra/redis"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/sqlite"
)

// openStore connects the configured document backend. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (app.DocumentStore, func(), error) {
	noop := func() {}
	logger = logger.With().Str("backend", cfg.Storage.Backend).Logger()

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("memory backend: state is lost on restart")
		return memory.NewDocumentStore(), noop, nil

	case config.BackendFile:
		store, err := file.NewDocumentStore(cfg.Storage.Dir)
		if err != nil {
			return nil, noop, err
		}
		logger.Info().Str("dir", cfg.Storage.Dir).Msg("document store ready")
		return store, noop, nil

	case config.BackendSQLite:
		store, err := sqlite.NewDocumentStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info().Str("path", cfg.Storage.SQLitePath).Msg("document store ready")
		return store, func() { _ = store.Close() }, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("document store ready")
		return redisstore.NewDocumentStore(client, cfg.Redis.Prefix), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		if err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
			return nil, noop, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres connect: %w", err)
		}
		logger.Info().Msg("document store ready")
		return postgres.NewDocumentStore(pool), pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func documentNames(cfg config.Config) app.DocumentNames {
	return app.DocumentNames{
		Users:     cfg.Documents.Users,
		Premium:   cfg.Documents.Premium,
		Languages: cfg.Documents.Languages,
		Messages:  cfg.Documents.Messages,
		Quizzes:   cfg.Documents.Quizzes,
		Emails:    cfg.Documents.Emails,
	}
}
