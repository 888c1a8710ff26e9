package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	pgmigrations "github.com/FoadGhasemi/CodeSpark/internal/infra/postgres/migrations"
)

// DocumentStore keeps documents as JSONB rows in the documents table.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) Get(ctx context.Context, name string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE name=$1`, name).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document %s: %w", name, err)
	}
	return raw, nil
}

// Put upserts the whole document in one statement.
func (s *DocumentStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (name, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		name, string(data))
	if err != nil {
		return fmt.Errorf("save document %s: %w", name, err)
	}
	return nil
}

// Migrate applies every pending schema migration to the database at dsn.
func Migrate(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
