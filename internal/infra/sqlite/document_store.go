package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// DocumentStore keeps documents in a single-file SQLite database.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore opens (or creates) the database at dbPath and ensures the schema.
func NewDocumentStore(dbPath string) (*DocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &DocumentStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *DocumentStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE name = ?`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("sqlite get %s: %w", name, err)
	}
	return []byte(data), nil
}

func (s *DocumentStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite put %s: %w", name, err)
	}
	return nil
}

// Close releases the database handle.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}
