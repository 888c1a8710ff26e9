package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
)

// DocumentStore abstracts whole-document persistence (files, Redis, Postgres, SQLite).
// Get returns domain.ErrDocumentNotFound when the document has never been written.
type DocumentStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// DocumentNames maps each concern onto a document name in the store.
type DocumentNames struct {
	Users     string
	Premium   string
	Languages string
	Messages  string
	Quizzes   string
	Emails    string
}

// DefaultDocumentNames matches the file names the bot has always used.
func DefaultDocumentNames() DocumentNames {
	return DocumentNames{
		Users:     "users",
		Premium:   "premium_users",
		Languages: "user_languages",
		Messages:  "messages",
		Quizzes:   "quizzes",
		Emails:    "user_emails",
	}
}

func (n DocumentNames) withDefaults() DocumentNames {
	def := DefaultDocumentNames()
	if n.Users == "" {
		n.Users = def.Users
	}
	if n.Premium == "" {
		n.Premium = def.Premium
	}
	if n.Languages == "" {
		n.Languages = def.Languages
	}
	if n.Messages == "" {
		n.Messages = def.Messages
	}
	if n.Quizzes == "" {
		n.Quizzes = def.Quizzes
	}
	if n.Emails == "" {
		n.Emails = def.Emails
	}
	return n
}

// documents wraps a DocumentStore with per-document locks for read-modify-write cycles.
// Locks are process-local; separate processes sharing a backend still race.
type documents struct {
	store  DocumentStore
	logger zerolog.Logger
	locks  sync.Map
}

func newDocuments(store DocumentStore, logger zerolog.Logger) *documents {
	return &documents{store: store, logger: logger}
}

// lock serializes writers of a single document and returns the unlock func.
func (d *documents) lock(name string) func() {
	v, _ := d.locks.LoadOrStore(name, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// readDocument decodes a document into T. Missing and corrupt documents yield
// the zero value with no error. An unreadable document also yields the zero
// value, plus an error wrapping domain.ErrStoreUnavailable so writers can
// refuse to save over state they never saw.
func readDocument[T any](ctx context.Context, d *documents, name string) (T, error) {
	var doc T
	data, err := d.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return doc, nil
		}
		d.log(ctx).Warn().Err(err).Str("document", name).Msg("document unreadable, using empty state")
		return doc, fmt.Errorf("read %s: %w: %w", name, domain.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		d.log(ctx).Warn().Err(err).Str("document", name).Msg("document corrupt, using empty state")
		var empty T
		return empty, nil
	}
	return doc, nil
}

// loadDocument is readDocument for read-only callers.
func loadDocument[T any](ctx context.Context, d *documents, name string) T {
	doc, _ := readDocument[T](ctx, d, name)
	return doc
}

func saveDocument(ctx context.Context, d *documents, name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := d.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// loadMap is loadDocument for map documents, never returning a nil map.
func loadMap[V any](ctx context.Context, d *documents, name string) map[string]V {
	m, _ := loadMapForUpdate[V](ctx, d, name)
	return m
}

// loadMapForUpdate is loadMap for read-modify-write cycles. Callers must not
// save when it returns an error.
func loadMapForUpdate[V any](ctx context.Context, d *documents, name string) (map[string]V, error) {
	m, err := readDocument[map[string]V](ctx, d, name)
	if m == nil {
		m = make(map[string]V)
	}
	return m, err
}

func (d *documents) log(ctx context.Context) *zerolog.Logger {
	logger := requestLogger(ctx, d.logger)
	return &logger
}

// requestLogger prefers the logger carried by ctx over fallback.
func requestLogger(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if logger := logging.FromContext(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return fallback
}
