package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

func TestDocumentStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	if _, err := store.Get(ctx, "users"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	payload := []byte(`{"7":{"score":1,"current_q":null}}`)
	if err := store.Put(ctx, "users", payload); err != nil {
		t.Fatalf("put: %v", err)
	}
	// caller mutations must not leak into the store
	payload[0] = 'x'

	got, err := store.Get(ctx, "users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"7":{"score":1,"current_q":null}}` {
		t.Fatalf("unexpected document %s", got)
	}
	if names := store.Names(); len(names) != 1 || names[0] != "users" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestCachedStoreCachesSelectedDocuments(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Backend: NewDocumentStoreWith(map[string]string{
		"messages": `{"start":{"en":"hi"}}`,
		"quizzes":  `[]`,
	})}
	store := NewCachedStore(backend, time.Minute, "messages")

	for i := 0; i < 3; i++ {
		if _, err := store.Get(ctx, "messages"); err != nil {
			t.Fatalf("get messages: %v", err)
		}
		if _, err := store.Get(ctx, "quizzes"); err != nil {
			t.Fatalf("get quizzes: %v", err)
		}
	}
	if backend.calls["messages"] != 1 {
		t.Fatalf("expected messages loaded once, got %d", backend.calls["messages"])
	}
	if backend.calls["quizzes"] != 3 {
		t.Fatalf("expected quizzes read through every time, got %d", backend.calls["quizzes"])
	}
}

func TestCachedStoreExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Backend: NewDocumentStoreWith(map[string]string{
		"messages": `{"start":{"en":"hi"}}`,
	})}
	store := NewCachedStore(backend, time.Minute, "messages")
	now := time.Now()
	store.clock = func() time.Time { return now }

	_, _ = store.Get(ctx, "messages")
	now = now.Add(2 * time.Minute)
	_, _ = store.Get(ctx, "messages")
	if backend.calls["messages"] != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", backend.calls["messages"])
	}

	if err := store.Put(ctx, "messages", []byte(`{"start":{"en":"hello"}}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "messages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"start":{"en":"hello"}}` {
		t.Fatalf("expected fresh document after put, got %s", got)
	}
}

func TestCachedStoreDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Backend: NewDocumentStore()}
	store := NewCachedStore(backend, time.Minute, "messages")

	for i := 0; i < 2; i++ {
		if _, err := store.Get(ctx, "messages"); !errors.Is(err, domain.ErrDocumentNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if backend.calls["messages"] != 2 {
		t.Fatalf("expected misses to reach backend, got %d", backend.calls["messages"])
	}
}

func TestCachedStoreDropsLoadRacingPut(t *testing.T) {
	ctx := context.Background()
	backend := &stallingBackend{
		Backend: NewDocumentStoreWith(map[string]string{"messages": `{"start":{"en":"old"}}`}),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	store := NewCachedStore(backend, time.Minute, "messages")

	done := make(chan []byte)
	go func() {
		data, _ := store.Get(ctx, "messages")
		done <- data
	}()
	<-backend.read

	if err := store.Put(ctx, "messages", []byte(`{"start":{"en":"new"}}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	close(backend.release)
	if got := <-done; string(got) != `{"start":{"en":"old"}}` {
		t.Fatalf("in-flight get returned %s", got)
	}

	got, err := store.Get(ctx, "messages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"start":{"en":"new"}}` {
		t.Fatalf("stale document cached after put: %s", got)
	}
}

// stallingBackend holds the first Get after it has read the document until
// release is closed.
type stallingBackend struct {
	Backend
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (b *stallingBackend) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := b.Backend.Get(ctx, name)
	b.once.Do(func() {
		close(b.read)
		<-b.release
	})
	return data, err
}

type countingBackend struct {
	Backend
	calls map[string]int
}

func (b *countingBackend) Get(ctx context.Context, name string) ([]byte, error) {
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[name]++
	return b.Backend.Get(ctx, name)
}
