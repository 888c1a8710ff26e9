package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

func TestDocumentStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewDocumentStore(newClient(mr), "")

	if _, err := store.Get(ctx, "premium_users"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := store.Put(ctx, "premium_users", []byte(`{"42":{"email":"a@x.com"}}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("codespark:doc:premium_users") {
		t.Fatalf("expected redis key to be set")
	}

	got, err := store.Get(ctx, "premium_users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"42":{"email":"a@x.com"}}` {
		t.Fatalf("unexpected document %s", got)
	}

	names, err := store.Names(ctx)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 1 || names[0] != "premium_users" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestDocumentStoreSurfacesConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	_, err = NewDocumentStore(client, "bot").Get(context.Background(), "users")
	if err == nil || errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected a connection error, got %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
