package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

const defaultPrefix = "codespark"

// DocumentStore keeps each document as a JSON string value.
// Documents are stored as: SET {prefix}:doc:{name} {json}
// Names are indexed as:    SADD {prefix}:docs {name}
type DocumentStore struct {
	client *redis.Client
	prefix string
}

func NewDocumentStore(client *redis.Client, prefix string) *DocumentStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &DocumentStore{client: client, prefix: prefix}
}

func (s *DocumentStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.docKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, nil
}

func (s *DocumentStore) Put(ctx context.Context, name string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(name), data, 0)
	pipe.SAdd(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", name, err)
	}
	return nil
}

// Names lists every document written through this store.
func (s *DocumentStore) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list documents: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DocumentStore) docKey(name string) string {
	return s.prefix + ":doc:" + name
}

func (s *DocumentStore) indexKey() string {
	return s.prefix + ":docs"
}
