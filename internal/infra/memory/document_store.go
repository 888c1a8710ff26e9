package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// DocumentStore is an in-memory implementation of app.DocumentStore.
// State is lost on restart; useful for tests and demos.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string][]byte)}
}

// NewDocumentStoreWith seeds the store with raw JSON documents.
func NewDocumentStoreWith(docs map[string]string) *DocumentStore {
	s := NewDocumentStore()
	for name, data := range docs {
		s.docs[name] = []byte(data)
	}
	return s
}

func (s *DocumentStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[name]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *DocumentStore) Put(_ context.Context, name string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.docs[name] = buf
	s.mu.Unlock()
	return nil
}

// Names lists stored document names in order.
func (s *DocumentStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
