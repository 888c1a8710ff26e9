package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Backend is the store being cached (same shape as app.DocumentStore).
type Backend interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// CachedStore caches reads of selected read-mostly documents with a TTL to avoid
// repeated backend hits. Other documents pass straight through, so the quiz bank
// and user state are always read fresh.
type CachedStore struct {
	backend Backend
	ttl     time.Duration
	cached  map[string]struct{}
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedDocument
	// gen counts writes per document; loads begun before a write are not cached.
	gen map[string]uint64
}

type cachedDocument struct {
	data      []byte
	expiresAt time.Time
}

func NewCachedStore(backend Backend, ttl time.Duration, names ...string) *CachedStore {
	cached := make(map[string]struct{}, len(names))
	for _, name := range names {
		cached[name] = struct{}{}
	}
	return &CachedStore{
		backend: backend,
		ttl:     ttl,
		cached:  cached,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedDocument),
		gen:     make(map[string]uint64),
	}
}

func (s *CachedStore) Get(ctx context.Context, name string) ([]byte, error) {
	if _, ok := s.cached[name]; !ok || s.ttl <= 0 {
		return s.backend.Get(ctx, name)
	}

	now := s.clock()
	s.mu.RLock()
	if entry, ok := s.cache[name]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.data, nil
	}
	gen := s.gen[name]
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(name+"@"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if entry, ok := s.cache[name]; ok && entry.expiresAt.After(now) {
			s.mu.RUnlock()
			return entry.data, nil
		}
		s.mu.RUnlock()

		data, err := s.backend.Get(ctx, name)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen[name] == gen {
			s.cache[name] = cachedDocument{data: data, expiresAt: now.Add(s.ttlWithJitter())}
		}
		s.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Put writes through, drops any cached copy and stops loads already in flight
// from caching what they read.
func (s *CachedStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.backend.Put(ctx, name, data); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, name)
	s.gen[name]++
	s.mu.Unlock()
	return nil
}

func (s *CachedStore) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
