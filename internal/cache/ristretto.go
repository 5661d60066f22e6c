package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoStore keeps snapshots in a ristretto cache. Ristretto cannot
// enumerate its keys, so the store tracks them itself for prefix
// invalidation.
type RistrettoStore struct {
	cache     *ristretto.Cache
	retention time.Duration

	keysMu sync.RWMutex
	keys   map[string]struct{}
}

func NewRistrettoStore(maxEntries int, retention time.Duration) (*RistrettoStore, error) {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(maxEntries) * 10, // number of keys to track frequency of
		MaxCost:     int64(maxEntries),
		BufferItems: 64, // number of keys per Get buffer
		// cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize ristretto cache: %w", err)
	}
	return &RistrettoStore{
		cache:     c,
		retention: retention,
		keys:      make(map[string]struct{}),
	}, nil
}

func (s *RistrettoStore) Get(key string) (Entry, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	return e, ok
}

// Set stores the entry and waits for ristretto's write buffer so a
// subsequent Get observes it.
func (s *RistrettoStore) Set(key string, e Entry) {
	s.keysMu.Lock()
	s.keys[key] = struct{}{}
	s.keysMu.Unlock()

	if s.retention > 0 {
		s.cache.SetWithTTL(key, e, 1, s.retention)
	} else {
		s.cache.Set(key, e, 1)
	}
	s.cache.Wait()
}

func (s *RistrettoStore) Delete(key string) {
	s.keysMu.Lock()
	delete(s.keys, key)
	s.keysMu.Unlock()
	s.cache.Del(key)
}

func (s *RistrettoStore) Keys(prefix string) []string {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()

	var out []string
	for key := range s.keys {
		if _, ok := s.cache.Get(key); !ok {
			// evicted or expired behind our back
			delete(s.keys, key)
			continue
		}
		if hasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func (s *RistrettoStore) Clear() {
	s.keysMu.Lock()
	s.keys = make(map[string]struct{})
	s.keysMu.Unlock()
	s.cache.Clear()
}

func (s *RistrettoStore) Size() int {
	return len(s.Keys(""))
}

func (s *RistrettoStore) Close() {
	s.cache.Close()
}
