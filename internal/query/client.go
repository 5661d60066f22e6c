// Package query is finboard's client-side query cache: typed snapshots of
// server state keyed by Key, served stale-while-revalidate with one
// in-flight fetch per key.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"finboard/internal/cache"
	"finboard/internal/log"
)

// Forever marks a snapshot that never goes stale.
const Forever = time.Duration(math.MaxInt64)

type EventKind string

const (
	EventHit         EventKind = "hit"
	EventMiss        EventKind = "miss"
	EventStale       EventKind = "stale"
	EventFetched     EventKind = "fetched"
	EventDiscarded   EventKind = "discarded"
	EventFetchFailed EventKind = "fetch_failed"
	EventPatched     EventKind = "patched"
	EventInvalidated EventKind = "invalidated"
	EventCleared     EventKind = "cleared"
)

// Event is delivered to the observer after each cache transition.
type Event struct {
	Key  string
	Kind EventKind
}

type Client struct {
	store  cache.Store
	group  singleflight.Group
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	gens     map[string]uint64
	inflight map[string]int
	errs     map[string]error

	observer func(Event)

	bg       context.Context
	cancelBg context.CancelFunc
	wg       sync.WaitGroup
}

type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentQuery) }
}

// WithObserver registers a hook called on every cache transition.
func WithObserver(fn func(Event)) Option {
	return func(c *Client) { c.observer = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(store cache.Store, opts ...Option) *Client {
	bg, cancel := context.WithCancel(context.Background())
	c := &Client{
		store:    store,
		logger:   log.Discard(),
		now:      time.Now,
		gens:     make(map[string]uint64),
		inflight: make(map[string]int),
		errs:     make(map[string]error),
		bg:       bg,
		cancelBg: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wait blocks until background revalidations have finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close cancels background revalidations and waits for them.
func (c *Client) Close() {
	c.cancelBg()
	c.wg.Wait()
}

// IsFetching reports whether a fetch for key is in flight.
func (c *Client) IsFetching(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[key.String()] > 0
}

// Invalidate drops every snapshot whose key starts with prefix and
// disowns in-flight fetches for them, so their results are not stored.
func (c *Client) Invalidate(prefix Key) int {
	p := prefix.String()

	c.mu.Lock()
	for k := range c.inflight {
		if matchesPrefix(k, p) {
			c.gens[k]++
			c.group.Forget(k)
		}
	}
	var removed []string
	for _, k := range c.store.Keys(p) {
		if !matchesPrefix(k, p) {
			continue
		}
		c.gens[k]++
		c.store.Delete(k)
		delete(c.errs, k)
		removed = append(removed, k)
	}
	c.mu.Unlock()

	c.logger.Debug("Invalidated queries", log.FieldCacheKey, p, log.FieldOperation, log.OpInvalidate, "count", len(removed))
	for _, k := range removed {
		c.notify(k, EventInvalidated)
	}
	return len(removed)
}

// Clear drops every snapshot.
func (c *Client) Clear() {
	c.mu.Lock()
	for k := range c.inflight {
		c.gens[k]++
		c.group.Forget(k)
	}
	c.store.Clear()
	c.errs = make(map[string]error)
	c.mu.Unlock()

	c.logger.Debug("Cleared query cache")
	c.notify("", EventCleared)
}

// Keys lists the cached keys under prefix.
func (c *Client) Keys(prefix Key) []string {
	p := prefix.String()
	var out []string
	for _, k := range c.store.Keys(p) {
		if matchesPrefix(k, p) {
			out = append(out, k)
		}
	}
	return out
}

// SetData replaces the snapshot at key.
func SetData[T any](c *Client, key Key, data T) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	k := key.String()

	c.mu.Lock()
	c.gens[k]++
	c.store.Set(k, cache.Entry{Data: raw, UpdatedAt: c.now()})
	delete(c.errs, k)
	c.mu.Unlock()

	c.notify(k, EventPatched)
	return nil
}

// UpdateData patches the snapshot at key in place. Nothing happens when no
// snapshot exists; the next read fetches the full list instead.
func UpdateData[T any](c *Client, key Key, update func(T) T) (bool, error) {
	k := key.String()

	c.mu.Lock()
	entry, ok := c.store.Get(k)
	if !ok {
		c.mu.Unlock()
		return false, nil
	}
	var current T
	if err := json.Unmarshal(entry.Data, &current); err != nil {
		c.store.Delete(k)
		c.mu.Unlock()
		return false, fmt.Errorf("decode %s: %w", k, err)
	}
	raw, err := json.Marshal(update(current))
	if err != nil {
		c.mu.Unlock()
		return false, fmt.Errorf("encode %s: %w", k, err)
	}
	c.gens[k]++
	c.store.Set(k, cache.Entry{Data: raw, UpdatedAt: entry.UpdatedAt})
	c.mu.Unlock()

	c.notify(k, EventPatched)
	return true, nil
}

// Peek returns the snapshot at key without fetching.
func Peek[T any](c *Client, key Key) (T, time.Time, bool) {
	var data T
	entry, ok := c.store.Get(key.String())
	if !ok {
		return data, time.Time{}, false
	}
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return data, time.Time{}, false
	}
	return data, entry.UpdatedAt, true
}

func (c *Client) begin(k string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[k]++
	return c.gens[k]
}

func (c *Client) end(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[k]--; c.inflight[k] <= 0 {
		delete(c.inflight, k)
	}
}

// commit stores entry unless the key changed since the fetch began.
func (c *Client) commit(k string, gen uint64, entry cache.Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[k] != gen {
		return false
	}
	c.store.Set(k, entry)
	delete(c.errs, k)
	return true
}

func (c *Client) recordError(k string, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[k] == gen {
		c.errs[k] = err
	}
}

func (c *Client) lastError(k string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs[k]
}

func (c *Client) notify(k string, kind EventKind) {
	if c.observer != nil {
		c.observer(Event{Key: k, Kind: kind})
	}
}
