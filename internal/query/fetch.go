package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finboard/internal/cache"
	"finboard/internal/log"
)

// Options describe one cached query.
type Options struct {
	Key       Key
	StaleTime time.Duration
	Retry     RetryFunc // nil means DefaultRetry
}

// Result is a snapshot served from the cache or a fresh fetch.
type Result[T any] struct {
	Data      T
	UpdatedAt time.Time
	// Stale is set when the snapshot is past its stale time and a background
	// revalidation was started.
	Stale bool
	// Err holds the last failed refetch while an older snapshot is served.
	Err error
}

// fetched holds the encoded result so every coalesced caller decodes its
// own copy.
type fetched struct {
	raw       []byte
	updatedAt time.Time
	stored    bool
}

// Fetch returns the cached snapshot for opts.Key. A fresh snapshot is
// returned as is; a stale one is returned immediately while one background
// revalidation runs; without a snapshot the call blocks on the fetch.
// Concurrent fetches of the same key share one call to fn.
func Fetch[T any](ctx context.Context, c *Client, opts Options, fn func(ctx context.Context) (T, error)) (Result[T], error) {
	k := opts.Key.String()

	if entry, ok := c.store.Get(k); ok {
		var data T
		if err := json.Unmarshal(entry.Data, &data); err == nil {
			res := Result[T]{Data: data, UpdatedAt: entry.UpdatedAt, Err: c.lastError(k)}
			if c.now().Sub(entry.UpdatedAt) >= opts.StaleTime {
				res.Stale = true
				c.revalidate(k, opts.Retry, erase(fn))
				c.logger.DebugContext(ctx, "Serving stale snapshot", log.FieldCacheKey, k, log.FieldOperation, log.OpRevalidate)
				c.notify(k, EventStale)
			} else {
				c.logger.DebugContext(ctx, "Cache hit", log.FieldCacheKey, k)
				c.notify(k, EventHit)
			}
			return res, nil
		}
		c.store.Delete(k)
	}

	c.logger.DebugContext(ctx, "Cache miss", log.FieldCacheKey, k)
	c.notify(k, EventMiss)

	f, err := c.fetch(ctx, k, opts.Retry, erase(fn))
	if err != nil {
		return Result[T]{}, err
	}
	var data T
	if err := json.Unmarshal(f.raw, &data); err != nil {
		return Result[T]{}, fmt.Errorf("decode %s: %w", k, err)
	}
	return Result[T]{Data: data, UpdatedAt: f.updatedAt}, nil
}

// Refetch fetches opts.Key regardless of staleness. When the fetch fails
// and an older snapshot exists, the snapshot is returned with Err set.
func Refetch[T any](ctx context.Context, c *Client, opts Options, fn func(ctx context.Context) (T, error)) (Result[T], error) {
	k := opts.Key.String()

	f, err := c.fetch(ctx, k, opts.Retry, erase(fn))
	if err != nil {
		if data, updatedAt, ok := Peek[T](c, opts.Key); ok {
			return Result[T]{Data: data, UpdatedAt: updatedAt, Err: err}, nil
		}
		return Result[T]{}, err
	}
	var data T
	if err := json.Unmarshal(f.raw, &data); err != nil {
		return Result[T]{}, fmt.Errorf("decode %s: %w", k, err)
	}
	return Result[T]{Data: data, UpdatedAt: f.updatedAt}, nil
}

func erase[T any](fn func(ctx context.Context) (T, error)) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

func (c *Client) fetch(ctx context.Context, k string, retry RetryFunc, fn func(ctx context.Context) (any, error)) (fetched, error) {
	if retry == nil {
		retry = DefaultRetry
	}
	v, err, _ := c.group.Do(k, func() (any, error) {
		gen := c.begin(k)
		defer c.end(k)

		value, err := c.runWithRetry(ctx, k, retry, fn)
		if err != nil {
			c.recordError(k, gen, err)
			c.logger.WarnContext(ctx, "Query fetch failed", log.FieldCacheKey, k, log.FieldError, err)
			c.notify(k, EventFetchFailed)
			return nil, err
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		f := fetched{raw: raw, updatedAt: c.now()}
		f.stored = c.commit(k, gen, cache.Entry{Data: raw, UpdatedAt: f.updatedAt})
		if f.stored {
			c.notify(k, EventFetched)
		} else {
			c.logger.DebugContext(ctx, "Discarding result of invalidated fetch", log.FieldCacheKey, k)
			c.notify(k, EventDiscarded)
		}
		return f, nil
	})
	if err != nil {
		return fetched{}, err
	}
	return v.(fetched), nil
}

func (c *Client) runWithRetry(ctx context.Context, k string, retry RetryFunc, fn func(ctx context.Context) (any, error)) (any, error) {
	failures := 0
	for {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !retry(failures, err) {
			return nil, err
		}
		failures++
		c.logger.DebugContext(ctx, "Retrying query", log.FieldCacheKey, k, log.FieldAttempt, failures+1, log.FieldError, err)
	}
}

// revalidate starts a background fetch unless one is already running.
func (c *Client) revalidate(k string, retry RetryFunc, fn func(ctx context.Context) (any, error)) {
	c.mu.Lock()
	busy := c.inflight[k] > 0
	c.mu.Unlock()
	if busy || c.bg.Err() != nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.fetch(c.bg, k, retry, fn)
	}()
}
