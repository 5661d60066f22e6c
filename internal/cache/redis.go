package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"finboard/internal/log"
)

const (
	redisNamespace = "finboard:cache:"
	redisOpTimeout = 2 * time.Second
)

// RedisStore shares snapshots between finboard processes. Failures are
// logged and treated as misses; the remote API stays the source of truth.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	logger    *log.Logger
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, retention time.Duration, logger *log.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{
			Addr: strings.TrimPrefix(redisURL, "redis://"),
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		retention: retention,
		logger:    logger.WithComponent(log.ComponentCache),
	}, nil
}

func (s *RedisStore) Get(key string) (Entry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, redisNamespace+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Redis get failed", log.FieldCacheKey, key, log.FieldError, err)
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Warn("Dropping undecodable cache entry", log.FieldCacheKey, key, log.FieldError, err)
		return Entry{}, false
	}
	return e, true
}

func (s *RedisStore) Set(key string, e Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("Encode cache entry failed", log.FieldCacheKey, key, log.FieldError, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, redisNamespace+key, raw, s.retention).Err(); err != nil {
		s.logger.Warn("Redis set failed", log.FieldCacheKey, key, log.FieldError, err)
	}
}

func (s *RedisStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, redisNamespace+key).Err(); err != nil {
		s.logger.Warn("Redis delete failed", log.FieldCacheKey, key, log.FieldError, err)
	}
}

// Keys walks the namespace with SCAN; KEYS would block the server.
func (s *RedisStore) Keys(prefix string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pattern := redisNamespace + escapeGlob(prefix) + "*"
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.logger.Warn("Redis scan failed", log.FieldError, err)
			break
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, redisNamespace))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(out)
	return out
}

func (s *RedisStore) Clear() {
	keys := s.Keys("")
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = redisNamespace + k
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, full...).Err(); err != nil {
		s.logger.Warn("Redis clear failed", log.FieldError, err)
	}
}

func (s *RedisStore) Size() int {
	return len(s.Keys(""))
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
