package backend

import (
	"context"
	"time"

	"finboard/internal/cache"
	"finboard/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// CacheResult contains the snapshot store and its optional cleanup hooks.
type CacheResult struct {
	Store cache.Store
	// Cleaner is set for stores that need periodic expiry sweeps.
	Cleaner cache.Cleaner
	Cleanup CleanupFunc
}

// SessionResult contains the session store and its optional cleanup function.
type SessionResult struct {
	Store   storage.SessionStore
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateCache(ctx context.Context, config Config) (*CacheResult, error)
	CreateSessions(ctx context.Context, config Config) (*SessionResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	CacheType       CacheType
	CacheMaxEntries int
	CacheRetention  time.Duration
	RedisURL        string

	SessionType   SessionType
	SessionDBPath string
}

// CacheType selects where query snapshots live.
type CacheType string

const (
	MemoryCache    CacheType = "memory"
	RistrettoCache CacheType = "ristretto"
	RedisCache     CacheType = "redis"
)

// String implements fmt.Stringer
func (t CacheType) String() string {
	return string(t)
}

// IsValid returns true if the cache type is known
func (t CacheType) IsValid() bool {
	switch t {
	case MemoryCache, RistrettoCache, RedisCache:
		return true
	default:
		return false
	}
}

// SessionType selects where the auth session is kept.
type SessionType string

const (
	SQLiteSessions SessionType = "sqlite"
	MemorySessions SessionType = "memory"
)

func (t SessionType) String() string {
	return string(t)
}

func (t SessionType) IsValid() bool {
	return t == SQLiteSessions || t == MemorySessions
}
