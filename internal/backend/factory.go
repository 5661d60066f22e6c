package backend

import (
	"context"
	"fmt"

	"finboard/internal/cache"
	"finboard/internal/log"
	"finboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateCache implements Factory.CreateCache
func (f *DefaultFactory) CreateCache(ctx context.Context, config Config) (*CacheResult, error) {
	switch config.CacheType {
	case MemoryCache:
		store := cache.NewMemoryStore(config.CacheMaxEntries, config.CacheRetention)
		f.logger.InfoContext(ctx, "Initialized memory cache", "max_entries", config.CacheMaxEntries)
		return &CacheResult{Store: store, Cleaner: store}, nil

	case RistrettoCache:
		store, err := cache.NewRistrettoStore(config.CacheMaxEntries, config.CacheRetention)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ristretto cache: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized ristretto cache", "max_entries", config.CacheMaxEntries)
		return &CacheResult{
			Store:   store,
			Cleanup: func() error { store.Close(); return nil },
		}, nil

	case RedisCache:
		store, err := cache.NewRedisStore(config.RedisURL, config.CacheRetention, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized redis cache")
		return &CacheResult{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", config.CacheType)
	}
}

// CreateSessions implements Factory.CreateSessions
func (f *DefaultFactory) CreateSessions(ctx context.Context, config Config) (*SessionResult, error) {
	switch config.SessionType {
	case SQLiteSessions:
		store, err := storage.NewSQLiteSessionStore(config.SessionDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite session store", "db_path", config.SessionDBPath)
		return &SessionResult{Store: store, Cleanup: store.Close}, nil

	case MemorySessions:
		return &SessionResult{Store: storage.NewMemorySessionStore()}, nil

	default:
		return nil, fmt.Errorf("unsupported session backend: %s", config.SessionType)
	}
}
