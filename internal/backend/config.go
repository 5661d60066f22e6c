package backend

import (
	"fmt"

	"finboard/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		CacheType:       CacheType(appConfig.CacheBackend),
		CacheMaxEntries: appConfig.CacheMaxEntries,
		CacheRetention:  appConfig.CacheRetention,
		RedisURL:        appConfig.RedisURL,
		SessionType:     SessionType(appConfig.SessionBackend),
		SessionDBPath:   appConfig.SessionDBPath,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.CacheType.IsValid() {
		return fmt.Errorf("invalid cache backend: %s", c.CacheType)
	}
	if !c.SessionType.IsValid() {
		return fmt.Errorf("invalid session backend: %s", c.SessionType)
	}
	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("cache max entries must be positive, got %d", c.CacheMaxEntries)
	}
	if c.CacheType == RedisCache && c.RedisURL == "" {
		return fmt.Errorf("Redis URL is required for redis cache backend")
	}
	if c.SessionType == SQLiteSessions && c.SessionDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite session backend")
	}
	return nil
}

// GetCacheTypes returns all valid cache backend types
func GetCacheTypes() []CacheType {
	return []CacheType{MemoryCache, RistrettoCache, RedisCache}
}

// GetCacheTypeStrings returns all valid cache backend type strings
func GetCacheTypeStrings() []string {
	types := GetCacheTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
