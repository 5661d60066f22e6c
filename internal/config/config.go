package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Local dashboard server
	Port string

	// Remote finance API
	APIBaseURL string
	APITimeout time.Duration

	// Session persistence
	SessionBackend string
	SessionDBPath  string

	// Query cache
	CacheBackend    string
	CacheMaxEntries int
	CacheRetention  time.Duration
	RedisURL        string

	// AMQP change events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Forecast auto-refresh
	ForecastRefreshInterval time.Duration

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	LogLevel string
}

const (
	DefaultAPIBaseURL = "http://localhost:8080/api/v1"

	CacheBackendMemory    = "memory"
	CacheBackendRistretto = "ristretto"
	CacheBackendRedis     = "redis"

	SessionBackendSQLite = "sqlite"
	SessionBackendMemory = "memory"
)

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		APIBaseURL: strings.TrimRight(getEnv("FINBOARD_API_URL", DefaultAPIBaseURL), "/"),
		APITimeout: getEnvDuration("API_TIMEOUT", 30*time.Second),

		SessionBackend: getEnv("SESSION_BACKEND", SessionBackendSQLite),
		SessionDBPath:  getEnv("SESSION_DB_PATH", "./data/finboard.db"),

		CacheBackend:    getEnv("CACHE_BACKEND", CacheBackendMemory),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 256),
		CacheRetention:  getEnvDuration("CACHE_RETENTION", 30*time.Minute),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "finboard_changes"),

		ForecastRefreshInterval: getEnvDuration("FORECAST_REFRESH_INTERVAL", 30*time.Minute),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Budgets"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.APIBaseURL == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	}

	validSessionBackends := []string{SessionBackendSQLite, SessionBackendMemory}
	if !slices.Contains(validSessionBackends, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validSessionBackends))
	}

	if c.SessionBackend == SessionBackendSQLite {
		if c.SessionDBPath == "" {
			errors = append(errors, "session database path cannot be empty when using sqlite session backend")
		} else {
			dir := filepath.Dir(c.SessionDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create session database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validCacheBackends := []string{CacheBackendMemory, CacheBackendRistretto, CacheBackendRedis}
	if !slices.Contains(validCacheBackends, c.CacheBackend) {
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of %v", c.CacheBackend, validCacheBackends))
	}

	if c.CacheMaxEntries < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache max entries %d: must be at least 1", c.CacheMaxEntries))
	}

	if c.CacheRetention < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid cache retention %v: must be at least 1 minute", c.CacheRetention))
	}

	if c.CacheBackend == CacheBackendRedis {
		if c.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required when using redis cache backend")
		} else if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ForecastRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid forecast refresh interval %v: must be at least 1 minute", c.ForecastRefreshInterval))
	} else if c.ForecastRefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid forecast refresh interval %v: must be at most 24 hours", c.ForecastRefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether change events should be published and consumed.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether report export to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
