package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"

	"finsight/internal/log"
)

var (
	validBackends      = []string{"memory", "sheets", "sqlite"}
	validCacheBackends = []string{"memory", "redis"}
	validLogFormats    = []string{"text", "json"}
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string
	DataDir     string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleBudgetRange        string
	GoogleSheetsUserID       string

	// AMQP
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPNotifyQueue string

	// Cache
	CacheBackend  string
	CacheSize     int
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Worker
	RefreshInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		DataDir:     getEnv("DATA_DIR", "./data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finsight.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleBudgetRange:        getEnv("GOOGLE_BUDGET_RANGE", "Budget!A2"),
		GoogleSheetsUserID:       getEnv("GOOGLE_SHEETS_USER_ID", "me"),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "finsight"),
		AMQPQueue:       getEnv("AMQP_QUEUE", "snapshot_changed"),
		AMQPNotifyQueue: getEnv("AMQP_NOTIFY_QUEUE", ""),

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		CacheSize:     getEnvInt("CACHE_SIZE", 256),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		add("invalid port '%s': must be a number", c.Port)
	} else if port < 1 || port > 65535 {
		add("invalid port %d: must be between 1 and 65535", port)
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		add("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends)
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			add("SQLite database path cannot be empty when using sqlite backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			add("Google Spreadsheet ID is required when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			add("either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				add("Google service account file does not exist: %s", c.GoogleServiceAccountFile)
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			add("invalid AMQP URL '%s': %v", c.AMQPURL, err)
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			add("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme)
		}
		if c.AMQPExchange == "" {
			add("AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			add("AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validCacheBackends, c.CacheBackend) {
		add("invalid cache backend '%s': must be one of %v", c.CacheBackend, validCacheBackends)
	}
	if c.CacheBackend == "redis" && c.RedisAddr == "" {
		add("REDIS_ADDR is required when using redis cache backend")
	}
	if c.CacheSize < 1 {
		add("invalid cache size %d: must be at least 1", c.CacheSize)
	}
	if c.CacheTTL <= 0 {
		add("invalid cache TTL %v: must be positive", c.CacheTTL)
	}
	if c.RedisDB < 0 {
		add("invalid redis db %d: must not be negative", c.RedisDB)
	}

	if c.RefreshInterval < time.Second {
		add("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval)
	} else if c.RefreshInterval > 24*time.Hour {
		add("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		add("invalid log level: %v", err)
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		add("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}
	return nil
}

// Logger builds the root logger described by LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.LogFormat
	cfg.Component = component
	return log.New(cfg)
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
