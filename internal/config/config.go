package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"puntos/internal/core"
)

// Backends accepted in DATA_BACKEND.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
	BackendMemory   = "memory"
)

var validBackends = []string{BackendFile, BackendSQLite, BackendPostgres, BackendSheets, BackendMemory}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// File backend
	DataDir               string
	ActivitiesCatalogFile string
	RewardsCatalogFile    string

	// SQLite
	SQLiteDBPath string

	// Postgres (hosted)
	DatabaseURL     string
	DatabaseMaxConn int

	// Google Sheets
	GoogleSpreadsheetID    string
	GoogleCredentialsJSON  string
	GoogleCredentialsFile  string
	GoogleActivitiesSheet  string
	GoogleRewardsSheet     string
	GoogleActivityLogSheet string
	GoogleRedemptionsSheet string

	// AMQP (optional ledger events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Catalog cache
	RedisURL        string
	CatalogCacheTTL time.Duration

	StoreTimeout time.Duration
	People       []string
	Timezone     string
	LogLevel     string

	// envErrors holds values Load could not parse; Validate reports them.
	envErrors []string
}

func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		databaseURL = getEnv("SUPABASE_DB_URL", "")
	}
	var problems []string
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: strings.ToLower(getEnv("DATA_BACKEND", BackendFile)),

		DataDir:               getEnv("DATA_DIR", "data"),
		ActivitiesCatalogFile: getEnv("ACTIVITIES_CATALOG_FILE", ""),
		RewardsCatalogFile:    getEnv("REWARDS_CATALOG_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/puntos.db"),

		DatabaseURL:     databaseURL,
		DatabaseMaxConn: getEnvInt("DATABASE_MAX_CONNS", 5, &problems),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON:  getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile:  getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleActivitiesSheet:  getEnv("GOOGLE_ACTIVITIES_SHEET", ""),
		GoogleRewardsSheet:     getEnv("GOOGLE_REWARDS_SHEET", ""),
		GoogleActivityLogSheet: getEnv("GOOGLE_ACTIVITY_LOG_SHEET", ""),
		GoogleRedemptionsSheet: getEnv("GOOGLE_REDEMPTION_LOG_SHEET", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "puntos"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "puntos_ledger"),

		RedisURL:        getEnv("REDIS_URL", ""),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute, &problems),

		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second, &problems),
		People:       getEnvList("PUNTOS_PEOPLE", core.DefaultRoster.Names()),
		Timezone:     getEnv("TIMEZONE", "Local"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
	cfg.envErrors = problems
	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.envErrors...)

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL (or SUPABASE_DB_URL) is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid database URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
		if c.DatabaseMaxConn < 1 {
			errors = append(errors, fmt.Sprintf("invalid database max connections %d: must be at least 1", c.DatabaseMaxConn))
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': must start with redis:// or rediss://", c.RedisURL))
		}
	}

	if c.CatalogCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid catalog cache TTL %v: cannot be negative", c.CatalogCacheTTL))
	}
	if c.StoreTimeout < 100*time.Millisecond || c.StoreTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be between 100ms and 2m", c.StoreTimeout))
	}
	if _, err := core.NewRoster(c.People); err != nil {
		errors = append(errors, fmt.Sprintf("invalid PUNTOS_PEOPLE: %v", err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("%w: configuration validation failed:\n- %s", core.ErrConfiguration, strings.Join(errors, "\n- "))
	}

	return nil
}

// Roster returns the configured pair of people. Call after Validate.
func (c *Config) Roster() core.Roster {
	r, err := core.NewRoster(c.People)
	if err != nil {
		return core.DefaultRoster
	}
	return r
}

// Location returns the configured timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the default when key is unset or unparseable; the
// latter is recorded in problems.
func getEnvInt(key string, defaultValue int, problems *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid %s '%s': must be a whole number", key, value))
		return defaultValue
	}
	return i
}

func getEnvDuration(key string, defaultValue time.Duration, problems *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid %s '%s': must be a duration such as 5s or 2m", key, value))
		return defaultValue
	}
	return d
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
