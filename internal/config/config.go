package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicer/internal/logger"

	"github.com/joho/godotenv"
)

// EnvFiles are read by LoadDotEnv in order; the first file to set a variable wins.
var EnvFiles = []string{"configs/.env", ".env"}

// Store drivers understood by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	// HTTP
	Port        string
	GinMode     string
	CORSOrigins []string

	// Key-value store
	StoreDriver     string
	SQLitePath      string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	StoreQuotaBytes int

	// Autosave
	DraftDelay time.Duration
	EditDelay  time.Duration

	// Repositories
	ProtectLastRecord bool

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// LoadDotEnv reads the env files that exist into the process environment. Variables
// already set are left alone. It returns the files that were loaded.
func LoadDotEnv() []string {
	var loaded []string
	for _, file := range EnvFiles {
		if err := godotenv.Load(file); err == nil {
			loaded = append(loaded, file)
		}
	}
	return loaded
}

func Load() (*Config, error) {
	draftDelay, err := time.ParseDuration(getEnv("AUTOSAVE_DRAFT_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOSAVE_DRAFT_DELAY: %w", err)
	}
	editDelay, err := time.ParseDuration(getEnv("AUTOSAVE_EDIT_DELAY", "500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOSAVE_EDIT_DELAY: %w", err)
	}
	quota, err := strconv.Atoi(getEnv("STORE_QUOTA_BYTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_QUOTA_BYTES: %w", err)
	}
	protect, err := strconv.ParseBool(getEnv("PROTECT_LAST_RECORD", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROTECT_LAST_RECORD: %w", err)
	}

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:        getEnv("SQLITE_PATH", "invoicer.db"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "postgres"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		StoreQuotaBytes:   quota,
		DraftDelay:        draftDelay,
		EditDelay:         editDelay,
		ProtectLastRecord: protect,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:         getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres (got %q)", c.StoreDriver)
	}
	if c.StoreDriver == DriverSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
	}
	if c.DraftDelay <= 0 || c.EditDelay <= 0 {
		return fmt.Errorf("autosave delays must be positive")
	}
	if c.StoreQuotaBytes < 0 {
		return fmt.Errorf("STORE_QUOTA_BYTES must not be negative")
	}
	return nil
}

// PostgresDSN builds the connection string from the DB_* variables
func (c *Config) PostgresDSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
