package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Only Load reads environment variables.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Pipeline
	Pipeline PipelineConfig

	// Providers
	Eastmoney ProviderConfig
	Yahoo     ProviderConfig
	Sina      ProviderConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration. Redis is optional; with it
// disabled the ranking cache is a no-op and pacing falls back to the
// in-process token bucket.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// PipelineConfig holds batch orchestration settings.
type PipelineConfig struct {
	// BaselineDate anchors every change-rate computation, YYYY-MM-DD.
	BaselineDate string
	// Workers bounds concurrent instrument fetches.
	Workers int
	// FetchTimeout is the per-provider-call deadline.
	FetchTimeout time.Duration
	// Schedule is the cron spec for the daily update job.
	Schedule string
}

// ProviderConfig holds one upstream source's settings.
type ProviderConfig struct {
	Enabled bool
	BaseURL string
	// RatePerSec and Burst shape the pacing token bucket; zero
	// RatePerSec means unpaced.
	RatePerSec float64
	Burst      int
	// Jitter adds a random component to pacing waits to avoid
	// synchronized request bursts across workers.
	Jitter time.Duration
}

// Load reads configuration from environment variables, optionally
// seeded from a .env file.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8085"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Pipeline: PipelineConfig{
			BaselineDate: getEnv("BASELINE_DATE", "2026-01-05"),
			Workers:      getEnvAsInt("BATCH_WORKERS", 4),
			FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", "20s"),
			Schedule:     getEnv("UPDATE_SCHEDULE", "0 30 17 * * 1-5"),
		},

		Eastmoney: ProviderConfig{
			Enabled: getEnvAsBool("EASTMONEY_ENABLED", true),
			BaseURL: getEnv("EASTMONEY_BASE_URL", "https://push2his.eastmoney.com"),
		},
		Yahoo: ProviderConfig{
			Enabled:    getEnvAsBool("YAHOO_ENABLED", true),
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RatePerSec: getEnvAsFloat("YAHOO_RATE_PER_SEC", 2),
			Burst:      getEnvAsInt("YAHOO_BURST", 1),
			Jitter:     getEnvAsDuration("YAHOO_JITTER", "300ms"),
		},
		Sina: ProviderConfig{
			Enabled: getEnvAsBool("SINA_ENABLED", true),
			BaseURL: getEnv("SINA_BASE_URL", "https://finance.sina.com.cn"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if _, err := time.Parse("2006-01-02", c.Pipeline.BaselineDate); err != nil {
		return fmt.Errorf("BASELINE_DATE must be YYYY-MM-DD: %w", err)
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}

	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
