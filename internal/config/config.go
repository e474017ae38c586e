package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, shared between the
// central API server and the device binary.
type Config struct {
	Env       string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Remote    RemoteConfig
	Sync      SyncConfig
	Redis     RedisConfig
}

// DatabaseConfig holds PostgreSQL connection settings. An empty
// password together with a localhost host selects the embedded
// zero-config database.
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// RemoteConfig points a device at the central server.
type RemoteConfig struct {
	BaseURL string
}

// SyncConfig controls the background sync engine on the device.
type SyncConfig struct {
	Enabled  bool
	Interval int // seconds between automatic cycles
}

// RedisConfig holds the optional server-side cache backend. An empty
// Addr falls back to the in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL_SECONDS: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "3000"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "supamart"),
		},
		Remote: RemoteConfig{
			BaseURL: getEnv("REMOTE_BASE_URL", "http://localhost:3000"),
		},
		Sync: SyncConfig{
			Enabled:  getEnv("SYNC_ENABLED", "true") == "true",
			Interval: syncInterval,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
