package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds the ambient demo HTTP server configuration.
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// MongoConfig holds document store connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// ClaimDefaultsConfig holds the default TTL and batch limit applied when a
// claim create request omits them.
type ClaimDefaultsConfig struct {
	DefaultTTLSeconds int
	DefaultLimit      int
	MaxLimit          int
}

// WorkerConfig holds the ambient background worker configuration. These
// workers never mutate claim state; they only observe and log.
type WorkerConfig struct {
	PoolMonitorInterval time.Duration
	StatsInterval       time.Duration
}

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Log    LogConfig
	Claim  ClaimDefaultsConfig
	Worker WorkerConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "queued"),
			ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			PingTimeout:    getEnvAsDuration("MONGO_PING_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Claim: ClaimDefaultsConfig{
			DefaultTTLSeconds: getEnvAsInt("CLAIM_DEFAULT_TTL_SECONDS", 60),
			DefaultLimit:      getEnvAsInt("CLAIM_DEFAULT_LIMIT", 10),
			MaxLimit:          getEnvAsInt("CLAIM_MAX_LIMIT", 20),
		},
		Worker: WorkerConfig{
			PoolMonitorInterval: getEnvAsDuration("POOL_MONITOR_INTERVAL", 30*time.Second),
			StatsInterval:       getEnvAsDuration("STATS_INTERVAL", 60*time.Second),
		},
	}

	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.Mongo.Database == "" {
		return nil, fmt.Errorf("MONGO_DATABASE is required")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
