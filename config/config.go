package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything the server reads from the environment.
type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string

	// Expense recurrence
	MaxOccurrences int
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8000"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DatabaseURL:     getEnv("DATABASE_URL", "host=localhost port=5432 user=postgres password=postgres dbname=homebase sslmode=disable"),
		MaxOccurrences:  getEnvInt("MAX_RECURRING_OCCURRENCES", 100),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
