// Package config loads the application configuration from environment
// variables. The commands call godotenv before Load, so a local .env
// file works in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Logging
	LogLevel string

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Rates feed
	RatesFeedURL         string
	RatesRefreshInterval time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cheltuieli.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cheltuieli"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "snapshot_saved"),

		RatesFeedURL:         getEnv("RATES_FEED_URL", ""),
		RatesRefreshInterval: getEnvDuration("RATES_REFRESH_INTERVAL", 6*time.Hour),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
	}
	return cfg
}

// Validate checks the configuration and returns one error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be memory or sqlite", c.DataBackend))
	}

	if c.DataBackend == "sqlite" && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLITE_DB_PATH must be set for the sqlite backend")
	}

	if c.RatesRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("rates refresh interval %s too short: minimum 1m", c.RatesRefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
