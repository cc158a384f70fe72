// Package config provides configuration for the assistant server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Auth settings
	APIKey string // Static API key; empty disables the check.

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Handler collaborator settings
	AgentTimeout time.Duration

	// Session lifecycle
	SessionIdleTimeout time.Duration
	EvictInterval      time.Duration

	// Durable transcript; empty disables the archive.
	DatabaseURL string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8080),
		APIKey:             getEnv("API_KEY", ""),
		PingInterval:       time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:       time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:        time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:     int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		AgentTimeout:       time.Duration(getEnvInt("AGENT_TIMEOUT_MS", 30000)) * time.Millisecond,
		SessionIdleTimeout: time.Duration(getEnvInt("SESSION_IDLE_TIMEOUT_MS", 1800000)) * time.Millisecond,
		EvictInterval:      time.Duration(getEnvInt("EVICT_INTERVAL_MS", 300000)) * time.Millisecond,
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
