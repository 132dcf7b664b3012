// Package config loads client configuration from environment variables.
// A .env file in the working directory is honoured via godotenv.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "http://localhost:8000"

// Config holds all client configuration
type Config struct {
	// Backend base URL, without trailing slash
	APIURL string

	// Durable session file
	SessionFile string

	// Hold time of each generation progress caption
	ProgressDelay time.Duration

	Environment string // "development" | "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:        strings.TrimRight(getEnv("AUDITAI_API_URL", DefaultAPIURL), "/"),
		SessionFile:   getEnv("AUDITAI_SESSION_FILE", defaultSessionFile()),
		ProgressDelay: time.Duration(getEnvInt("AUDITAI_PROGRESS_DELAY_MS", 700)) * time.Millisecond,
		Environment:   getEnv("AUDITAI_ENV", "production"),
	}
	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".auditai", "session.json")
	}
	return filepath.Join(home, ".auditai", "session.json")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			return i
		}
	}
	return fallback
}
