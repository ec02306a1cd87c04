// Package config reads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application-level configuration.
type Config struct {
	// Persistence
	DatabasePath string

	// API
	APIPort int

	// Crawl defaults handed to the external crawler
	Currency string
	Months   int // how many months of calendar to request per listing
}

// Load reads configuration from the environment, falling back to
// defaults. A .env file in the working directory is merged in first when
// present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabasePath: getEnv("DATABASE_PATH", "airbnb.db"),
		APIPort:      getEnvInt("API_PORT", 8080),
		Currency:     getEnv("CURRENCY", ""),
		Months:       getEnvInt("AVAILABILITY_MONTHS", 6),
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
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
