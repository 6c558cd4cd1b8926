// Package config loads the ambient defaults used by the cmd/zerox CLI
// frontend. The zerox library entrypoint itself never reads the
// environment — only this package does, to populate a default argument
// bundle before handing control to the library.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// CLIDefaults holds the environment-sourced defaults the CLI overlays with
// flags before calling the library.
type CLIDefaults struct {
	APIKey      string
	TempDir     string
	Concurrency int
	MaxRetries  int
}

// LoadCLIDefaults loads an optional .env file (if present) and reads the
// ambient defaults from the environment. Missing values fall back to the
// library's own defaults (zero values here signal "let zerox decide").
func LoadCLIDefaults() *CLIDefaults {
	_ = godotenv.Load()

	return &CLIDefaults{
		APIKey:      os.Getenv("ZEROX_API_KEY"),
		TempDir:     getEnvOrDefault("ZEROX_TEMP_DIR", ""),
		Concurrency: getEnvAsIntOrDefault("ZEROX_CONCURRENCY", 0),
		MaxRetries:  getEnvAsIntOrDefault("ZEROX_MAX_RETRIES", 0),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
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
