package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadCLIDefaults_ReadsEnvironment(t *testing.T) {
	t.Setenv("ZEROX_API_KEY", "test-key")
	t.Setenv("ZEROX_TEMP_DIR", "/tmp/zerox-scratch")
	t.Setenv("ZEROX_CONCURRENCY", "7")
	t.Setenv("ZEROX_MAX_RETRIES", "2")

	defaults := LoadCLIDefaults()
	assert.Equal(t, "test-key", defaults.APIKey)
	assert.Equal(t, "/tmp/zerox-scratch", defaults.TempDir)
	assert.Equal(t, 7, defaults.Concurrency)
	assert.Equal(t, 2, defaults.MaxRetries)
}

func TestLoadCLIDefaults_MissingEnvYieldsZeroValues(t *testing.T) {
	os.Unsetenv("ZEROX_API_KEY")
	os.Unsetenv("ZEROX_TEMP_DIR")
	os.Unsetenv("ZEROX_CONCURRENCY")
	os.Unsetenv("ZEROX_MAX_RETRIES")

	defaults := LoadCLIDefaults()
	assert.Empty(t, defaults.APIKey)
	assert.Empty(t, defaults.TempDir)
	assert.Equal(t, 0, defaults.Concurrency)
	assert.Equal(t, 0, defaults.MaxRetries)
}

func TestGetEnvAsIntOrDefault_InvalidValueFallsBack(t *testing.T) {
	t.Setenv("ZEROX_CONCURRENCY", "not-a-number")
	defaults := LoadCLIDefaults()
	assert.Equal(t, 0, defaults.Concurrency)
}
