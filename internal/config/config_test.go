package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	origTTL := os.Getenv("STORE_TTL_SEC")
	defer os.Setenv("STORE_TTL_SEC", origTTL)

	os.Setenv("STORE_TTL_SEC", "120")
	os.Setenv("DOWNLOAD_BASE_URL", "https://docs.example.com")
	os.Setenv("MINIO_USE_SSL", "true")
	defer os.Unsetenv("DOWNLOAD_BASE_URL")
	defer os.Unsetenv("MINIO_USE_SSL")

	cfg := Load()

	assert.Equal(t, 120, cfg.Store.TTLSec)
	assert.Equal(t, "https://docs.example.com", cfg.DownloadBaseURL)
	assert.True(t, cfg.MinIO.UseSSL)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("STORE_TTL_SEC")
	os.Unsetenv("STORE_MAX_ENTRIES")
	os.Unsetenv("FETCH_TIMEOUT_SEC")

	cfg := Load()

	assert.Equal(t, 3600, cfg.Store.TTLSec)
	assert.Equal(t, 1024, cfg.Store.MaxEntries)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSec)
	assert.Equal(t, "soffice", cfg.Convert.Binary)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
