package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp(t *testing.T) {
	config1 := App()
	config2 := App()

	require.NotNil(t, config1)
	assert.Same(t, config1, config2, "App() should return singleton instance")
	assert.NotNil(t, config1.Validator, "Validator should be initialized")
}

func TestGetAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"APP_PORT", "APP_ENV", "API_KEY", "ALLOWED_ORIGINS", "ENABLE_OPENSEARCH_AUDIT", "PAYNOW_NOTIFICATION_IPS", "TRUSTED_PROXIES", "RATE_LIMIT_PER_MINUTE", "SHUTDOWN_TIMEOUT"} {
			t.Setenv(key, "")
		}
		ResetAppConfig()
		t.Cleanup(ResetAppConfig)

		cfg := GetAppConfig()
		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
		assert.False(t, cfg.EnableAudit)
		assert.Nil(t, cfg.NotificationIPs)
		assert.Nil(t, cfg.TrustedProxies)
		assert.Equal(t, 120, cfg.RateLimit)
		assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
		assert.Same(t, cfg, GetAppConfig())
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "production")
		t.Setenv("API_KEY", "secret")
		t.Setenv("ENABLE_OPENSEARCH_AUDIT", "true")
		t.Setenv("PAYNOW_NOTIFICATION_IPS", "5.196.116.32, 51.195.95.0/28,")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
		t.Setenv("SHUTDOWN_TIMEOUT", "3s")
		ResetAppConfig()
		t.Cleanup(ResetAppConfig)

		cfg := GetAppConfig()
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.True(t, cfg.EnableAudit)
		assert.Equal(t, []string{"5.196.116.32", "51.195.95.0/28"}, cfg.NotificationIPs)
		assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
		assert.Equal(t, 10, cfg.RateLimit)
		assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	})
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_BOOL", "maybe")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_DURATION", "250ms")
	t.Setenv("TEST_BAD_DURATION", "soon")

	assert.Equal(t, "value", GetEnv("TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnv("TEST_MISSING", "default"))

	assert.True(t, GetBoolEnv("TEST_BOOL", false))
	assert.True(t, GetBoolEnv("TEST_BAD_BOOL", true))

	assert.Equal(t, 42, GetIntEnv("TEST_INT", 0))
	assert.Equal(t, 7, GetIntEnv("TEST_BAD_INT", 7))

	assert.Equal(t, 250*time.Millisecond, GetDurationEnv("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetDurationEnv("TEST_BAD_DURATION", time.Second))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PAYNOW_TEST_LOADED=yes\nPAYNOW_TEST_PRESET=from-file\n"), 0o600))

	t.Setenv("PAYNOW_TEST_LOADED", "")
	os.Unsetenv("PAYNOW_TEST_LOADED")
	t.Setenv("PAYNOW_TEST_PRESET", "from-env")

	require.NoError(t, LoadEnv(path))
	t.Cleanup(func() { os.Unsetenv("PAYNOW_TEST_LOADED") })

	assert.Equal(t, "yes", os.Getenv("PAYNOW_TEST_LOADED"))
	assert.Equal(t, "from-env", os.Getenv("PAYNOW_TEST_PRESET"))

	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}
