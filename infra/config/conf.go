package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type CKey string

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port              string
	Environment       string
	APIKey            string
	AllowedOrigins    []string
	OpenSearchURL     string
	OpenSearchUser    string
	OpenSearchPass    string
	EnableAudit       bool
	NotificationIPs   []string
	TrustedProxies    []string
	RateLimit         int
	IdempotencyDBPath string
	ShutdownTimeout   time.Duration
}

var (
	instance     *Config
	instanceOnce sync.Once

	appConfigInstance *AppConfig
	appConfigMu       sync.Mutex
)

// App returns the process-wide config holding the shared validator
func App() *Config {
	instanceOnce.Do(func() {
		instance = &Config{
			Validator: validator.New(validator.WithRequiredStructEnabled()),
		}
	})
	return instance
}

// LoadEnv loads the given .env files (".env" when none are given). Missing files are ignored
// and variables already present in the environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	appConfigMu.Lock()
	defer appConfigMu.Unlock()

	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:              GetEnv("APP_PORT", "9999"),
			Environment:       GetEnv("APP_ENV", "development"),
			APIKey:            GetEnv("API_KEY", ""),
			AllowedOrigins:    GetListEnv("ALLOWED_ORIGINS", []string{"*"}),
			OpenSearchURL:     GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:    GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:    GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableAudit:       GetBoolEnv("ENABLE_OPENSEARCH_AUDIT", false),
			NotificationIPs:   GetListEnv("PAYNOW_NOTIFICATION_IPS", nil),
			TrustedProxies:    GetListEnv("TRUSTED_PROXIES", nil),
			RateLimit:         GetIntEnv("RATE_LIMIT_PER_MINUTE", 120),
			IdempotencyDBPath: GetEnv("IDEMPOTENCY_DB_PATH", "./data/idempotency.db"),
			ShutdownTimeout:   GetDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		}
	}
	return appConfigInstance
}

// ResetAppConfig drops the cached application configuration so the next
// GetAppConfig call reads the environment again
func ResetAppConfig() {
	appConfigMu.Lock()
	defer appConfigMu.Unlock()
	appConfigInstance = nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv returns the duration value of an environment variable or a default value
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetListEnv splits a comma separated variable, dropping empty items
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
