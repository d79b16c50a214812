package config

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// paynowEnv maps processor config keys to their environment variables
var paynowEnv = map[string]string{
	"apiKey":          "PAYNOW_API_KEY",
	"signatureKey":    "PAYNOW_SIGNATURE_KEY",
	"environment":     "PAYNOW_ENVIRONMENT",
	"continueUrl":     "PAYNOW_CONTINUE_URL",
	"notificationUrl": "PAYNOW_NOTIFICATION_URL",
	"timeout":         "PAYNOW_TIMEOUT",
	"baseUrl":         "PAYNOW_BASE_URL",
}

var paynowDefaults = map[string]string{
	"environment": "sandbox",
	"timeout":     "30s",
}

// ProviderConfig manages payment processor configurations
type ProviderConfig struct {
	configs map[string]map[string]string
	mu      sync.RWMutex
}

// NewProviderConfig creates an empty provider configuration
func NewProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		configs: make(map[string]map[string]string),
	}
}

// LoadFromEnv reads the Paynow configuration from the environment.
// Paynow is skipped when no API key is set.
func (c *ProviderConfig) LoadFromEnv() {
	conf := make(map[string]string, len(paynowEnv))
	for key, env := range paynowEnv {
		if value := GetEnv(env, paynowDefaults[key]); value != "" {
			conf[key] = value
		}
	}
	if conf["apiKey"] == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs["paynow"] = conf
}

// GetConfig returns a copy of the configuration of a processor
func (c *ProviderConfig) GetConfig(providerName string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, exists := c.configs[strings.ToLower(providerName)]
	if !exists {
		return nil, fmt.Errorf("no configuration found for provider: %s", providerName)
	}
	return maps.Clone(config), nil
}
