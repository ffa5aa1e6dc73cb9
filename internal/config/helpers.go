package config

import (
	"encoding/json"
	"os"
	"strconv"
)

// contains checks if a string slice contains a specific value.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfigFromEnv loads minimal configuration from environment variables only.
func GetConfigFromEnv() *Config {
	cfg := GetDefaultConfig()

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest returns true if running in test environment.
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

// ValidateEndpoints validates every configured backend and cache address.
func (c *Config) ValidateEndpoints() error {
	if err := ValidateEndpoint(c.Backends.Metrics.Endpoint); err != nil {
		return err
	}
	if err := ValidateEndpoint(c.Backends.Logs.Endpoint); err != nil {
		return err
	}
	if err := ValidateEndpoint(c.Backends.Traces.Endpoint); err != nil {
		return err
	}
	for _, node := range c.Cache.Addrs {
		if err := ValidateRedisNode(node); err != nil {
			return err
		}
	}
	return nil
}

// ToJSON renders the configuration as indented JSON with secrets redacted,
// for admin diagnostics endpoints.
func (c *Config) ToJSON() string {
	safeCopy := *c
	safeCopy.Auth.JWT.Secret = "[REDACTED]"
	safeCopy.Auth.LDAP.Password = "[REDACTED]"
	safeCopy.Cache.Password = "[REDACTED]"

	jsonBytes, _ := json.MarshalIndent(safeCopy, "", "  ")
	return string(jsonBytes)
}
