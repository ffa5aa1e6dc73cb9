package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/queryauth/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("QUERYAUTH")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := LoadSecrets(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("backends.metrics.endpoint", "http://localhost:8481")
	v.SetDefault("backends.metrics.timeout", 30*time.Second)
	v.SetDefault("backends.logs.endpoint", "http://localhost:9428")
	v.SetDefault("backends.logs.timeout", 30*time.Second)
	v.SetDefault("backends.traces.endpoint", "http://localhost:10428")
	v.SetDefault("backends.traces.timeout", 30*time.Second)

	v.SetDefault("cache.addrs", []string{"localhost:6379"})
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.db", 0)

	v.SetDefault("auth.jwt.subject_claim", "sub")
	v.SetDefault("auth.jwt.tenant_claim", "tenant")
	v.SetDefault("auth.ldap.enabled", false)
	v.SetDefault("auth.ldap.group_attr", "memberOf")

	v.SetDefault("skip_enforcement.admin_role", "queryauth-admin")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Tenant-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.ping_interval", 30)

	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.service_name", "queryauth-gateway")
	v.SetDefault("monitoring.trace_sample_rate", 0.1)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.index_path", "/var/lib/queryauth/audit.bleve")

	v.SetDefault("admin.totp_issuer", "queryauth")
	v.SetDefault("admin.bcrypt_cost", 12)
}

// overrideWithEnvVars explicitly handles the subset of environment variables
// operators are most likely to set without a full config file.
func overrideWithEnvVars(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("port", p)
		}
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	if metricsEndpoint := os.Getenv("METRICS_BACKEND_ENDPOINT"); metricsEndpoint != "" {
		v.Set("backends.metrics.endpoint", metricsEndpoint)
	}
	if logsEndpoint := os.Getenv("LOGS_BACKEND_ENDPOINT"); logsEndpoint != "" {
		v.Set("backends.logs.endpoint", logsEndpoint)
	}
	if tracesEndpoint := os.Getenv("TRACES_BACKEND_ENDPOINT"); tracesEndpoint != "" {
		v.Set("backends.traces.endpoint", tracesEndpoint)
	}

	if cacheAddrs := os.Getenv("CACHE_ADDRS"); cacheAddrs != "" {
		addrs := strings.Split(cacheAddrs, ",")
		for i, a := range addrs {
			addrs[i] = strings.TrimSpace(a)
		}
		v.Set("cache.addrs", addrs)
	}

	if ldapURL := os.Getenv("LDAP_URL"); ldapURL != "" {
		v.Set("auth.ldap.url", ldapURL)
		v.Set("auth.ldap.enabled", true)
	}
	if ldapBaseDN := os.Getenv("LDAP_BASE_DN"); ldapBaseDN != "" {
		v.Set("auth.ldap.base_dn", ldapBaseDN)
	}

	if otlp := os.Getenv("OTLP_ENDPOINT"); otlp != "" {
		v.Set("monitoring.otlp_endpoint", otlp)
		v.Set("monitoring.tracing_enabled", true)
	}
}

// validateConfig validates the loaded configuration.
func validateConfig(cfg *Config) error {
	if err := ValidateEndpoint(cfg.Backends.Metrics.Endpoint); err != nil {
		return fmt.Errorf("invalid metrics backend endpoint: %w", err)
	}
	if err := ValidateEndpoint(cfg.Backends.Logs.Endpoint); err != nil {
		return fmt.Errorf("invalid logs backend endpoint: %w", err)
	}
	if err := ValidateEndpoint(cfg.Backends.Traces.Endpoint); err != nil {
		return fmt.Errorf("invalid traces backend endpoint: %w", err)
	}

	if len(cfg.Cache.Addrs) == 0 {
		return fmt.Errorf("at least one cache address is required")
	}
	for _, addr := range cfg.Cache.Addrs {
		if err := ValidateRedisNode(addr); err != nil {
			return fmt.Errorf("invalid cache address %s: %w", addr, err)
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", cfg.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validEnvironments := []string{"development", "staging", "production", "test"}
	if !contains(validEnvironments, cfg.Environment) {
		return fmt.Errorf("invalid environment: %s", cfg.Environment)
	}

	if cfg.Auth.JWT.Secret == "" && cfg.Environment == "production" {
		return fmt.Errorf("JWT secret is required in production")
	}

	if cfg.Auth.LDAP.Enabled && cfg.Auth.LDAP.URL == "" {
		return fmt.Errorf("LDAP URL is required when LDAP is enabled")
	}

	return nil
}
