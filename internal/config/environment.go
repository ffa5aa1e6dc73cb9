package config

import "time"

// LoadEnvironmentConfig loads configuration and applies environment-specific
// overrides on top of it.
func LoadEnvironmentConfig(env string) (*Config, error) {
	base, err := Load()
	if err != nil {
		return nil, err
	}

	switch env {
	case "production":
		return applyProductionConfig(base), nil
	case "staging":
		return applyStagingConfig(base), nil
	case "development":
		return applyDevelopmentConfig(base), nil
	case "test":
		return applyTestConfig(base), nil
	default:
		return base, nil
	}
}

func applyProductionConfig(cfg *Config) *Config {
	cfg.LogLevel = "warn"
	cfg.WebSocket.MaxConnections = 5000
	cfg.Cache.TTL = 10 * time.Minute
	cfg.Monitoring.TracingEnabled = true
	return cfg
}

func applyStagingConfig(cfg *Config) *Config {
	cfg.LogLevel = "info"
	return cfg
}

func applyDevelopmentConfig(cfg *Config) *Config {
	cfg.LogLevel = "debug"
	cfg.CORS.AllowedOrigins = []string{"*"}
	return cfg
}

func applyTestConfig(cfg *Config) *Config {
	cfg.LogLevel = "error"
	cfg.WebSocket.Enabled = false
	cfg.Audit.Enabled = false
	return cfg
}
