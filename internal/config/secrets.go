package config

import (
	"fmt"
	"os"
	"strings"
)

// LoadSecrets loads sensitive configuration from environment variables or
// the files they point at, overriding whatever Load's viper pass set.
func LoadSecrets(cfg *Config) error {
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		cfg.Auth.JWT.Secret = jwtSecret
	} else if secretFile := os.Getenv("JWT_SECRET_FILE"); secretFile != "" {
		secret, err := os.ReadFile(secretFile)
		if err != nil {
			return fmt.Errorf("failed to read JWT secret file: %w", err)
		}
		cfg.Auth.JWT.Secret = strings.TrimSpace(string(secret))
	} else if cfg.Auth.JWT.Secret == "" && (cfg.Environment == "development" || cfg.Environment == "test") {
		cfg.Auth.JWT.Secret = "development-secret-key-not-for-production"
	}

	if ldapPassword := os.Getenv("LDAP_PASSWORD"); ldapPassword != "" {
		cfg.Auth.LDAP.Password = ldapPassword
	} else if passwordFile := os.Getenv("LDAP_PASSWORD_FILE"); passwordFile != "" {
		password, err := os.ReadFile(passwordFile)
		if err != nil {
			return fmt.Errorf("failed to read LDAP password file: %w", err)
		}
		cfg.Auth.LDAP.Password = strings.TrimSpace(string(password))
	}

	if cachePassword := os.Getenv("CACHE_PASSWORD"); cachePassword != "" {
		cfg.Cache.Password = cachePassword
	} else if passwordFile := os.Getenv("CACHE_PASSWORD_FILE"); passwordFile != "" {
		password, err := os.ReadFile(passwordFile)
		if err != nil {
			return fmt.Errorf("failed to read cache password file: %w", err)
		}
		cfg.Cache.Password = strings.TrimSpace(string(password))
	}

	return nil
}
