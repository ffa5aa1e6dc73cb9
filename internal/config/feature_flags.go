package config

// FeatureFlags controls optional behavior of the enforcement gateway per tenant.
type FeatureFlags struct {
	AuditSearch        bool `mapstructure:"audit_search" yaml:"audit_search"`
	CacheInvalidations bool `mapstructure:"cache_invalidations" yaml:"cache_invalidations"`
	StrictDialectCheck bool `mapstructure:"strict_dialect_check" yaml:"strict_dialect_check"`
}

// GetFeatureFlags returns feature flags for a tenant, layering environment
// defaults under any tenant-specific overrides (not yet backed by a store,
// so every tenant currently gets the environment defaults).
func (c *Config) GetFeatureFlags(tenantID string) *FeatureFlags {
	flags := &FeatureFlags{
		AuditSearch:        c.Audit.Enabled,
		CacheInvalidations: c.WebSocket.Enabled,
		StrictDialectCheck: true,
	}

	switch c.Environment {
	case "development":
		flags.StrictDialectCheck = false
	case "test":
		flags.AuditSearch = false
		flags.CacheInvalidations = false
	}

	return flags
}
