package config

import "time"

// Config is the top-level configuration for the enforcement gateway.
type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Backends        BackendsConfig        `mapstructure:"backends" yaml:"backends"`
	Cache           CacheConfig           `mapstructure:"cache" yaml:"cache"`
	Auth            AuthConfig            `mapstructure:"auth" yaml:"auth"`
	SkipEnforcement SkipEnforcementConfig `mapstructure:"skip_enforcement" yaml:"skip_enforcement"`
	CORS            CORSConfig            `mapstructure:"cors" yaml:"cors"`
	WebSocket       WebSocketConfig       `mapstructure:"websocket" yaml:"websocket"`
	Monitoring      MonitoringConfig      `mapstructure:"monitoring" yaml:"monitoring"`
	Audit           AuditConfig           `mapstructure:"audit" yaml:"audit"`
	Admin           AdminConfig           `mapstructure:"admin" yaml:"admin"`
}

// BackendConfig describes one proxied query backend.
type BackendConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Dialect overrides the language this backend's selectors are parsed
	// as (promql, logql, traceql); empty means infer from the route.
	Dialect string `mapstructure:"dialect" yaml:"dialect"`
}

// BackendsConfig holds the three query-language backends this gateway proxies to.
type BackendsConfig struct {
	Metrics BackendConfig `mapstructure:"metrics" yaml:"metrics"`
	Logs    BackendConfig `mapstructure:"logs" yaml:"logs"`
	Traces  BackendConfig `mapstructure:"traces" yaml:"traces"`
}

// CacheConfig configures the redis-backed constraint-map store.
type CacheConfig struct {
	Addrs    []string      `mapstructure:"addrs" yaml:"addrs"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// AuthConfig configures bearer-token decoding and LDAP group resolution.
type AuthConfig struct {
	JWT  JWTConfig  `mapstructure:"jwt" yaml:"jwt"`
	LDAP LDAPConfig `mapstructure:"ldap" yaml:"ldap"`
}

type JWTConfig struct {
	Secret         string `mapstructure:"secret" yaml:"secret"`
	SubjectClaim   string `mapstructure:"subject_claim" yaml:"subject_claim"`
	TenantClaim    string `mapstructure:"tenant_claim" yaml:"tenant_claim"`
	ExpectedIssuer string `mapstructure:"expected_issuer" yaml:"expected_issuer"`
}

type LDAPConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	URL        string `mapstructure:"url" yaml:"url"`
	BindDN     string `mapstructure:"bind_dn" yaml:"bind_dn"`
	Password   string `mapstructure:"password" yaml:"password"`
	BaseDN     string `mapstructure:"base_dn" yaml:"base_dn"`
	GroupAttr  string `mapstructure:"group_attr" yaml:"group_attr"`
	UserFilter string `mapstructure:"user_filter" yaml:"user_filter"`
}

// SkipEnforcementConfig names the external bypass policy spec.md calls out
// as a collaborator the core itself never implements: admins and a set of
// whitelisted path prefixes skip enforce.EnhanceQuery entirely.
type SkipEnforcementConfig struct {
	AdminRole        string   `mapstructure:"admin_role" yaml:"admin_role"`
	WhitelistedPaths []string `mapstructure:"whitelisted_paths" yaml:"whitelisted_paths"`
}

// CORSConfig handles Cross-Origin Resource Sharing for the admin dashboard.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// WebSocketConfig handles the constraint-cache-invalidation broadcast channel.
type WebSocketConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled"`
	MaxConnections  int  `mapstructure:"max_connections" yaml:"max_connections"`
	ReadBufferSize  int  `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize int  `mapstructure:"write_buffer_size" yaml:"write_buffer_size"`
	PingInterval    int  `mapstructure:"ping_interval" yaml:"ping_interval"` // seconds
}

// MonitoringConfig handles metrics and tracing export.
type MonitoringConfig struct {
	MetricsPath     string  `mapstructure:"metrics_path" yaml:"metrics_path"`
	TracingEnabled  bool    `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName     string  `mapstructure:"service_name" yaml:"service_name"`
	TraceSampleRate float64 `mapstructure:"trace_sample_rate" yaml:"trace_sample_rate"`
}

// AuditConfig configures the bleve-backed authorization-decision index.
type AuditConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	IndexPath string `mapstructure:"index_path" yaml:"index_path"`
}

// AdminConfig gates the constraint-management endpoints.
type AdminConfig struct {
	TOTPIssuer    string        `mapstructure:"totp_issuer" yaml:"totp_issuer"`
	BcryptCost    int           `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
	SessionSecret string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
}
