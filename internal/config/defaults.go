package config

import "time"

// GetDefaultConfig returns a configuration with all default values, the
// same values set by Load's viper defaults, usable without a viper
// instance (tests, dev tooling).
func GetDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Port:        8080,
		LogLevel:    "info",

		Backends: BackendsConfig{
			Metrics: BackendConfig{Endpoint: "http://localhost:8481", Timeout: 30 * time.Second},
			Logs:    BackendConfig{Endpoint: "http://localhost:9428", Timeout: 30 * time.Second},
			Traces:  BackendConfig{Endpoint: "http://localhost:10428", Timeout: 30 * time.Second},
		},

		Cache: CacheConfig{
			Addrs: []string{"localhost:6379"},
			TTL:   5 * time.Minute,
			DB:    0,
		},

		Auth: AuthConfig{
			JWT: JWTConfig{
				SubjectClaim: "sub",
				TenantClaim:  "tenant",
			},
			LDAP: LDAPConfig{
				Enabled:   false,
				GroupAttr: "memberOf",
			},
		},

		SkipEnforcement: SkipEnforcementConfig{
			AdminRole: "queryauth-admin",
		},

		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Tenant-ID"},
			AllowCredentials: true,
			MaxAge:           3600,
		},

		WebSocket: WebSocketConfig{
			Enabled:         true,
			MaxConnections:  1000,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    30,
		},

		Monitoring: MonitoringConfig{
			MetricsPath:     "/metrics",
			TracingEnabled:  false,
			ServiceName:     "queryauth-gateway",
			TraceSampleRate: 0.1,
		},

		Audit: AuditConfig{
			Enabled:   true,
			IndexPath: "/var/lib/queryauth/audit.bleve",
		},

		Admin: AdminConfig{
			TOTPIssuer: "queryauth",
			BcryptCost: 12,
		},
	}
}
