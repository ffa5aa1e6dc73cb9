package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/admin"
	"github.com/latticeobs/queryauth/internal/api/websocket"
	"github.com/latticeobs/queryauth/internal/audit"
	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/internal/constraints"
	"github.com/latticeobs/queryauth/internal/identity"
	"github.com/latticeobs/queryauth/internal/tracing"
	"github.com/latticeobs/queryauth/pkg/cache"
	"github.com/latticeobs/queryauth/pkg/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.New("error")
	cfg := &config.Config{
		Environment: "test",
		Port:        0,
		Backends: config.BackendsConfig{
			Metrics: config.BackendConfig{Endpoint: "http://127.0.0.1:1"},
			Logs:    config.BackendConfig{Endpoint: "http://127.0.0.1:1"},
			Traces:  config.BackendConfig{Endpoint: "http://127.0.0.1:1"},
		},
		Auth: config.AuthConfig{JWT: config.JWTConfig{Secret: "test-secret"}},
	}

	c := cache.NewNoopValkeyCache(log)
	store := constraints.New(c, log, time.Minute)
	decoder := identity.NewDecoder(cfg.Auth.JWT)
	adminAuth := admin.NewAuthenticator(cfg.Admin)
	auditIndex, err := audit.New(cfg.Audit, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditIndex.Close() })
	tracer := tracing.NewEnforcementTracer("test")
	hub := websocket.NewHub(log)

	return NewServer(cfg, log, c, store, decoder, nil, adminAuth, auditIndex, tracer, hub)
}

func TestServer_HealthAndReady(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_MetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_AdminLoginUnknownAccountRejected(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login",
		strings.NewReader(`{"username":"nobody","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
