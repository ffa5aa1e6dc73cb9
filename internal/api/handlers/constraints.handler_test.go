package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/constraints"
	"github.com/latticeobs/queryauth/internal/enforce"
	"github.com/latticeobs/queryauth/pkg/cache"
	"github.com/latticeobs/queryauth/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newConstraintsRouter(t *testing.T) (*gin.Engine, constraints.Store) {
	t.Helper()
	store := constraints.New(cache.NewNoopValkeyCache(logger.New("error")), logger.New("error"), time.Minute)
	h := NewConstraintsHandler(store, logger.New("error"))

	r := gin.New()
	r.GET("/api/v1/admin/constraints/:identity/:backend", h.Get)
	r.PUT("/api/v1/admin/constraints/:identity/:backend", h.Put)
	r.DELETE("/api/v1/admin/constraints/:identity/:backend", h.Delete)
	return r, store
}

func TestConstraintsHandler_PutGetDelete(t *testing.T) {
	r, store := newConstraintsRouter(t)

	body, err := json.Marshal(constraintMapRequest{Constraints: enforce.ConstraintMap{"tenant": {"acme"}}})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/constraints/alice/promql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	cm, err := store.Get(context.Background(), "alice", "promql")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, cm["tenant"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/constraints/alice/promql", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/constraints/alice/promql", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err = store.Get(context.Background(), "alice", "promql")
	assert.Error(t, err)
}

func TestConstraintsHandler_RejectsUnknownBackend(t *testing.T) {
	r, _ := newConstraintsRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/constraints/alice/sql", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConstraintsHandler_GetMissingReturns404(t *testing.T) {
	r, _ := newConstraintsRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/constraints/bob/logql", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConstraintsHandler_NotifyCalledOnWrite(t *testing.T) {
	store := constraints.New(cache.NewNoopValkeyCache(logger.New("error")), logger.New("error"), time.Minute)
	h := NewConstraintsHandler(store, logger.New("error"))

	var notified bool
	h.OnUpdate(func(identity, backend string) { notified = true })

	r := gin.New()
	r.PUT("/api/v1/admin/constraints/:identity/:backend", h.Put)

	body, _ := json.Marshal(constraintMapRequest{Constraints: enforce.ConstraintMap{"tenant": {"acme"}}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/constraints/alice/promql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.True(t, notified)
}
