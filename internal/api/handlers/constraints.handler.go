// internal/api/handlers/constraints.handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/internal/api/constants"
	"github.com/latticeobs/queryauth/internal/constraints"
	"github.com/latticeobs/queryauth/internal/enforce"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// ConstraintsHandler is the admin CRUD surface over a tenant's constraint
// map. It sits behind admin authentication (see AdminAuthHandler) and is
// the only way operators populate what EnforcementMiddleware enforces.
type ConstraintsHandler struct {
	store  constraints.Store
	logger logger.Logger
	notify func(identity, backend string)
}

func NewConstraintsHandler(store constraints.Store, log logger.Logger) *ConstraintsHandler {
	return &ConstraintsHandler{store: store, logger: log}
}

// OnUpdate registers a callback invoked after a successful Put or Delete,
// letting the server wire in a dashboard-invalidation broadcast without
// this handler depending on the websocket package directly.
func (h *ConstraintsHandler) OnUpdate(fn func(identity, backend string)) {
	h.notify = fn
}

func validBackend(backend string) bool {
	switch backend {
	case constants.BackendMetrics, constants.BackendLogs, constants.BackendTraces:
		return true
	default:
		return false
	}
}

type constraintMapRequest struct {
	Constraints enforce.ConstraintMap `json:"constraints" binding:"required"`
}

// @Summary Fetch a constraint map
// @Tags constraints
// @Produce json
// @Param identity path string true "identity subject"
// @Param backend path string true "promql, logql, or traceql"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/constraints/{identity}/{backend} [get]
func (h *ConstraintsHandler) Get(c *gin.Context) {
	identity := c.Param("identity")
	backend := c.Param("backend")
	if !validBackend(backend) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unknown backend"})
		return
	}

	cm, err := h.store.Get(c.Request.Context(), identity, backend)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "no constraint map for identity/backend"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "identity": identity, "backend": backend, "constraints": cm})
}

// @Summary Replace a constraint map
// @Tags constraints
// @Accept json
// @Produce json
// @Param identity path string true "identity subject"
// @Param backend path string true "promql, logql, or traceql"
// @Param request body constraintMapRequest true "constraint map"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/constraints/{identity}/{backend} [put]
func (h *ConstraintsHandler) Put(c *gin.Context) {
	identity := c.Param("identity")
	backend := c.Param("backend")
	if !validBackend(backend) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unknown backend"})
		return
	}

	var req constraintMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request"})
		return
	}

	if err := h.store.Put(c.Request.Context(), identity, backend, req.Constraints); err != nil {
		h.logger.Error("failed to store constraint map", "identity", identity, "backend", backend, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to store constraint map"})
		return
	}

	if h.notify != nil {
		h.notify(identity, backend)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "identity": identity, "backend": backend})
}

// @Summary Delete a constraint map
// @Tags constraints
// @Produce json
// @Param identity path string true "identity subject"
// @Param backend path string true "promql, logql, or traceql"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/constraints/{identity}/{backend} [delete]
func (h *ConstraintsHandler) Delete(c *gin.Context) {
	identity := c.Param("identity")
	backend := c.Param("backend")
	if !validBackend(backend) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unknown backend"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), identity, backend); err != nil {
		h.logger.Error("failed to delete constraint map", "identity", identity, "backend", backend, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to delete constraint map"})
		return
	}

	if h.notify != nil {
		h.notify(identity, backend)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "identity": identity, "backend": backend})
}
