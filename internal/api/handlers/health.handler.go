// internal/api/handlers/health.handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/pkg/cache"
)

// HealthCheck is an unconditional liveness probe.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessHandler reports readiness by checking the constraint store's
// backing cache is reachable.
type ReadinessHandler struct {
	cache cache.ValkeyCluster
}

func NewReadinessHandler(c cache.ValkeyCluster) *ReadinessHandler {
	return &ReadinessHandler{cache: c}
}

func (h *ReadinessHandler) ReadinessCheck(c *gin.Context) {
	if err := h.cache.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
