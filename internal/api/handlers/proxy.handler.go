// internal/api/handlers/proxy.handler.go
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/internal/metrics"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// ProxyHandler reverse-proxies an enforced query to its backend, substituting
// the query internal/api/middleware's EnforcementMiddleware produced for the
// original query string.
type ProxyHandler struct {
	backend string
	proxy   *httputil.ReverseProxy
	logger  logger.Logger
}

// NewProxyHandler builds a reverse proxy for one backend (metrics, logs, or
// traces), per internal/config.BackendConfig.
func NewProxyHandler(backendName string, cfg config.BackendConfig, log logger.Logger) (*ProxyHandler, error) {
	target, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse backend endpoint for %s: %w", backendName, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		metrics.ProxyUpstreamErrors.WithLabelValues(backendName).Inc()
		log.Error("proxy upstream error", "backend", backendName, "error", err)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"status":"error","error":"backend unavailable"}`))
	}

	return &ProxyHandler{backend: backendName, proxy: proxy, logger: log}, nil
}

// ServeHTTP rewrites the request's query string to the enforced query, set
// in the gin context by EnforcementMiddleware, before proxying upstream.
func (h *ProxyHandler) ServeHTTP(c *gin.Context) {
	if enhanced, exists := c.Get("enhanced_query"); exists {
		if q, ok := enhanced.(string); ok {
			values := c.Request.URL.Query()
			values.Set("query", q)
			c.Request.URL.RawQuery = values.Encode()
		}
	}

	h.proxy.ServeHTTP(c.Writer, c.Request)
}
