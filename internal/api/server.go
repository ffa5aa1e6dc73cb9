package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ginswagger "github.com/swaggo/gin-swagger"
	swaggerfiles "github.com/swaggo/files"

	"github.com/latticeobs/queryauth/internal/admin"
	"github.com/latticeobs/queryauth/internal/api/handlers"
	"github.com/latticeobs/queryauth/internal/api/middleware"
	"github.com/latticeobs/queryauth/internal/api/websocket"
	"github.com/latticeobs/queryauth/internal/audit"
	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/internal/constraints"
	"github.com/latticeobs/queryauth/internal/identity"
	"github.com/latticeobs/queryauth/internal/tracing"
	"github.com/latticeobs/queryauth/pkg/cache"
	"github.com/latticeobs/queryauth/pkg/logger"

	gorillaws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the authorizing reverse proxy: identity decoding, the
// constraint store, the enforcement core (via middleware), and the
// proxied backends, plus the admin surface for managing constraint maps.
type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.ValkeyCluster
	store      constraints.Store
	decoder    *identity.Decoder
	groups     *identity.GroupResolver
	admin      *admin.Authenticator
	auditIndex *audit.Index
	tracer     *tracing.EnforcementTracer
	hub        *websocket.Hub
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer constructs the gateway's gin engine and registers every route.
func NewServer(
	cfg *config.Config,
	log logger.Logger,
	valkeyCache cache.ValkeyCluster,
	store constraints.Store,
	decoder *identity.Decoder,
	groups *identity.GroupResolver,
	adminAuth *admin.Authenticator,
	auditIndex *audit.Index,
	tracer *tracing.EnforcementTracer,
	hub *websocket.Hub,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:     cfg,
		logger:     log,
		cache:      valkeyCache,
		store:      store,
		decoder:    decoder,
		groups:     groups,
		admin:      adminAuth,
		auditIndex: auditIndex,
		tracer:     tracer,
		hub:        hub,
		router:     gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.AuthMiddleware(s.decoder, s.groups))
	s.router.Use(middleware.RateLimiter(s.cache))
	s.router.Use(middleware.EnforcementMiddleware(s.config.SkipEnforcement, s.store, s.tracer, s.auditIndex))
	s.router.Use(middleware.ErrorHandler(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", handlers.HealthCheck)
	readiness := handlers.NewReadinessHandler(s.cache)
	s.router.GET("/ready", readiness.ReadinessCheck)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	v1 := s.router.Group("/api/v1")

	metricsProxy, err := handlers.NewProxyHandler("promql", s.config.Backends.Metrics, s.logger)
	if err != nil {
		s.logger.Error("failed to build metrics proxy", "error", err)
	} else {
		v1.Any("/metrics/query", metricsProxy.ServeHTTP)
	}

	logsProxy, err := handlers.NewProxyHandler("logql", s.config.Backends.Logs, s.logger)
	if err != nil {
		s.logger.Error("failed to build logs proxy", "error", err)
	} else {
		v1.Any("/logs/query", logsProxy.ServeHTTP)
	}

	tracesProxy, err := handlers.NewProxyHandler("traceql", s.config.Backends.Traces, s.logger)
	if err != nil {
		s.logger.Error("failed to build traces proxy", "error", err)
	} else {
		v1.Any("/traces/query", tracesProxy.ServeHTTP)
	}

	adminAuthHandler := handlers.NewAdminAuthHandler(s.admin, s.config.Admin, s.logger)
	adminGroup := v1.Group("/admin")
	adminGroup.POST("/login", adminAuthHandler.Login)
	adminGroup.POST("/mfa/enroll", adminAuthHandler.EnrollMFA)
	adminGroup.POST("/mfa/verify", adminAuthHandler.VerifyMFA)

	constraintsHandler := handlers.NewConstraintsHandler(s.store, s.logger)
	if s.hub != nil {
		constraintsHandler.OnUpdate(func(subject, backend string) {
			tenant := ""
			s.hub.BroadcastInvalidation(tenant, subject, backend)
		})
	}
	constraintsGroup := adminGroup.Group("/constraints")
	constraintsGroup.Use(middleware.AdminSessionMiddleware(s.config.Admin))
	constraintsGroup.GET("/:identity/:backend", constraintsHandler.Get)
	constraintsGroup.PUT("/:identity/:backend", constraintsHandler.Put)
	constraintsGroup.DELETE("/:identity/:backend", constraintsHandler.Delete)

	if s.config.WebSocket.Enabled && s.hub != nil {
		s.router.GET("/ws/invalidations", func(c *gin.Context) {
			upgrader := gorillaws.Upgrader{
				ReadBufferSize:  s.config.WebSocket.ReadBufferSize,
				WriteBufferSize: s.config.WebSocket.WriteBufferSize,
				CheckOrigin:     func(r *http.Request) bool { return true },
			}
			tenant := c.GetString("tenant_id")
			identityStr := c.GetString("identity")
			s.hub.ServeWS(c.Writer, c.Request, upgrader, tenant, identityStr)
		})
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("enforcement gateway starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down enforcement gateway")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
