package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/latticeobs/queryauth/internal/admin"
	"github.com/latticeobs/queryauth/internal/api"
	"github.com/latticeobs/queryauth/internal/api/websocket"
	"github.com/latticeobs/queryauth/internal/audit"
	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/internal/constraints"
	"github.com/latticeobs/queryauth/internal/identity"
	"github.com/latticeobs/queryauth/internal/security/cabundle"
	"github.com/latticeobs/queryauth/internal/tracing"
	"github.com/latticeobs/queryauth/pkg/cache"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// @title QueryAuth Enforcement Gateway API
// @version 1.0.0
// @description QueryAuth sits in front of PromQL, LogQL and TraceQL backends and rewrites every proxied query to carry the caller's authorized label constraints.
// @termsOfService http://swagger.io/terms/

// @contact.name Platform Builds Team
// @contact.url https://github.com/latticeobs/queryauth
// @contact.email support@platformbuilds.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @externalDocs.description OpenAPI
// @externalDocs.url https://swagger.io/resources/open-api/

// These are set via -ldflags at build time
var (
	version    = "dev"
	commitHash = "unknown"
	buildTime  = ""
)

func main() {
	// Check for healthcheck command
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Configuration load failed: %v", err)
		}

		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", cfg.Port))
		if err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			log.Fatalf("Health check failed: status %d", resp.StatusCode)
		}

		var healthResp struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
			log.Fatalf("Failed to parse health response: %v", err)
		}

		if healthResp.Status != "ok" {
			log.Fatalf("Health check failed: invalid response %+v", healthResp)
		}

		log.Println("healthy")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("starting queryauth gateway", "version", version, "commit", commitHash, "built", buildTime, "environment", cfg.Environment)

	// Initialize Valkey cache: single-node when one address is provided; cluster otherwise
	var valkeyCache cache.ValkeyCluster
	if len(cfg.Cache.Addrs) == 1 {
		valkeyCache, err = cache.NewValkeySingle(cfg.Cache.Addrs[0], cfg.Cache.DB, cfg.Cache.Password, cfg.Cache.TTL)
		if err != nil {
			appLogger.Warn("Valkey single-node unavailable; starting with in-memory cache (auto-reconnect enabled)", "error", err)
			fallback := cache.NewNoopValkeyCache(appLogger)
			valkeyCache = cache.NewAutoSwapForSingle(cfg.Cache.Addrs[0], cfg.Cache.DB, cfg.Cache.Password, cfg.Cache.TTL, appLogger, fallback)
		} else {
			appLogger.Info("Valkey single-node cache initialized", "addr", cfg.Cache.Addrs[0])
		}
	} else {
		// Prefer cluster when multiple nodes provided; if the target is a standalone instance
		// (common in development), detect the specific error and fall back to single-node.
		valkeyCache, err = cache.NewValkeyCluster(cfg.Cache.Addrs, cfg.Cache.TTL)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "cluster support disabled") {
				appLogger.Warn("Valkey reports cluster support disabled; falling back to single-node mode", "nodes", cfg.Cache.Addrs)
				if len(cfg.Cache.Addrs) > 0 {
					if single, sErr := cache.NewValkeySingle(cfg.Cache.Addrs[0], cfg.Cache.DB, cfg.Cache.Password, cfg.Cache.TTL); sErr == nil {
						valkeyCache = single
						appLogger.Info("Valkey single-node cache initialized via fallback", "addr", cfg.Cache.Addrs[0])
					} else {
						appLogger.Warn("Valkey single-node fallback unavailable; starting with in-memory cache (auto-reconnect to single)", "error", sErr)
						fallback := cache.NewNoopValkeyCache(appLogger)
						valkeyCache = cache.NewAutoSwapForSingle(cfg.Cache.Addrs[0], cfg.Cache.DB, cfg.Cache.Password, cfg.Cache.TTL, appLogger, fallback)
					}
				}
			} else {
				appLogger.Warn("Valkey cluster unavailable; starting with in-memory cache (auto-reconnect to cluster)", "error", err)
				fallback := cache.NewNoopValkeyCache(appLogger)
				valkeyCache = cache.NewAutoSwapForCluster(cfg.Cache.Addrs, cfg.Cache.TTL, appLogger, fallback)
			}
		} else {
			appLogger.Info("Valkey cluster cache initialized", "nodes", len(cfg.Cache.Addrs))
		}
	}

	store := constraints.New(valkeyCache, appLogger, cfg.Cache.TTL)
	decoder := identity.NewDecoder(cfg.Auth.JWT)

	var groupResolver *identity.GroupResolver
	if cfg.Auth.LDAP.Enabled {
		var caBundleMgr *cabundle.Manager
		groupResolver = identity.NewGroupResolver(cfg.Auth.LDAP, caBundleMgr, appLogger)
	}

	adminAuth := admin.NewAuthenticator(cfg.Admin)

	auditIndex, err := audit.New(cfg.Audit, appLogger)
	if err != nil {
		appLogger.Fatal("failed to open audit index", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Monitoring.TracingEnabled {
		tp, err := tracing.NewTracerProvider(cfg.Monitoring.ServiceName, version, cfg.Monitoring.OTLPEndpoint, cfg.Monitoring.TraceSampleRate)
		if err != nil {
			appLogger.Warn("failed to initialize trace exporter; continuing without it", "error", err)
		} else {
			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					appLogger.Warn("failed to shut down tracer provider", "error", err)
				}
			}()
		}
	}
	tracing.InitGlobalTracer(cfg.Monitoring.ServiceName)
	tracer := tracing.GetGlobalTracer()

	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)

	// If cache supports Stop (auto-swap connector), tie it to lifecycle
	if stopper, ok := interface{}(valkeyCache).(interface{ Stop() }); ok {
		go func() { <-ctx.Done(); stopper.Stop() }()
	}

	apiServer := api.NewServer(cfg, appLogger, valkeyCache, store, decoder, groupResolver, adminAuth, auditIndex, tracer, hub)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		appLogger.Info("shutdown signal received")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		appLogger.Fatal("server failed to start", "error", err)
	}

	if err := auditIndex.Close(); err != nil {
		appLogger.Warn("failed to close audit index", "error", err)
	}

	appLogger.Info("queryauth gateway shutdown complete")
}
