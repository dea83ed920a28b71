package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/catalog"
	"github.com/velora-hq/explorer-engine/pkg/config"
	"github.com/velora-hq/explorer-engine/pkg/dataplane"
	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/handlers"
	"github.com/velora-hq/explorer-engine/pkg/logging"
	"github.com/velora-hq/explorer-engine/pkg/mcp"
	"github.com/velora-hq/explorer-engine/pkg/mcp/tools"
	"github.com/velora-hq/explorer-engine/pkg/middleware"
	"github.com/velora-hq/explorer-engine/pkg/websession"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("dataplane_url", cfg.Dataplane.ResolvedBaseURL()),
		zap.Duration("session_ttl", cfg.Session.TTL()),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Bool("tls", cfg.TLSCertPath != ""))

	// Data-plane client
	client := dataplane.NewClient(
		cfg.Dataplane.ResolvedBaseURL(),
		cfg.Dataplane.Timeout(),
		cfg.Dataplane.ExportTimeout(),
		logger.Named("dataplane"))
	client.SetMaxRetries(cfg.Catalog.RefreshRetryMax)

	// Catalog organizer with optional domain rule overrides
	rules, err := catalog.LoadDomainRules(cfg.Catalog.DomainRulesPath)
	if err != nil {
		logger.Fatal("Failed to load domain rules", zap.Error(err))
	}
	organizer := catalog.NewOrganizer(rules, logger.Named("catalog"))

	// Explorer sessions live in memory; the sweeper reclaims idle ones.
	registry := explorer.NewSessionRegistry(cfg.Session.TTL(), logger)
	registry.StartSweeper(context.Background(), 0)

	service := explorer.NewService(client, organizer, registry, logger.Named("explorer"))

	// Browser continuity cookie store. Without a secret the feature is
	// off and /api/sessions/current always misses.
	if cfg.Session.Secret != "" {
		secure := cfg.TLSCertPath != "" || cfg.Env == "production"
		websession.InitStore(cfg.Session.Secret, cfg.Session.TTL(), secure)
	} else if cfg.Env != "local" {
		logger.Warn("SESSION_SECRET is not set; browser session continuity is disabled")
	}

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger.Named("health")).RegisterRoutes(mux)
	handlers.NewCatalogHandler(service, logger.Named("catalog")).RegisterRoutes(mux)
	handlers.NewSessionsHandler(service, logger.Named("sessions")).RegisterRoutes(mux)
	handlers.NewQueriesHandler(service, logger.Named("queries")).RegisterRoutes(mux)
	handlers.NewAskHandler(service, logger.Named("ask")).RegisterRoutes(mux)
	handlers.NewExportHandler(service, logger.Named("export")).RegisterRoutes(mux)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("explorer-engine", cfg.Version, logger.Named("mcp"))
		deps := &tools.ToolDeps{Service: service, Logger: logger.Named("mcp-tools")}
		tools.RegisterCatalogTools(mcpServer.MCP(), deps)
		tools.RegisterQueryTools(mcpServer.MCP(), deps)
		tools.RegisterQuestionTools(mcpServer.MCP(), deps)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
		handlers.NewMCPHandler(mcpServer, logger.Named("mcp")).RegisterRoutes(mux)
	}

	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// The metrics middleware must wrap the mux directly so it can read
	// the matched route pattern; the request logger sits outside it.
	handler := middleware.RequestLogger(logger.Named("http"))(middleware.Metrics()(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting explorer-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
