// Package main provides the entry point for the wikibox server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/skohara/wikibox/internal/config"
	"github.com/skohara/wikibox/internal/db"
	"github.com/skohara/wikibox/internal/infobox"
	"github.com/skohara/wikibox/internal/provider"
	"github.com/skohara/wikibox/internal/server"
	"github.com/skohara/wikibox/internal/wikiapi"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	language := flag.String("language", "", "Wikipedia language edition (overrides config)")
	mcpAddr := flag.String("mcp", "", "MCP HTTP server address (overrides config)")
	healthPort := flag.Int("health-port", -1, "Health check HTTP server port, 0 to disable (overrides config)")
	pagesDir := flag.String("pages-dir", "", "Serve pages from a local dump directory instead of the API")
	dbPath := flag.String("db", "", "Path to the template graph database (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	clearDB := flag.Bool("clear-db", false, "Clear the template graph database on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flag overrides
	if *language != "" {
		cfg.Language = *language
	}
	if *mcpAddr != "" {
		cfg.MCPAddr = *mcpAddr
	}
	if *healthPort >= 0 {
		cfg.HealthPort = *healthPort
	}
	if *pagesDir != "" {
		cfg.Provider = config.ProviderDir
		cfg.PagesDir = *pagesDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// Configure logging
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("starting wikibox server",
		"provider", cfg.Provider,
		"api", cfg.APIBaseURL(),
		"mcp", cfg.MCPAddr,
		"db", cfg.DBPath,
	)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Page source: MediaWiki API or local dump directory
	var client *wikiapi.Client
	var source infobox.PageSource
	switch cfg.Provider {
	case config.ProviderDir:
		fileSource, err := provider.NewFileSource(provider.Config{
			Dir:    cfg.PagesDir,
			Logger: logger,
		})
		if err != nil {
			slog.Error("failed to open page directory", "error", err)
			os.Exit(1)
		}
		if err := fileSource.Watch(ctx); err != nil {
			slog.Error("failed to watch page directory", "error", err)
			os.Exit(1)
		}
		defer fileSource.Close()
		source = fileSource

	default:
		client = wikiapi.NewClient(wikiapi.Config{
			BaseURL:   cfg.APIBaseURL(),
			Timeout:   cfg.Timeout(),
			UserAgent: cfg.UserAgent,
			Logger:    logger,
		})
		source = client
	}

	// Template graph database (optional)
	var graphDB *db.GraphDB
	if cfg.DBPath != "" {
		graphDB, err = db.Open(db.Config{
			Path:        cfg.DBPath,
			AutoRecover: true,
			Logger:      logger,
		})
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer graphDB.Close()

		if *clearDB {
			if err := graphDB.ClearDatabase(ctx); err != nil {
				slog.Error("failed to clear database", "error", err)
				os.Exit(1)
			}
		}
	}

	// Infobox resolver, warmed from the graph when available
	cache := infobox.NewNegativeCache()
	resolverCfg := infobox.Config{
		Source: source,
		Cache:  cache,
		Logger: logger,
	}
	if graphDB != nil {
		resolverCfg.Recorder = graphDB
		names, err := graphDB.NonInfoboxNames(ctx)
		if err != nil {
			slog.Warn("failed to warm negative cache", "error", err)
		} else {
			cache.AddAll(names)
			slog.Info("negative cache warmed", "names", len(names))
		}
	}
	resolver := infobox.New(resolverCfg)

	// Start MCP HTTP server
	mcpServer := server.NewMCPServer(server.MCPConfig{
		Client:   client,
		Source:   source,
		Resolver: resolver,
		Graph:    graphDB,
		Logger:   logger,
	})

	mcpHTTPServer := &http.Server{
		Addr:    cfg.MCPAddr,
		Handler: mcpServer.HTTPHandler(),
	}

	go func() {
		slog.Info("starting MCP HTTP server", "addr", cfg.MCPAddr)
		if err := mcpHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("MCP HTTP server error", "error", err)
		}
	}()

	// Start health check server
	var healthServer *server.HealthServer
	if cfg.HealthPort > 0 {
		mcpPort := 8700
		if _, p, err := parseHostPort(cfg.MCPAddr, 8700); err == nil {
			mcpPort = p
		}

		healthServer = server.NewHealthServer(server.HealthConfig{
			Port:    cfg.HealthPort,
			MCPPort: mcpPort,
			Logger:  logger,
		})

		go func() {
			if err := healthServer.Start(); err != nil && err.Error() != "http: Server closed" {
				slog.Error("health server error", "error", err)
			}
		}()
	}

	slog.Info("server ready",
		"mcp", cfg.MCPAddr,
		"health", cfg.HealthPort,
	)

	// Wait for shutdown
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := mcpHTTPServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("MCP HTTP server shutdown error", "error", err)
	}
	if healthServer != nil {
		if err := healthServer.Stop(shutdownCtx); err != nil {
			slog.Error("health server shutdown error", "error", err)
		}
	}
	slog.Info("server shutdown complete")
}

// parseHostPort extracts host and port from an address string.
func parseHostPort(addr string, defaultPort int) (string, int, error) {
	if addr == "" {
		return "", defaultPort, nil
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// Maybe it's just a port like ":8700"
		if addr[0] == ':' {
			portStr = addr[1:]
			host = ""
		} else {
			return "", 0, err
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort, nil
	}
	return host, port, nil
}
