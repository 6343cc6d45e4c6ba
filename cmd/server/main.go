package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admitkit/docverify/api"
	dbfs "github.com/admitkit/docverify/db"
	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/internal/db"
	"github.com/admitkit/docverify/internal/extract"
	"github.com/admitkit/docverify/internal/pipeline"
	"github.com/admitkit/docverify/internal/repository/sqlite"
	"github.com/admitkit/docverify/internal/session"
	"github.com/admitkit/docverify/internal/store"
	"github.com/admitkit/docverify/pkg/genai"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	genai.SetLogger(logger)
	extract.SetLogger(logger)

	logger.Info("starting docverify server", "version", version, "build_time", buildTime)

	ctx := context.Background()

	// Open database connection and apply migrations
	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// Model provider for classification and extraction
	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to create model provider: %v", err)
	}
	engine, err := extract.NewEngine(provider, cfg.Extract)
	if err != nil {
		log.Fatalf("Failed to create extraction engine: %v", err)
	}

	st := store.New(logger)
	queue := pipeline.NewRepository(conn)
	processor := pipeline.NewDocProcessor(st, engine, logger)
	pool := pipeline.NewWorkerPool(queue, map[string]pipeline.Handler{
		pipeline.JobTypeProcessDocument: processor.Handler(),
	}, logger, cfg.Workers)
	pool.OnDeadLetter(processor.DeadLetter())

	repo := sqlite.New(conn, logger)
	mgr := session.NewManager(st, repo, logger)

	handler := api.SetupRoutes(cfg, version, buildTime, conn, st, queue, mgr)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	poolCtx, poolCancel := context.WithCancel(ctx)
	pool.Start(poolCtx)

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	poolCancel()
	pool.Stop()

	if err := engine.Close(); err != nil {
		logger.Warn("error closing model provider", "err", err)
	}
	if err := conn.Close(); err != nil {
		logger.Warn("error closing DB", "err", err)
	}

	logger.Info("server exited")
}

// newProvider builds the configured model backend: the hosted genai API or a
// local Ollama instance.
func newProvider(cfg *config.Config) (extract.Provider, error) {
	if cfg.Extract.Provider == "ollama" {
		return extract.NewOllamaProvider(cfg.Ollama)
	}
	client, err := genai.NewDefaultClient(cfg.GenAI)
	if err != nil {
		return nil, err
	}
	return extract.NewGenAIProvider(client), nil
}
