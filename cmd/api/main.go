package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ubreader/internal/app"
	"ubreader/internal/config"
	"ubreader/internal/contextutil"
	"ubreader/internal/corpus"
	"ubreader/internal/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	if err := cfg.RequireContentDir(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the saved index (or build one) in the background so the server
	// answers health checks straight away.
	go func() {
		warmCtx := contextutil.WithLogger(ctx, logger.With("component", "warmup"))
		rebuilt, err := a.Warm(warmCtx)
		if err != nil {
			slog.Error("Failed to load search index", "error", err)
			return
		}
		slog.Info("Search index ready", "documents", a.Search.DocumentCount(), "rebuilt", rebuilt)
	}()

	if cfg.WatchContent {
		watchLogger := logger.With("component", "watcher")
		watcher, err := corpus.NewWatcher(cfg.ContentDir, corpus.DefaultDebounce, func(ctx context.Context, paths []string) {
			watchLogger.InfoContext(ctx, "content changed, rebuilding", "paths", len(paths))
			if _, err := a.Search.Rebuild(contextutil.WithLogger(ctx, watchLogger)); err != nil {
				watchLogger.ErrorContext(ctx, "rebuild after change failed", "error", err)
			}
		})
		if err != nil {
			log.Fatalf("Failed to create content watcher: %v", err)
		}
		if err := watcher.Start(ctx); err != nil {
			log.Fatalf("Failed to watch content: %v", err)
		}
		defer watcher.Stop()
		slog.Info("Watching content directory", "path", cfg.ContentDir)
	}

	router := http.NewRouter(&http.Deps{
		SearchService: a.Search,
		Catalog:       a.Catalog,
		Transformer:   a.Transformer,
		Registry:      a.Registry,
		ReaderBaseURL: cfg.ReaderBaseURL,
	})

	addr := ":" + cfg.APIPort
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", addr, "content_dir", cfg.ContentDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
	slog.Info("Server stopped gracefully")
}
