// Package main is the entry point for the bundle delivery server.
// It loads configuration, connects to services, registers the bundles
// found under the asset directory, and starts the HTTP server with
// graceful shutdown support.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"loadstone/internal/bundle"
	"loadstone/internal/cache"
	"loadstone/internal/config"
	"loadstone/internal/database"
	"loadstone/internal/handlers"
	"loadstone/internal/loader"
	"loadstone/internal/router"
	"loadstone/internal/store"
	"loadstone/internal/validator"
)

func main() {
	// Structured logger — text handler, debug level so cache hit/miss
	// traffic is visible in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"asset_dir", cfg.AssetDir,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey. First-seen timestamps and validation verdicts
	// live here and must survive deploys, so entries never expire.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	cacheService := cache.NewValkey(valkeyClient, 0)
	timestamps := cache.NewTimestamps(cacheService)

	// Initialize data stores.
	depStore := store.NewDependencyStore(db)
	blobStore := store.NewMessageBlobStore(db)

	// Script validation is opt-in: parsing every new file version costs
	// real CPU on first sight, and some deployments prefer to trust
	// their build pipeline instead.
	var scriptValidator *validator.Validator
	if cfg.ValidateScripts {
		scriptValidator = validator.New(cacheService)
		slog.Info("script validation enabled")
	}

	// Build the bundle registry from the asset directory.
	reg := loader.New(cfg.LoadPath, depStore)
	count, err := registerAssetDir(reg, cfg.AssetDir, depStore, blobStore, timestamps, scriptValidator)
	if err != nil {
		slog.Error("failed to register bundles", "error", err)
		os.Exit(1)
	}
	slog.Info("bundles registered", "count", count)

	// Create handler and router.
	delivery := handlers.NewDelivery(reg)
	r := router.New(cfg.LoadPath, delivery)

	// Create the HTTP server with sensible timeouts. Responses are
	// combined static content; nothing should take longer than seconds.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// registerAssetDir registers one file bundle per subdirectory of the
// asset directory. The subdirectory name is the bundle name; its .js
// files become scripts, .css files styles, and .html files templates,
// each list in lexical order. A missing asset directory registers
// nothing — a deployment serving only generated bundles is valid.
func registerAssetDir(reg *loader.Loader, assetDir string, deps *store.DependencyStore, blobs *store.MessageBlobStore, timestamps *cache.Timestamps, scriptValidator *validator.Validator) (int, error) {
	entries, err := os.ReadDir(assetDir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("asset directory missing, no file bundles registered", "dir", assetDir)
			return 0, nil
		}
		return 0, fmt.Errorf("read asset dir %q: %w", assetDir, err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		localBase := filepath.Join(assetDir, name)

		opts, err := scanBundleDir(localBase)
		if err != nil {
			return count, err
		}

		fb := bundle.NewFileBundle(localBase, "/"+filepath.ToSlash(localBase), opts)
		fb.SetStores(deps, blobs)
		fb.SetTimestamps(timestamps)
		if scriptValidator != nil {
			fb.SetValidator(scriptValidator)
		}

		if err := reg.Register(name, fb); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// scanBundleDir sorts a bundle directory's files into resource lists by
// extension.
func scanBundleDir(dir string) (bundle.FileOptions, error) {
	var opts bundle.FileOptions

	entries, err := os.ReadDir(dir)
	if err != nil {
		return opts, fmt.Errorf("read bundle dir %q: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".js":
			opts.Scripts = append(opts.Scripts, name)
		case ".css":
			opts.Styles = append(opts.Styles, name)
		case ".html":
			opts.Templates = append(opts.Templates, name)
		}
	}
	return opts, nil
}
