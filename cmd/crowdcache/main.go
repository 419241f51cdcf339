package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdcache/internal/api"
	"crowdcache/internal/cache"
	"crowdcache/internal/config"
	"crowdcache/internal/daemon"
	"crowdcache/internal/ledger"
	"crowdcache/internal/retry"
	"crowdcache/internal/syncer"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Configure logger
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Configuration loaded",
		"rpc_url", cfg.LedgerRPCURL,
		"contract_id", cfg.LedgerContractID,
		"cache_driver", cfg.CacheDriver,
		"page_limit", cfg.PageLimit,
		"sync_interval", cfg.SyncInterval,
	)

	// 3. Open the cache store
	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open cache store: %v", err)
	}
	defer store.Close()
	slog.Info("Cache store opened", "driver", cfg.CacheDriver)

	// 4. Create the ledger client and verify the endpoint is reachable
	client := ledger.NewRPCClient(cfg.LedgerRPCURL, cfg.LedgerContractID)
	if chainID, height, err := client.Status(ctx); err != nil {
		slog.Warn("Ledger endpoint not reachable yet", "error", err)
	} else {
		slog.Info("Ledger endpoint reachable", "chain_id", chainID, "block_height", height)
	}

	// 5. Create the synchronizer and run the initial catch-up
	sync := syncer.New(client, store, cfg.PageLimit)
	if err := sync.Synchronize(ctx, false); err != nil {
		// The daemon keeps trying on its schedule; a failed first run is
		// not fatal
		slog.Error("Initial sync failed", "error", err)
	}

	// 6. Start the periodic sync daemon
	strategy := retry.NewStrategy(retry.LoadConfig())
	d, err := daemon.New(sync, strategy, cfg.SyncInterval)
	if err != nil {
		log.Fatalf("Failed to create sync daemon: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.Start(runCtx); err != nil {
		log.Fatalf("Failed to start sync daemon: %v", err)
	}

	// 7. Start the API server
	server := api.NewServer(cfg.APIPort, store, sync)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	// 8. Wait for interrupt, then shut everything down
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Warn("Interrupt received, shutting down...")
	cancel()

	if err := d.Stop(); err != nil {
		slog.Error("Error stopping sync daemon", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down API server", "error", err)
	}

	slog.Info("crowdcache stopped")
}

// openStore selects the cache backend from configuration
func openStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheDriver {
	case "postgres":
		return cache.NewPostgresStore(ctx, cfg.DatabaseURL)
	case "sqlite":
		return cache.NewSQLiteStore(cfg.SQLitePath)
	default:
		return cache.NewMemoryStore(), nil
	}
}
