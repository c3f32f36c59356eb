package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anvarov/drivebox/internal/logger"
	"github.com/anvarov/drivebox/pkg/config"
	"github.com/anvarov/drivebox/pkg/drive"
	"github.com/anvarov/drivebox/pkg/store/namespace"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	initConfig := flag.Bool("init", false, "Write an annotated sample config file and exit")
	force := flag.Bool("force", false, "Overwrite an existing config file (with -init)")
	check := flag.Bool("check", false, "Load config, run store healthchecks and exit")
	flag.Parse()

	if *initConfig {
		path, err := config.InitConfig(*force)
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Wrote sample config to %s\n", path)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure logger
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	fmt.Println("Drivebox - personal cloud storage")
	logger.Info("Log level set to: %s", cfg.Logging.Level)
	logger.Info("Namespace store: %s", cfg.Namespace.Type)
	logger.Info("Blob store: %s", cfg.Blob.Type)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create namespace store
	store, err := config.CreateNamespaceStore(ctx, &cfg.Namespace)
	if err != nil {
		log.Fatalf("Failed to create namespace store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close namespace store: %v", err)
		}
	}()

	// Create blob store
	blobs, err := config.CreateBlobStore(ctx, &cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			logger.Error("Failed to close blob store: %v", err)
		}
	}()

	// Verify both stores are reachable before serving anything
	if err := store.Healthcheck(ctx); err != nil {
		log.Fatalf("Namespace store healthcheck failed: %v", err)
	}
	if err := blobs.Healthcheck(ctx); err != nil {
		log.Fatalf("Blob store healthcheck failed: %v", err)
	}
	logger.Info("Store healthchecks passed")

	if *check {
		fmt.Println("Configuration OK")
		return
	}

	// Create the user directory from configured accounts
	users, err := config.CreateUserDirectory(cfg.Users)
	if err != nil {
		log.Fatalf("Failed to create user directory: %v", err)
	}
	logger.Info("User directory loaded with %d account(s)", len(cfg.Users))

	// Wire the sharing service; its grant sweeper is the only background
	// work this process runs
	clock := namespace.SystemClock{}
	sharingService := drive.NewSharing(store, users, clock)

	// Purge expired grants periodically. Sharing reads also purge
	// lazily, so this only bounds how long expired rows linger.
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		runGrantSweeper(ctx, sharingService, cfg.Server.GrantSweepInterval)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Drivebox is running. Press Ctrl+C to stop.")
	<-sigChan

	logger.Info("Shutdown signal received, initiating graceful shutdown...")
	cancel()

	// Wait for the sweeper to wind down, bounded by the shutdown timeout
	select {
	case <-sweepDone:
		logger.Info("Stopped gracefully")
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn("Shutdown timeout exceeded, exiting")
	}
}

// runGrantSweeper deletes expired sharing grants on a fixed interval
// until ctx is cancelled.
func runGrantSweeper(ctx context.Context, sharing *drive.Sharing, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sharing.SweepExpired(ctx)
			if err != nil {
				logger.Warn("Grant sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				logger.Info("Grant sweep removed %d expired grant(s)", removed)
			}
		}
	}
}
