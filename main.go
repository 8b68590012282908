package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/publisher"
	"github.com/hogyzen12/optimisoor/internal/registry"
	"github.com/hogyzen12/optimisoor/internal/scheduler"
	"github.com/hogyzen12/optimisoor/internal/snapshot"

	"github.com/hogyzen12/optimisoor/internal/metadata"
	"github.com/hogyzen12/optimisoor/internal/pricing"
	"github.com/hogyzen12/optimisoor/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Optimisoor.Name,
		"version":     cfg.Optimisoor.Version,
		"environment": config.AppEnvironment(),
		"assets":      len(cfg.Assets),
	}).Info("starting optimisoor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Storage.S3.Enabled {
		logger.InitCloudWatch(cfg.Storage.S3.Region, "", cfg.Logging.DashboardName)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	store := snapshot.NewStore(cfg.Snapshot)

	var fetcher scheduler.Fetcher
	switch cfg.Registry.Mode {
	case "cursor":
		fetcher = registry.NewCursorClient(cfg.Registry, store)
	default:
		fetcher = registry.NewClient(cfg.Registry, store)
	}

	var prices scheduler.PriceSource
	if cfg.Pricing.Enabled {
		prices = pricing.NewClient(cfg.Pricing)
	}

	pub, err := publisher.New(cfg, store)
	if err != nil {
		log.WithError(err).Error("Failed to initialize publisher")
		os.Exit(1)
	}

	sched := scheduler.New(cfg, store, fetcher, metadata.NewClient(cfg.Metadata), prices, pub)

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx)
	}()

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
		select {
		case <-done:
		case <-time.After(30 * time.Second):
			log.Warn("graceful shutdown timeout exceeded")
		}
	case err := <-done:
		if err != nil && err != context.Canceled {
			log.WithError(err).Error("scheduler stopped unexpectedly")
		}
	}

	log.Info("optimisoor stopped")
}
