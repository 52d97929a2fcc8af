package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/riftwatch/riftwatch/internal/api"
	"github.com/riftwatch/riftwatch/internal/bus"
	"github.com/riftwatch/riftwatch/internal/cache"
	"github.com/riftwatch/riftwatch/internal/config"
	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/identity"
	"github.com/riftwatch/riftwatch/internal/matches"
	"github.com/riftwatch/riftwatch/internal/rank"
	"github.com/riftwatch/riftwatch/internal/repository"
	"github.com/riftwatch/riftwatch/internal/riot"
	"github.com/riftwatch/riftwatch/internal/scan"
	"github.com/riftwatch/riftwatch/internal/throttle"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logLevel := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Logging.Format == "text" {
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("starting riftwatch",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"region", cfg.Riot.DefaultRegion,
	)

	// Create context with cancellation
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

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Riot API client and services
	riotClient := riot.NewClient(cfg.Riot)
	defer riotClient.Close()

	resolver := identity.NewResolver(cacheImpl, repo, riotClient)
	matchSvc := matches.NewService(cacheImpl, repo, riotClient, resolver)
	rankSvc := rank.NewService(resolver, riotClient)
	governor := throttle.NewGovernor()
	scanner := scan.NewScanner(repo, matchSvc, governor, busImpl, cfg.Scan)

	// Startup housekeeping: purge stale cache rows, then warm the
	// identity cache for every tracked player.
	if result, err := matchSvc.RunMaintenance(ctx); err != nil {
		slog.Warn("startup maintenance failed", "error", err)
	} else {
		slog.Info("startup maintenance complete",
			"corrupted_removed", result.CorruptedRemoved,
			"expired_removed", result.ExpiredRemoved,
		)
	}
	if err := resolver.PrefetchAll(ctx); err != nil {
		slog.Warn("identity prefetch incomplete", "error", err)
	}

	// Background jobs
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.Maintenance.IntervalDays)*24*time.Hour),
		gocron.NewTask(func() {
			result, err := matchSvc.RunMaintenance(ctx)
			if err != nil {
				slog.Error("scheduled maintenance failed", "error", err)
				return
			}
			slog.Info("scheduled maintenance complete",
				"corrupted_removed", result.CorruptedRemoved,
				"expired_removed", result.ExpiredRemoved,
			)
		}),
	)
	if err != nil {
		slog.Error("failed to schedule maintenance job", "error", err)
		os.Exit(1)
	}

	if cfg.Scan.Enabled {
		_, err = scheduler.NewJob(
			gocron.DurationJob(time.Duration(cfg.Scan.IntervalMinutes)*time.Minute),
			gocron.NewTask(func() {
				if err := scanner.Run(ctx); err != nil {
					slog.Error("streak scan failed", "error", err)
				}
			}),
		)
		if err != nil {
			slog.Error("failed to schedule streak scan", "error", err)
			os.Exit(1)
		}
		slog.Info("streak scan scheduled", "interval_minutes", cfg.Scan.IntervalMinutes)
	}

	scheduler.Start()
	defer func() { _ = scheduler.Shutdown() }()

	// Initialize Server
	handler := api.NewHandler(repo, cacheImpl, resolver, matchSvc, rankSvc, cfg.Riot.DefaultRegion, Version)
	srv := api.NewServer(cfg.Server, handler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("riftwatch is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("riftwatch shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  RIFTWATCH - player statistics cache")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Region:   %s\n", cfg.Riot.DefaultRegion)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /resolve           - Resolve a Riot ID to a PUUID")
	fmt.Println("    GET  /matches           - Recent ranked match history")
	fmt.Println("    GET  /matches/detailed  - Match history with timeline stats")
	fmt.Println("    GET  /rank              - Current solo or flex rank")
	fmt.Println("    GET  /tracked           - List tracked players (X-Guild-ID)")
	fmt.Println("    POST /tracked           - Track a player (X-Guild-ID)")
	fmt.Println("    DELETE /tracked         - Untrack a player (X-Guild-ID)")
	fmt.Println("    POST /maintenance       - Purge stale cache entries")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}
