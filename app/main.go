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

	"github.com/rivalradar/rivalradar/app/ai"
	"github.com/rivalradar/rivalradar/app/api"
	"github.com/rivalradar/rivalradar/app/cfg"
	"github.com/rivalradar/rivalradar/app/database"
	"github.com/rivalradar/rivalradar/app/scan"
	"github.com/rivalradar/rivalradar/app/tasks"
	"github.com/rivalradar/rivalradar/app/watchlist"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Rival Radar server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	competitorRepo := database.NewCompetitorRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)
	changeRepo := database.NewChangeRepository(db)

	watchlistCache := watchlist.NewCache(appCfg.WatchlistDir)
	if err := watchlistCache.Run(); err != nil {
		slog.Error("Failed to load watchlist", "dir", appCfg.WatchlistDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Watchlist loaded", "dir", appCfg.WatchlistDir, "entries", watchlistCache.GetCount())

	aiClient, err := ai.NewFromConfig(appCfg.AIProvider, appCfg.AIModel, appCfg.OpenAIKey)
	if err != nil {
		slog.Error("Failed to initialize AI client", "provider", appCfg.AIProvider, "error", err)
		os.Exit(1)
	}
	if aiClient == nil {
		slog.Info("AI analysis disabled, using deterministic classification")
	} else {
		slog.Info("AI analysis enabled", "provider", appCfg.AIProvider, "model", appCfg.AIModel)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	fetcher := scan.NewFetcher(httpClient)
	changelogFetcher := scan.NewChangelogFetcher(httpClient)
	classifier := scan.NewClassifier(aiClient)
	orchestrator := scan.NewOrchestrator(fetcher, changelogFetcher, classifier,
		competitorRepo, snapshotRepo, changeRepo)
	summarizer := scan.NewSummarizer(aiClient)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.ScanInterval)
	scheduler := tasks.NewScheduler(watchlistCache, orchestrator, competitorRepo)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(competitorRepo, changeRepo, summarizer, orchestrator, scheduler)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
