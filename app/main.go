package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"vidrelay/app/api"
	"vidrelay/app/cfg"
	"vidrelay/app/checkpoint"
	"vidrelay/app/database"
	"vidrelay/app/feed"
	"vidrelay/app/media"
	"vidrelay/app/pipeline"
	"vidrelay/app/publish"
	"vidrelay/app/tasks"
	"vidrelay/app/translate"
)

// Video downloads can legitimately take far longer than an API call.
const downloadTimeout = 10 * time.Minute

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg)

	slog.Info("Starting vidrelay", "version", appCfg.Version, "feed", appCfg.FeedPath)

	var store checkpoint.Store
	var recorder pipeline.RunRecorder
	var history api.RunHistory

	if appCfg.DBPath != "" {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		store = database.NewCheckpointRepository(db)
		runRepo := database.NewRunRepository(db)
		recorder = runRepo
		history = runRepo
	} else {
		store = checkpoint.NewFileStore(appCfg.CheckpointPath)
	}

	httpClient := &http.Client{}
	timeout := time.Duration(appCfg.HTTPTimeout) * time.Second

	fetcher := feed.NewFetcher(httpClient, appCfg.FeedBaseURL, appCfg.FeedPath, appCfg.UserAgent, timeout)
	translator := translate.NewClient(httpClient, appCfg.TranslateEndpoint, appCfg.TranslateEngine, appCfg.TranslateLang, timeout)
	mediaFetcher := media.NewFetcher(appCfg.YtdlpPath, appCfg.MediaDir, downloadTimeout)
	publisher := publish.NewWebhookPublisher(httpClient, appCfg.WebhookURL, timeout)

	pipe := pipeline.NewPipeline(mediaFetcher, translator, publisher, store, appCfg.TranslationWarning, appCfg.DeleteAfter)
	runner := pipeline.NewRunner(fetcher, pipe, store, recorder)

	if appCfg.Interval <= 0 {
		// Run once and exit; scheduling is left to cron or a workflow.
		if _, err := runner.Run(context.Background()); err != nil {
			slog.Error("Run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Daemon mode: poll on an interval until interrupted.
	status := api.NewStatus()
	tracked := &trackedRunner{runner: runner, status: status}

	scheduler := tasks.NewScheduler(tracked, time.Duration(appCfg.Interval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "interval", appCfg.Interval)

	serverErrChan := make(chan error, 1)
	var httpServer *http.Server

	if appCfg.Port != "" {
		handler := api.NewHandler(status, store, history)
		server := api.NewServer(handler)

		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      server,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting status API", "port", appCfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// trackedRunner mirrors each run's result into the API status holder.
type trackedRunner struct {
	runner *pipeline.Runner
	status *api.Status
}

func (t *trackedRunner) Run(ctx context.Context) (*pipeline.RunStats, error) {
	stats, err := t.runner.Run(ctx)
	t.status.Update(stats, err)
	return stats, err
}

func setupLogging(appCfg *cfg.Cfg) {
	var w io.Writer = os.Stdout
	if appCfg.LogFile != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   appCfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 1,
		})
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
