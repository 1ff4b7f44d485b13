package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/status-comb/app/api"
	"github.com/lysyi3m/status-comb/app/cfg"
	"github.com/lysyi3m/status-comb/app/events"
	"github.com/lysyi3m/status-comb/app/feed"
	"github.com/lysyi3m/status-comb/app/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting service", "service", appCfg.ServiceName, "version", appCfg.Version)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	for _, feedURL := range appCfg.FeedURLs {
		feedConfig, err := configCache.AddURL(feedURL)
		if err != nil {
			return err
		}
		slog.Debug("Feed registered", "feed", feedConfig.Name, "url", feedConfig.URL)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount(), "enabled", len(configCache.GetEnabledConfigs()))

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: appCfg.Concurrency,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent, appCfg.FetchTimeout, appCfg.FetchRate)
	defer fetcher.CloseIdleConnections()

	extractor := feed.NewExtractor(feed.ExtractorOptions{
		Policy:    feed.FirstRunPolicy(appCfg.FirstRun),
		SeenLimit: appCfg.SeenLimit,
		Product:   appCfg.Product,
		Location:  appCfg.Location,
	})
	buffer := events.NewBuffer(appCfg.BufferSize)

	scheduler := tasks.NewScheduler(configCache, fetcher, extractor, buffer, appCfg.PollInterval, appCfg.Concurrency)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(appCfg.ServiceName, appCfg.Version, buffer, configCache, fetcher, extractor, scheduler)
	server := api.NewServer(handler)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler and idle connections are released via defer
	return serveErr
}
