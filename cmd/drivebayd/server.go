package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	v1 "github.com/drivebay/drivebay/internal/api/v1"
	"github.com/drivebay/drivebay/internal/config"
	"github.com/drivebay/drivebay/internal/coordinator"
	"github.com/drivebay/drivebay/internal/drivemon"
	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/playback"
	"github.com/drivebay/drivebay/internal/progress"
	"github.com/drivebay/drivebay/internal/registry"
	"github.com/drivebay/drivebay/internal/scanner"
	"github.com/drivebay/drivebay/internal/watcher"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	// Load config, or run on defaults when no file exists.
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Errors: errs}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Central registry: the only fatal-on-failure open in the system.
	reg, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer func() { _ = reg.Close() }()

	// Anything still marked connected is stale from a previous run; the
	// first poll re-reports whatever is actually mounted.
	if err := reg.MarkAllDisconnected(); err != nil {
		return fmt.Errorf("reset registry: %w", err)
	}

	// === Event plumbing and per-volume machinery ===
	bus := events.NewBus(logger.With("component", "events"))
	defer func() { _ = bus.Close() }()

	mon := drivemon.NewMonitor(&drivemon.OSEnumerator{Roots: cfg.Monitor.MountRoots}, reg, bus,
		cfg.Monitor.PollInterval.Std(), cfg.Monitor.EnumTimeout.Std(),
		logger.With("component", "drivemon"))
	sc := scanner.New(cfg.Scanner.MovieAliases, cfg.Scanner.ShowAliases,
		logger.With("component", "scanner"))
	w := watcher.New(bus, cfg.Watcher.Debounce.Std(), cfg.Watcher.FallbackPollInterval.Std(),
		logger.With("component", "watcher"))
	coord := coordinator.New(reg, bus, mon, sc, w, logger)

	// === Progress and playback routing ===
	tracker := progress.NewTracker(coord, cfg.Playback.ProgressInterval.Std(),
		logger.With("component", "progress"))

	var external playback.ExternalPlayer
	if cfg.Playback.ExternalPlayer != "" {
		external = playback.NewCommandPlayer(cfg.Playback.ExternalPlayer,
			cfg.Playback.ExternalPlayerArgs, logger.With("component", "external"))
	}
	cache := playback.NewTranscodeCache(cfg.Playback.TranscodeIdleTimeout.Std())
	selector := playback.NewSelector(
		func() playback.EmbeddedRenderer { return playback.NullRenderer{} },
		external, tracker, cache, bus,
		cfg.Playback.ProbeGuard.Std(), cfg.Playback.ProgressInterval.Std(), logger)
	defer selector.Close()
	coord.SetSessions(selector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordDone := make(chan error, 1)
	go func() { coordDone <- coord.Run(ctx) }()

	// === HTTP Setup ===
	mux := http.NewServeMux()
	api := v1.New(reg, coord, tracker, selector, bus, version, logger)
	api.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"registry", cfg.Registry.Path,
		"poll_interval", cfg.Monitor.PollInterval.Std().String(),
		"external_player", cfg.Playback.ExternalPlayer != "",
		"log_level", cfg.Server.LogLevel,
	)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal or coordinator failure.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	coordStopped := false
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-coordDone:
		coordStopped = true
		if err != nil {
			logger.Error("coordinator stopped", "error", err)
		}
	}

	// Stop the monitor, scans and watchers; flushes and closes every store.
	cancel()
	if !coordStopped {
		<-coordDone
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
