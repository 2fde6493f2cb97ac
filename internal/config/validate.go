package config

import (
	"fmt"
	"os/exec"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Registry.Path == "" {
		errs = append(errs, "registry.path: required")
	}

	if c.Monitor.PollInterval.Std() < time.Second {
		errs = append(errs, fmt.Sprintf("monitor.poll_interval: must be at least 1s, got %s", c.Monitor.PollInterval.Std()))
	}
	if c.Monitor.EnumTimeout.Std() <= 0 {
		errs = append(errs, "monitor.enum_timeout: must be positive")
	}

	if len(c.Scanner.MovieAliases) == 0 && len(c.Scanner.ShowAliases) == 0 {
		errs = append(errs, "scanner: at least one of movie_aliases or show_aliases must be non-empty")
	}

	if c.Watcher.Debounce.Std() <= 0 {
		errs = append(errs, "watcher.debounce: must be positive")
	}
	if c.Watcher.Debounce.Std() > 30*time.Second {
		errs = append(errs, fmt.Sprintf("watcher.debounce: must be at most 30s, got %s", c.Watcher.Debounce.Std()))
	}

	// External player warning (non-fatal at runtime, playback degrades)
	if c.Playback.ExternalPlayer != "" {
		if _, err := exec.LookPath(c.Playback.ExternalPlayer); err != nil {
			errs = append(errs, fmt.Sprintf("playback.external_player: warning: %q not found in PATH", c.Playback.ExternalPlayer))
		}
	}

	return errs
}
