package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidate_DefaultsValid(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	assert.Empty(t, errs, "expected no errors for default config")
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 99999
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "server.port"), "expected port error, got %v", errs)
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Server.LogLevel = "verbose"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "log_level"), "expected log_level error, got %v", errs)
}

func TestValidate_MissingRegistryPath(t *testing.T) {
	cfg := Default()
	cfg.Registry.Path = ""
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "registry.path"), "expected registry error, got %v", errs)
}

func TestValidate_PollIntervalTooShort(t *testing.T) {
	cfg := Default()
	cfg.Monitor.PollInterval = duration(1)
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "poll_interval"), "expected poll_interval error, got %v", errs)
}

func TestValidate_NoAliases(t *testing.T) {
	cfg := Default()
	cfg.Scanner.MovieAliases = nil
	cfg.Scanner.ShowAliases = nil
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "scanner"), "expected scanner error, got %v", errs)
}

func TestValidate_DebounceTooLong(t *testing.T) {
	cfg := Default()
	cfg.Watcher.Debounce = duration(60 * time.Second)
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "debounce"), "expected debounce error, got %v", errs)
}
