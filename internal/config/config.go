// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Registry RegistryConfig `toml:"registry"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Scanner  ScannerConfig  `toml:"scanner"`
	Watcher  WatcherConfig  `toml:"watcher"`
	Playback PlaybackConfig `toml:"playback"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

// RegistryConfig locates the central volume registry. The registry lives in
// the host's per-user data directory, never on a volume.
type RegistryConfig struct {
	Path string `toml:"path"`
}

type MonitorConfig struct {
	PollInterval duration `toml:"poll_interval"`
	EnumTimeout  duration `toml:"enum_timeout"`
	// MountRoots restricts volume enumeration to mounts under these
	// prefixes. Empty means the platform's usual removable mount locations.
	MountRoots []string `toml:"mount_roots"`
}

type ScannerConfig struct {
	MovieAliases []string `toml:"movie_aliases"`
	ShowAliases  []string `toml:"show_aliases"`
}

type WatcherConfig struct {
	Debounce             duration `toml:"debounce"`
	FallbackPollInterval duration `toml:"fallback_poll_interval"`
}

type PlaybackConfig struct {
	// ExternalPlayer is the command invoked for the external decoding path.
	// Empty means no external path is available.
	ExternalPlayer       string   `toml:"external_player"`
	ExternalPlayerArgs   []string `toml:"external_player_args"`
	ProbeGuard           duration `toml:"probe_guard"`
	TranscodeIdleTimeout duration `toml:"transcode_idle_timeout"`
	ProgressInterval     duration `toml:"progress_interval"`
}

// duration wraps time.Duration for TOML decoding of strings like "2s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d duration) Std() time.Duration { return time.Duration(d) }

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8590
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Registry.Path == "" {
		c.Registry.Path = defaultRegistryPath()
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = duration(5 * time.Second)
	}
	if c.Monitor.EnumTimeout == 0 {
		c.Monitor.EnumTimeout = duration(3 * time.Second)
	}
	if len(c.Scanner.MovieAliases) == 0 {
		c.Scanner.MovieAliases = []string{"movies", "movie", "films", "film"}
	}
	if len(c.Scanner.ShowAliases) == 0 {
		c.Scanner.ShowAliases = []string{"shows", "show", "series", "tv", "tv shows"}
	}
	if c.Watcher.Debounce == 0 {
		c.Watcher.Debounce = duration(2 * time.Second)
	}
	if c.Watcher.FallbackPollInterval == 0 {
		c.Watcher.FallbackPollInterval = duration(5 * time.Minute)
	}
	if c.Playback.ProbeGuard == 0 {
		c.Playback.ProbeGuard = duration(1500 * time.Millisecond)
	}
	if c.Playback.TranscodeIdleTimeout == 0 {
		c.Playback.TranscodeIdleTimeout = duration(5 * time.Minute)
	}
	if c.Playback.ProgressInterval == 0 {
		c.Playback.ProgressInterval = duration(10 * time.Second)
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
// and reports the names it could not resolve.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		if !seen[varName] {
			seen[varName] = true
			missing = append(missing, varName)
		}
		return match
	})
	return out, missing
}
