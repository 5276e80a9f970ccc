// Package config loads vatsim-utils settings from a TOML or YAML file with
// environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yegors/vatsim-utils/pkg/history"
	"github.com/yegors/vatsim-utils/pkg/live"
	"github.com/yegors/vatsim-utils/pkg/logger"
)

// Environment variables that override file settings
const (
	EnvLiveURL          = "VATSIM_LIVE_URL"
	EnvStatusURL        = "VATSIM_STATUS_URL"
	EnvTimeoutSeconds   = "VATSIM_TIMEOUT_SECONDS"
	EnvFreshnessSeconds = "VATSIM_FRESHNESS_SECONDS"
	EnvHistoryURL       = "VATSIM_HISTORY_URL"
)

// Config represents the configuration file
type Config struct {
	Live    LiveConfig    `toml:"live" yaml:"live"`       // Live-data feed and cache settings
	History HistoryConfig `toml:"history" yaml:"history"` // Query API settings
	Logging LoggingConfig `toml:"logging" yaml:"logging"` // Application logging settings
}

// LiveConfig contains live-data feed settings
type LiveConfig struct {
	StatusURL       string `toml:"status_url" yaml:"status_url"`               // Endpoint discovery document
	DataURL         string `toml:"data_url" yaml:"data_url"`                   // Live-data feed; discovered when empty
	TransceiversURL string `toml:"transceivers_url" yaml:"transceivers_url"`   // Transceivers feed; discovered when empty
	METARURL        string `toml:"metar_url" yaml:"metar_url"`                 // Weather reports; discovered when empty
	FreshnessSecs   int    `toml:"freshness_seconds" yaml:"freshness_seconds"` // Maximum snapshot age before a refetch
	TimeoutSecs     int    `toml:"timeout_seconds" yaml:"timeout_seconds"`     // Per-fetch timeout
	UserAgent       string `toml:"user_agent" yaml:"user_agent"`
}

// HistoryConfig contains query API settings
type HistoryConfig struct {
	BaseURL           string  `toml:"base_url" yaml:"base_url"`
	TimeoutSecs       int     `toml:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"` // 0 disables client-side throttling
	Burst             int     `toml:"burst" yaml:"burst"`
	UserAgent         string  `toml:"user_agent" yaml:"user_agent"`
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`   // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format" yaml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Live: LiveConfig{
			StatusURL:     live.DefaultStatusURL,
			FreshnessSecs: int(live.DefaultFreshness / time.Second),
			TimeoutSecs:   int(live.DefaultTimeout / time.Second),
		},
		History: HistoryConfig{
			BaseURL:     history.DefaultBaseURL,
			TimeoutSecs: int(history.DefaultTimeout / time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a configuration file, choosing the decoder by extension, and
// applies environment overrides. Unset values keep their defaults.
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference. When no file exists anywhere the defaults are used,
// with environment overrides applied.
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"configs/config.yaml",
		"config.toml", // Root directory
		"config.yaml",
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
		if path == preferredPath {
			// An explicitly requested file must exist
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	config := Default()
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides settings from the environment using lookup, normally
// os.LookupEnv
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLiveURL); ok && v != "" {
		c.Live.DataURL = v
	}
	if v, ok := lookup(EnvStatusURL); ok && v != "" {
		c.Live.StatusURL = v
	}
	if v, ok := lookup(EnvHistoryURL); ok && v != "" {
		c.History.BaseURL = v
	}
	if v, ok := lookup(EnvTimeoutSeconds); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeoutSeconds, v, err)
		}
		c.Live.TimeoutSecs = secs
		c.History.TimeoutSecs = secs
	}
	if v, ok := lookup(EnvFreshnessSeconds); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvFreshnessSeconds, v, err)
		}
		c.Live.FreshnessSecs = secs
	}
	return nil
}

// Validate validates the configuration, filling defaults for empty values
func (c *Config) Validate() error {
	def := Default()

	// Live feed
	if c.Live.StatusURL == "" {
		c.Live.StatusURL = def.Live.StatusURL
	}
	if c.Live.FreshnessSecs == 0 {
		c.Live.FreshnessSecs = def.Live.FreshnessSecs
	}
	if c.Live.TimeoutSecs == 0 {
		c.Live.TimeoutSecs = def.Live.TimeoutSecs
	}
	if c.Live.FreshnessSecs < 0 {
		return fmt.Errorf("live freshness_seconds must be greater than 0: %d", c.Live.FreshnessSecs)
	}
	if c.Live.TimeoutSecs < 0 {
		return fmt.Errorf("live timeout_seconds must be greater than 0: %d", c.Live.TimeoutSecs)
	}
	if err := validateURL("live status_url", c.Live.StatusURL); err != nil {
		return err
	}
	if c.Live.DataURL != "" {
		if err := validateURL("live data_url", c.Live.DataURL); err != nil {
			return err
		}
	}
	if c.Live.TransceiversURL != "" {
		if err := validateURL("live transceivers_url", c.Live.TransceiversURL); err != nil {
			return err
		}
	}
	if c.Live.METARURL != "" {
		if err := validateURL("live metar_url", c.Live.METARURL); err != nil {
			return err
		}
	}

	// Query API
	if c.History.BaseURL == "" {
		c.History.BaseURL = def.History.BaseURL
	}
	if c.History.TimeoutSecs == 0 {
		c.History.TimeoutSecs = def.History.TimeoutSecs
	}
	if c.History.TimeoutSecs < 0 {
		return fmt.Errorf("history timeout_seconds must be greater than 0: %d", c.History.TimeoutSecs)
	}
	if c.History.RequestsPerSecond < 0 {
		return fmt.Errorf("history requests_per_second must be 0 or greater: %g", c.History.RequestsPerSecond)
	}
	if c.History.Burst < 0 {
		return fmt.Errorf("history burst must be 0 or greater: %d", c.History.Burst)
	}
	if err := validateURL("history base_url", c.History.BaseURL); err != nil {
		return err
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (must be 'json' or 'console')", c.Logging.Format)
	}

	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", name, raw)
	}
	return nil
}

// LiveClientConfig converts the [live] section for live.NewService
func (c *Config) LiveClientConfig() live.Config {
	return live.Config{
		StatusURL:       c.Live.StatusURL,
		DataURL:         c.Live.DataURL,
		TransceiversURL: c.Live.TransceiversURL,
		METARURL:        c.Live.METARURL,
		Freshness:       time.Duration(c.Live.FreshnessSecs) * time.Second,
		Timeout:         time.Duration(c.Live.TimeoutSecs) * time.Second,
		UserAgent:       c.Live.UserAgent,
	}
}

// HistoryClientConfig converts the [history] section for history.NewClient
func (c *Config) HistoryClientConfig() history.Config {
	return history.Config{
		BaseURL:           c.History.BaseURL,
		Timeout:           time.Duration(c.History.TimeoutSecs) * time.Second,
		UserAgent:         c.History.UserAgent,
		RequestsPerSecond: c.History.RequestsPerSecond,
		Burst:             c.History.Burst,
	}
}

// LoggerConfig converts the [logging] section for logger.New
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
	}
}
