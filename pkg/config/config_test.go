package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yegors/vatsim-utils/pkg/history"
	"github.com/yegors/vatsim-utils/pkg/live"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvLiveURL, EnvStatusURL, EnvTimeoutSeconds, EnvFreshnessSeconds, EnvHistoryURL} {
		t.Setenv(key, "")
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", `
[live]
data_url = "https://data.vatsim.net/v3/vatsim-data.json"
freshness_seconds = 30

[history]
requests_per_second = 2.5
burst = 3

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	want := &Config{
		Live: LiveConfig{
			StatusURL:     live.DefaultStatusURL,
			DataURL:       "https://data.vatsim.net/v3/vatsim-data.json",
			FreshnessSecs: 30,
			TimeoutSecs:   10,
		},
		History: HistoryConfig{
			BaseURL:           history.DefaultBaseURL,
			TimeoutSecs:       10,
			RequestsPerSecond: 2.5,
			Burst:             3,
		},
		Logging: LoggingConfig{Level: "debug", Format: "json"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yml", `
live:
  timeout_seconds: 5
history:
  base_url: https://api.example.net/api
logging:
  level: warn
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Live.TimeoutSecs != 5 {
		t.Errorf("Expected timeout 5, got %d", cfg.Live.TimeoutSecs)
	}
	if cfg.Live.FreshnessSecs != 15 {
		t.Errorf("Expected default freshness 15, got %d", cfg.Live.FreshnessSecs)
	}
	if cfg.History.BaseURL != "https://api.example.net/api" {
		t.Errorf("Expected history base URL override, got %s", cfg.History.BaseURL)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Errorf("Expected warn/console, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}

	bad := writeFile(t, dir, "bad.toml", "[live\nfreshness_seconds = ")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "failed to decode") {
		t.Errorf("Expected decode error, got %v", err)
	}

	badYAML := writeFile(t, dir, "bad.yaml", "live: [unterminated")
	if _, err := Load(badYAML); err == nil {
		t.Error("Expected decode error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLiveURL, "http://localhost:8080/v3.json")
	t.Setenv(EnvFreshnessSeconds, "60")
	t.Setenv(EnvTimeoutSeconds, "3")
	t.Setenv(EnvHistoryURL, "http://localhost:8080/api")

	path := writeFile(t, t.TempDir(), "config.toml", "[live]\nfreshness_seconds = 20\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Live.DataURL != "http://localhost:8080/v3.json" {
		t.Errorf("Expected data URL from environment, got %s", cfg.Live.DataURL)
	}
	if cfg.Live.FreshnessSecs != 60 {
		t.Errorf("Expected environment to win over the file, got %d", cfg.Live.FreshnessSecs)
	}
	if cfg.Live.TimeoutSecs != 3 || cfg.History.TimeoutSecs != 3 {
		t.Errorf("Expected timeout 3 on both clients, got %d/%d", cfg.Live.TimeoutSecs, cfg.History.TimeoutSecs)
	}
	if cfg.History.BaseURL != "http://localhost:8080/api" {
		t.Errorf("Expected history URL from environment, got %s", cfg.History.BaseURL)
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	env := map[string]string{EnvTimeoutSeconds: "ten"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("Expected an error for a non-numeric timeout")
	}
}

func TestLoadWithFallback(t *testing.T) {
	clearEnv(t)

	t.Run("explicit path must exist", func(t *testing.T) {
		if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("Expected an error for a missing explicit path")
		}
	})

	t.Run("searches configs directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "configs"), 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(dir, "configs"), "config.toml", "[logging]\nlevel = \"error\"\n")
		t.Chdir(dir)

		cfg, err := LoadWithFallback("")
		if err != nil {
			t.Fatalf("LoadWithFallback failed: %v", err)
		}
		if cfg.Logging.Level != "error" {
			t.Errorf("Expected level from configs/config.toml, got %s", cfg.Logging.Level)
		}
	})

	t.Run("defaults without any file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := LoadWithFallback("")
		if err != nil {
			t.Fatalf("LoadWithFallback failed: %v", err)
		}
		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Errorf("Expected defaults (-want +got):\n%s", diff)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero values take defaults", func(c *Config) { *c = Config{} }, ""},
		{"negative freshness", func(c *Config) { c.Live.FreshnessSecs = -1 }, "freshness_seconds"},
		{"negative timeout", func(c *Config) { c.Live.TimeoutSecs = -5 }, "timeout_seconds"},
		{"relative data url", func(c *Config) { c.Live.DataURL = "/v3.json" }, "data_url"},
		{"ftp status url", func(c *Config) { c.Live.StatusURL = "ftp://status.vatsim.net" }, "status_url"},
		{"metar url without host", func(c *Config) { c.Live.METARURL = "https://" }, "metar_url"},
		{"negative rate", func(c *Config) { c.History.RequestsPerSecond = -1 }, "requests_per_second"},
		{"negative burst", func(c *Config) { c.History.Burst = -1 }, "burst"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClientConfigConversions(t *testing.T) {
	cfg := Default()
	cfg.Live.DataURL = "https://data.vatsim.net/v3/vatsim-data.json"
	cfg.History.RequestsPerSecond = 1

	lc := cfg.LiveClientConfig()
	if lc.Freshness != 15*time.Second || lc.Timeout != 10*time.Second {
		t.Errorf("Expected 15s/10s, got %v/%v", lc.Freshness, lc.Timeout)
	}
	if lc.DataURL != cfg.Live.DataURL || lc.StatusURL != live.DefaultStatusURL {
		t.Errorf("Unexpected live config: %+v", lc)
	}

	hc := cfg.HistoryClientConfig()
	if hc.BaseURL != history.DefaultBaseURL || hc.RequestsPerSecond != 1 || hc.Timeout != 10*time.Second {
		t.Errorf("Unexpected history config: %+v", hc)
	}

	if lg := cfg.LoggerConfig(); lg.Level != "info" || lg.Format != "console" {
		t.Errorf("Unexpected logger config: %+v", lg)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Expected the example to spell out the defaults (-want +got):\n%s", diff)
	}
}
