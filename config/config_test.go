package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RavensCloud/hlsfeed"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() Config {
	return Config{
		BaseURL:  "http://localhost:5000",
		FeedPath: hlsfeed.DefaultFeedPath,
		Timeout:  15 * time.Second,
		RetryMax: 2,
		Log:      Log{Level: "info", Format: "text"},
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, "hlsfeed.yml", `
base_url: http://192.168.0.21:5000
reachable_host: 192.168.0.21
feed_path: /videos
timeout: 5s
retry_max: 1
like_delay: 250ms
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://192.168.0.21:5000", cfg.BaseURL)
	require.Equal(t, "192.168.0.21", cfg.ReachableHost)
	require.Equal(t, "/videos", cfg.FeedPath)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, 1, cfg.RetryMax)
	require.Equal(t, 250*time.Millisecond, cfg.LikeDelay)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	// Run from an empty directory so no hlsfeed.yml is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HLSFEED_REACHABLE_HOST", "10.0.0.7")
	t.Setenv("HLSFEED_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", cfg.BaseURL)
	require.Equal(t, hlsfeed.DefaultFeedPath, cfg.FeedPath)
	require.Equal(t, 15*time.Second, cfg.Timeout)
	require.Equal(t, 2, cfg.RetryMax)
	require.Equal(t, "10.0.0.7", cfg.ReachableHost)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "hlsfeed.yml", "reachable_host: localhost.lan\n")
	_, err := Load(path)
	require.ErrorIs(t, err, hlsfeed.ErrInvalidConfig)
}

func TestLoadRaw_OverrideFixesInvalidValue(t *testing.T) {
	path := writeConfig(t, "hlsfeed.yml", "reachable_host: localhost.lan\n")

	cfg, err := LoadRaw(path)
	require.NoError(t, err)
	require.Equal(t, "localhost.lan", cfg.ReachableHost)
	require.ErrorIs(t, cfg.Validate(), hlsfeed.ErrInvalidConfig)

	cfg.ReachableHost = "192.168.0.21"
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"reachable ip", func(c *Config) { c.ReachableHost = "192.168.0.21" }, false},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://host" }, true},
		{"no host", func(c *Config) { c.BaseURL = "http://" }, true},
		{"unparsable url", func(c *Config) { c.BaseURL = "://bad" }, true},
		{"relative feed path", func(c *Config) { c.FeedPath = "api/videos" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"negative retry", func(c *Config) { c.RetryMax = -1 }, true},
		{"negative like delay", func(c *Config) { c.LikeDelay = -time.Second }, true},
		{"host with path", func(c *Config) { c.ReachableHost = "10.0.0.1/x" }, true},
		{"host containing placeholder", func(c *Config) { c.ReachableHost = "localhost.lan" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, hlsfeed.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.ReachableHost = "192.168.0.21"
	cfg.Proxy = "socks5://proxy.example.com:1080"

	client, err := cfg.NewClient(cfg.NewLogger())
	require.NoError(t, err)
	require.Equal(t, "192.168.0.21", client.ReachableHost())

	cfg.ReachableHost = ""
	cfg.BaseURL = "http://10.0.0.7:5000"
	client, err = cfg.NewClient(nil)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.7", client.ReachableHost(), "host falls back to the base URL")

	cfg.Proxy = "ftp://nope"
	_, err = cfg.NewClient(nil)
	require.Error(t, err)
}
