package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/RavensCloud/hlsfeed"
)

const (
	EnvPrefix  = "HLSFEED"
	configName = "hlsfeed"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:5000")
	v.SetDefault("reachable_host", "")
	v.SetDefault("feed_path", hlsfeed.DefaultFeedPath)
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("retry_max", 2)
	v.SetDefault("like_delay", time.Duration(0))
	v.SetDefault("proxy", "")
	v.SetDefault("user_agent", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func searchPaths() []string {
	paths := []string{".", "./config"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, configName))
	}
	return paths
}

// Load merges defaults, the config file and HLSFEED_* environment variables
// and validates the result.
func Load(path string) (Config, error) {
	cfg, err := LoadRaw(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadRaw is Load without validation, for callers that apply overrides
// first. With an empty path hlsfeed.{yml,yaml,json,toml} is searched for and
// may be absent; an explicit path must exist.
func LoadRaw(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		for _, p := range searchPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		logrus.Debug("no config file found, using defaults and environment")
	} else {
		logrus.Debugf("using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return invalid("base_url %q: %v", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("base_url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return invalid("base_url %q: missing host", c.BaseURL)
	}
	if !strings.HasPrefix(c.FeedPath, "/") {
		return invalid("feed_path %q: must start with /", c.FeedPath)
	}
	if c.Timeout <= 0 {
		return invalid("timeout must be positive, got %v", c.Timeout)
	}
	if c.RetryMax < 0 {
		return invalid("retry_max must not be negative, got %d", c.RetryMax)
	}
	if c.LikeDelay < 0 {
		return invalid("like_delay must not be negative, got %v", c.LikeDelay)
	}
	if strings.ContainsAny(c.ReachableHost, "/ ") {
		return invalid("reachable_host %q: must be a bare host", c.ReachableHost)
	}
	if !hlsfeed.ValidReachableHost(c.ReachableHost) {
		return invalid("reachable_host %q: must not contain %q", c.ReachableHost, hlsfeed.PlaceholderHost)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format %q: must be text or json", c.Log.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", hlsfeed.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// NewLogger builds a logrus logger from the log section.
func (c Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// NewClient builds a feed client from the configuration.
func (c Config) NewClient(logger logrus.FieldLogger) (*hlsfeed.Client, error) {
	client := hlsfeed.New().
		WithBaseURL(c.BaseURL).
		WithFeedPath(c.FeedPath).
		WithReachableHost(c.ReachableHost).
		WithTimeout(c.Timeout).
		WithRetryMax(c.RetryMax).
		WithLikeDelay(c.LikeDelay).
		WithUserAgent(c.UserAgent).
		WithLogger(logger)
	if err := client.SetProxy(c.Proxy); err != nil {
		return nil, fmt.Errorf("set proxy: %w", err)
	}
	return client, nil
}
