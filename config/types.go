package config

import "time"

// Config is the client configuration after defaults, file and environment
// have been merged.
type Config struct {
	BaseURL       string        `mapstructure:"base_url"`
	ReachableHost string        `mapstructure:"reachable_host"`
	FeedPath      string        `mapstructure:"feed_path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryMax      int           `mapstructure:"retry_max"`
	LikeDelay     time.Duration `mapstructure:"like_delay"`
	Proxy         string        `mapstructure:"proxy"`
	UserAgent     string        `mapstructure:"user_agent"`
	Log           Log           `mapstructure:"log"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}
