package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	UpstreamBaseURL string        `mapstructure:"UPSTREAM_BASE_URL"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	UpstreamRPS     float64       `mapstructure:"UPSTREAM_RATE_RPS"`
	UpstreamBurst   int           `mapstructure:"UPSTREAM_RATE_BURST"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	ListStaleTTL    time.Duration `mapstructure:"LIST_STALE_TTL"`
	LookupStaleTTL  time.Duration `mapstructure:"LOOKUP_STALE_TTL"`
	SearchDebounce  time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	DefaultLanguage string        `mapstructure:"DEFAULT_LANGUAGE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("UPSTREAM_TIMEOUT", "30s")
	v.SetDefault("UPSTREAM_RATE_RPS", 50)
	v.SetDefault("UPSTREAM_RATE_BURST", 100)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("LIST_STALE_TTL", "2m")
	v.SetDefault("LOOKUP_STALE_TTL", "10m")
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("DEFAULT_LANGUAGE", "en")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("UPSTREAM_BASE_URL")
	v.BindEnv("UPSTREAM_TIMEOUT")
	v.BindEnv("UPSTREAM_RATE_RPS")
	v.BindEnv("UPSTREAM_RATE_BURST")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("LIST_STALE_TTL")
	v.BindEnv("LOOKUP_STALE_TTL")
	v.BindEnv("SEARCH_DEBOUNCE")
	v.BindEnv("SESSION_TTL")
	v.BindEnv("DEFAULT_LANGUAGE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.UpstreamBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an absolute URL, got %q", c.UpstreamBaseURL)
	}
	if c.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("UPSTREAM_BASE_URL must use https in production")
	}
	if c.ListStaleTTL <= 0 || c.LookupStaleTTL <= 0 {
		return fmt.Errorf("cache staleness windows must be positive")
	}
	if c.ListStaleTTL > c.LookupStaleTTL {
		return fmt.Errorf("LIST_STALE_TTL must not exceed LOOKUP_STALE_TTL")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
