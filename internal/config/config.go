package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/varoOP/cinelist/internal/domain"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	pager := domain.DefaultPagerConfig()

	v.SetDefault("root_path", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("tmdb_base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb_max_retries", 3)
	v.SetDefault("tmdb_retry_delay", time.Second)
	v.SetDefault("tmdb_timeout", 5*time.Second)
	v.SetDefault("tmdb_requests_per_second", 0)
	v.SetDefault("page_delay", pager.Delay)
	v.SetDefault("rate_limit_pause", pager.RateLimitPause)
	v.SetDefault("max_stall", pager.MaxStall)
	v.SetDefault("window", pager.Window)
	v.SetDefault("letterboxd_paginate", pager.LetterboxdPaginate)
	v.SetDefault("user_agent", domain.DefaultUserAgent)
	v.SetDefault("random_user_agent", false)
	v.SetDefault("render_enabled", false)
	v.SetDefault("render_timeout", 45*time.Second)
	v.SetDefault("resolve_metadata", true)
	v.SetDefault("include_year", true)
}

// Load loads configuration from the global viper instance:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (CINELIST_*)
// 3. Bound command line flags
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		RootPath:              v.GetString("root_path"),
		LogLevel:              strings.ToLower(v.GetString("log_level")),
		TmdbApiKey:            v.GetString("tmdb_api_key"),
		TmdbBaseURL:           strings.TrimRight(v.GetString("tmdb_base_url"), "/"),
		TmdbMaxRetries:        v.GetInt("tmdb_max_retries"),
		TmdbRetryDelay:        v.GetDuration("tmdb_retry_delay"),
		TmdbTimeout:           v.GetDuration("tmdb_timeout"),
		TmdbRequestsPerSecond: v.GetFloat64("tmdb_requests_per_second"),
		MdblistApiKey:         v.GetString("mdblist_api_key"),
		Pager: domain.PagerConfig{
			Window:             v.GetInt("window"),
			Delay:              v.GetDuration("page_delay"),
			RateLimitPause:     v.GetDuration("rate_limit_pause"),
			MaxStall:           v.GetInt("max_stall"),
			LetterboxdPaginate: v.GetBool("letterboxd_paginate"),
		},
		UserAgent:         v.GetString("user_agent"),
		RandomUserAgent:   v.GetBool("random_user_agent"),
		RenderEnabled:     v.GetBool("render_enabled"),
		RenderTimeout:     v.GetDuration("render_timeout"),
		ResolveMetadata:   v.GetBool("resolve_metadata"),
		IncludeYear:       v.GetBool("include_year"),
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *domain.Config) error {
	if cfg.RootPath == "" {
		return fmt.Errorf("root_path must not be empty")
	}
	if cfg.TmdbMaxRetries < 1 {
		return fmt.Errorf("invalid tmdb_max_retries: %d (must be at least 1)", cfg.TmdbMaxRetries)
	}
	if cfg.TmdbRetryDelay < 0 {
		return fmt.Errorf("invalid tmdb_retry_delay: %s", cfg.TmdbRetryDelay)
	}
	if cfg.TmdbTimeout <= 0 {
		return fmt.Errorf("invalid tmdb_timeout: %s", cfg.TmdbTimeout)
	}
	if cfg.TmdbRequestsPerSecond < 0 {
		return fmt.Errorf("invalid tmdb_requests_per_second: %v", cfg.TmdbRequestsPerSecond)
	}
	if cfg.Pager.Window < 1 {
		return fmt.Errorf("invalid window: %d (must be at least 1)", cfg.Pager.Window)
	}
	if cfg.Pager.MaxStall < 1 {
		return fmt.Errorf("invalid max_stall: %d (must be at least 1)", cfg.Pager.MaxStall)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = domain.DefaultUserAgent
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 45 * time.Second
	}

	switch cfg.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (must be 'trace', 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}

	return nil
}

// RequireTmdb reports a usable error when metadata lookups are requested
// without an API key.
func RequireTmdb(cfg *domain.Config) error {
	if cfg.TmdbApiKey == "" {
		return fmt.Errorf("tmdb_api_key is required (set via config.yaml or CINELIST_TMDB_API_KEY environment variable)")
	}
	return nil
}
