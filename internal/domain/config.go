package domain

import "time"

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	RootPath string `toml:"root_path" mapstructure:"root_path"`
	LogLevel string `toml:"log_level" mapstructure:"log_level"`

	TmdbApiKey            string        `toml:"tmdb_api_key" mapstructure:"tmdb_api_key"`
	TmdbBaseURL           string        `toml:"tmdb_base_url" mapstructure:"tmdb_base_url"`
	TmdbMaxRetries        int           `toml:"tmdb_max_retries" mapstructure:"tmdb_max_retries"`
	TmdbRetryDelay        time.Duration `toml:"tmdb_retry_delay" mapstructure:"tmdb_retry_delay"`
	TmdbTimeout           time.Duration `toml:"tmdb_timeout" mapstructure:"tmdb_timeout"`
	TmdbRequestsPerSecond float64       `toml:"tmdb_requests_per_second" mapstructure:"tmdb_requests_per_second"`
	MdblistApiKey         string        `toml:"mdblist_api_key" mapstructure:"mdblist_api_key"`

	Pager PagerConfig `toml:"pager" mapstructure:"pager"`

	UserAgent       string `toml:"user_agent" mapstructure:"user_agent"`
	RandomUserAgent bool   `toml:"random_user_agent" mapstructure:"random_user_agent"`

	RenderEnabled bool          `toml:"render_enabled" mapstructure:"render_enabled"`
	RenderTimeout time.Duration `toml:"render_timeout" mapstructure:"render_timeout"`

	ResolveMetadata bool `toml:"resolve_metadata" mapstructure:"resolve_metadata"`
	IncludeYear     bool `toml:"include_year" mapstructure:"include_year"`

	DiscordWebhookURL string `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
}

// PagerConfig controls page walking for every site.
type PagerConfig struct {
	Window             int           `toml:"window" mapstructure:"window"`
	Delay              time.Duration `toml:"page_delay" mapstructure:"page_delay"`
	RateLimitPause     time.Duration `toml:"rate_limit_pause" mapstructure:"rate_limit_pause"`
	MaxStall           int           `toml:"max_stall" mapstructure:"max_stall"`
	LetterboxdPaginate bool          `toml:"letterboxd_paginate" mapstructure:"letterboxd_paginate"`
}

// DefaultPagerConfig returns the stock pager settings.
func DefaultPagerConfig() PagerConfig {
	return PagerConfig{
		Window:             3,
		Delay:              500 * time.Millisecond,
		RateLimitPause:     5 * time.Second,
		MaxStall:           5,
		LetterboxdPaginate: true,
	}
}
