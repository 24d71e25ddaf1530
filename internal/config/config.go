// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Cookie
	CookieDomain string `env:"COOKIE_DOMAIN"`
	// CookieSecure は BaseURL が https の場合に true になる。
	CookieSecure bool `env:"-"`

	// CORS。空の場合はJSON APIを同一オリジンからのみ利用する。
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// List
	PageSize             int     `env:"PAGE_SIZE" envDefault:"9"`
	PaginationMaxVisible int     `env:"PAGINATION_MAX_VISIBLE" envDefault:"5"`
	SearchThreshold      float64 `env:"SEARCH_THRESHOLD" envDefault:"0.25"`

	// View session
	SessionTTL             time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// Rate Limit（req/min）
	RateLimitGeneral  int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitMutation int `env:"RATE_LIMIT_MUTATION" envDefault:"30"`

	// Data
	SeedEmployees bool `env:"SEED_EMPLOYEES" envDefault:"true"`

	// Localization
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`
}

// Load は環境変数からConfigを読み込む。
// 値の形式が不正な場合や範囲外の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, fmt.Errorf("invalid environment variable: %w", aggErr.Errors[0])
		}
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate は値の範囲を検証する。
func (c *Config) validate() error {
	var problems []string
	if c.PageSize < 1 {
		problems = append(problems, "PAGE_SIZE must be at least 1")
	}
	if c.PaginationMaxVisible < 1 {
		problems = append(problems, "PAGINATION_MAX_VISIBLE must be at least 1")
	}
	if c.SearchThreshold <= 0 || c.SearchThreshold > 1 {
		problems = append(problems, "SEARCH_THRESHOLD must be in (0, 1]")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.SessionCleanupInterval <= 0 {
		problems = append(problems, "SESSION_CLEANUP_INTERVAL must be positive")
	}
	if c.RateLimitGeneral < 1 || c.RateLimitMutation < 1 {
		problems = append(problems, "RATE_LIMIT_GENERAL and RATE_LIMIT_MUTATION must be at least 1")
	}
	if _, err := c.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel は LogLevel を slog.Level に変換する。
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}
