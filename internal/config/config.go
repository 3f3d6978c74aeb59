// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port      int    `envconfig:"PORT" default:"3000"`
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"data/tinkerer.db"`

	SessionSecret       string   `envconfig:"SESSION_SECRET" required:"true"`
	DiscordClientID     string   `envconfig:"DISCORD_CLIENT_ID" required:"true"`
	DiscordClientSecret string   `envconfig:"DISCORD_CLIENT_SECRET" required:"true"`
	DiscordRedirectURI  string   `envconfig:"DISCORD_REDIRECT_URI" required:"true"`
	RequiredGuildID     string   `envconfig:"REQUIRED_GUILD_ID" required:"true"`
	DiscordAPIBase      string   `envconfig:"DISCORD_API_BASE" default:"https://discord.com/api/v10"`
	AdminIDs            []string `envconfig:"ADMIN_IDS"`

	StaticDir string `envconfig:"STATIC_DIR" default:"public"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	APIRateLimit    int           `envconfig:"API_RATE_LIMIT" default:"100"`
	AuthRateLimit   int           `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	StatsCacheTTL   time.Duration `envconfig:"STATS_CACHE_TTL" default:"30s"`
}

// Load reads a .env file from the working directory when one exists, then
// the environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite, postgres or mysql, got %q", c.DBDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("SESSION_SECRET must be at least 16 characters")
	}
	if c.APIRateLimit <= 0 || c.AuthRateLimit <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limits and RATE_LIMIT_WINDOW must be positive")
	}

	ids := c.AdminIDs[:0]
	for _, id := range c.AdminIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c.AdminIDs = ids
	return nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SlogLevel maps LOG_LEVEL to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return l, nil
}
