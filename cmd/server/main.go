// Package main is the entry point for the Tinkerer Vote server.
//
// main stays minimal: load configuration, build the logger, open the
// database (and Redis when configured) and start the server. All actual
// logic lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/tinkerer-vote/internal/config"
	"github.com/sakif/tinkerer-vote/internal/repository/rediscache"
	"github.com/sakif/tinkerer-vote/internal/repository/sqlstore"
	"github.com/sakif/tinkerer-vote/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// === DATABASE ===
	dialect := sqlstore.Dialect(cfg.DBDriver)
	if dialect == sqlstore.SQLite && cfg.DBDSN != ":memory:" {
		// os.MkdirAll works like `mkdir -p`.
		dbDir := filepath.Dir(cfg.DBDSN)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	db, err := sqlstore.Open(ctx, dialect, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("driver", cfg.DBDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === REDIS (optional) ===
	// Redis only backs rate limiting and the stats cache. The board works
	// without it, so an unreachable Redis is a warning, not a fatal error.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = rediscache.Open(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("redis unavailable, continuing without it",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
			rdb = nil
		}
	}

	// === SERVER ===
	srv, err := server.New(cfg, logger, db, rdb)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the slog logger LOG_FORMAT and LOG_LEVEL ask for.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
