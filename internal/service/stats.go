package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

// StatsCache holds a recent snapshot. Get reports ok=false on a miss.
type StatsCache interface {
	Get(ctx context.Context) (stats model.Stats, ok bool, err error)
	Set(ctx context.Context, stats model.Stats) error
}

// StatsService returns board totals, optionally through a cache. Counts may
// lag writes by the cache TTL.
type StatsService struct {
	repo   repository.StatsRepository
	cache  StatsCache // nil disables caching
	logger *slog.Logger
}

func NewStatsService(repo repository.StatsRepository, cache StatsCache, logger *slog.Logger) *StatsService {
	return &StatsService{repo: repo, cache: cache, logger: logger}
}

// Snapshot returns the idea, vote and member counts. Cache errors are logged
// and the database is used instead.
func (s *StatsService) Snapshot(ctx context.Context) (model.Stats, error) {
	if s.cache != nil {
		stats, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return stats, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("counting stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			s.logger.Warn("stats cache write failed", slog.String("error", err.Error()))
		}
	}
	return stats, nil
}
