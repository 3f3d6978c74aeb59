package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/service"
)

// BoardHandler serves the read-only views: leaderboard and stats.
type BoardHandler struct {
	leaderboard *service.LeaderboardService
	stats       *service.StatsService
	logger      *slog.Logger
}

func NewBoardHandler(leaderboard *service.LeaderboardService, stats *service.StatsService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{leaderboard: leaderboard, stats: stats, logger: logger}
}

// HandleLeaderboard returns every idea ranked by votes.
//
// HTTP: GET /api/leaderboard
// Auth: Optional; user_voted is false everywhere for anonymous callers.
func (h *BoardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.ViewerFromContext(r.Context())

	ideas, err := h.leaderboard.List(r.Context(), viewer.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

// HandleStats returns idea, vote and member totals.
//
// HTTP: GET /api/stats
func (h *BoardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth answers liveness probes.
//
// HTTP: GET /healthz
// RESPONSE: 200 {"status":"ok"} or 503 {"status":"unavailable"}
func HandleHealth(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
