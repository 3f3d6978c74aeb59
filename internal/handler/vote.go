package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/service"
)

type VoteHandler struct {
	service *service.VoteService
	logger  *slog.Logger
}

func NewVoteHandler(svc *service.VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{service: svc, logger: logger}
}

// HandleToggle flips the caller's vote on an idea.
//
// HTTP: POST /api/votes/{ideaId}
// RESPONSE: {"voted": true, "vote_count": 4}
func (h *VoteHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.ViewerFromContext(r.Context())

	res, err := h.service.Toggle(r.Context(), viewer.UserID, chi.URLParam(r, "ideaId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
