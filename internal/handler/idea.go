package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/service"
)

// IdeaHandler exposes idea creation, editing and deletion. Every route sits
// behind auth.RequireAuth.
type IdeaHandler struct {
	service *service.IdeaService
	logger  *slog.Logger
}

func NewIdeaHandler(svc *service.IdeaService, logger *slog.Logger) *IdeaHandler {
	return &IdeaHandler{service: svc, logger: logger}
}

// ideaRequest is the body of POST /api/ideas and PUT /api/ideas/{id}.
type ideaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate submits a new idea owned by the caller.
//
// HTTP: POST /api/ideas
// REQUEST BODY: {"title": "Dark mode", "description": "optional"}
// RESPONSE: 201 {"idea": {...}}
func (h *IdeaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	viewer, _ := auth.ViewerFromContext(r.Context())
	idea, err := h.service.Create(r.Context(), viewer.UserID, req.Title, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"idea": idea})
}

// HandleUpdate edits the caller's own idea.
//
// HTTP: PUT /api/ideas/{id}
func (h *IdeaHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	viewer, _ := auth.ViewerFromContext(r.Context())
	err := h.service.Update(r.Context(), chi.URLParam(r, "id"), viewer.UserID, req.Title, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDelete removes an idea. Owners may delete their own; admins may
// delete any.
//
// HTTP: DELETE /api/ideas/{id}
func (h *IdeaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.ViewerFromContext(r.Context())
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), viewer.UserID, viewer.IsAdmin)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
