package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/service"
)

// AuthorizeURLer builds the provider's authorization URL for a state value.
// auth.DiscordProvider satisfies it.
type AuthorizeURLer interface {
	AuthURL(state string) string
}

var _ AuthorizeURLer = (*auth.DiscordProvider)(nil)

// AuthHandler manages the Discord login flow and session cookies.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → redirect the browser to Discord's authorization page
//   - HandleCallback → verify state, complete the login, issue the session cookie
//   - HandleLogout   → clear the session cookie
//   - HandleMe       → report the logged-in user, or null
type AuthHandler struct {
	provider AuthorizeURLer
	identity *service.IdentityService
	tokens   *auth.TokenService
	secure   bool // mark cookies Secure; true behind HTTPS
	logger   *slog.Logger
}

func NewAuthHandler(
	provider AuthorizeURLer,
	identity *service.IdentityService,
	tokens *auth.TokenService,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		identity: identity,
		tokens:   tokens,
		secure:   secureCookies,
		logger:   logger,
	}
}

// meResponse is the body of GET /auth/me. User is nil for anonymous callers.
type meResponse struct {
	User *meUser `json:"user"`
}

type meUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	IsAdmin   bool   `json:"is_admin"`
}

// HandleLogin redirects the user to Discord's authorization page.
//
// HTTP: GET /auth/login
//
// A fresh state value goes into a short-lived HttpOnly cookie and into the
// authorization URL. HandleCallback only accepts a callback carrying the
// same value.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := auth.NewState()
	auth.SetStateCookie(w, state, h.secure)

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
//
// Every outcome is a redirect to the app; failures carry a reason in the
// query string (invalid_state, no_code, not_member, auth_failed).
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var stored string
	if c, err := r.Cookie(auth.StateCookieName); err == nil {
		stored = c.Value
	}
	received := r.URL.Query().Get("state")

	// The state is single-use whatever happens next.
	auth.ClearStateCookie(w, h.secure)

	if !auth.StateMatches(stored, received) {
		h.logger.Warn("auth callback: invalid state",
			slog.Bool("cookiePresent", stored != ""),
			slog.Bool("paramPresent", received != ""),
		)
		redirectWithError(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Info("auth callback: no code", slog.String("providerError", r.URL.Query().Get("error")))
		redirectWithError(w, r, "no_code")
		return
	}

	user, err := h.identity.CompleteLogin(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			redirectWithError(w, r, "not_member")
			return
		}

		attrs := []any{slog.String("error", err.Error())}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Cause != nil {
			attrs = append(attrs, slog.String("cause", appErr.Cause.Error()))
		}
		h.logger.Error("auth callback: login failed", attrs...)
		redirectWithError(w, r, "auth_failed")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.IsAdmin)
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		redirectWithError(w, r, "auth_failed")
		return
	}
	auth.SetSessionCookie(w, token, h.secure)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /auth/logout  → 303 to /
// HTTP: POST /auth/logout → {"message":"logged out"}
//
// Sessions are stateless tokens, so logging out only drops the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secure)

	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the current user or {"user": null}.
//
// HTTP: GET /auth/me
// Auth: Optional
//
// The user is read from the store, so username and avatar are those of the
// last login. A session whose user no longer exists reads as anonymous.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.ViewerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, meResponse{})
		return
	}

	user, err := h.identity.GetUser(r.Context(), viewer.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, meResponse{})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: &meUser{
		ID:        user.ID,
		Username:  user.DisplayName,
		AvatarURL: auth.AvatarURL(user.ExternalID, user.AvatarRef),
		IsAdmin:   user.IsAdmin,
	}})
}

func redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/?error="+reason, http.StatusSeeOther)
}
