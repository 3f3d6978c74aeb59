package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so no other package can read or shadow the viewer.
type contextKey string

const viewerKey contextKey = "viewer"

// Viewer is the authenticated caller of a request.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// RequireAuth rejects requests without a valid session cookie with 401 and
// stores the Viewer in the context otherwise.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := viewerFromRequest(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"Authentication required"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

// OptionalAuth attaches the Viewer when a valid session is present and lets
// anonymous requests through untouched.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if viewer, err := viewerFromRequest(r, tokens); err == nil {
				r = r.WithContext(WithViewer(r.Context(), viewer))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithViewer returns a copy of ctx carrying v.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFromContext returns the request's Viewer, or (Viewer{}, false) for an
// anonymous request.
func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(Viewer)
	return v, ok && v.UserID != ""
}

func viewerFromRequest(r *http.Request, tokens *TokenService) (Viewer, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return Viewer{}, err
	}

	sess, err := tokens.Validate(cookie.Value)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{UserID: sess.UserID, IsAdmin: sess.IsAdmin}, nil
}
