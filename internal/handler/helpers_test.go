package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository/sqlstore"
)

const testSecret = "handler-test-secret-0123456789"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB opens a fresh in-memory store.
func newTestDB(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), sqlstore.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func addUser(t *testing.T, db *sqlstore.DB, externalID, name string, admin bool) *model.User {
	t.Helper()
	u := &model.User{ExternalID: externalID, DisplayName: name, IsAdmin: admin}
	require.NoError(t, db.Upsert(context.Background(), u))
	return u
}

// asViewer attaches an authenticated viewer, as RequireAuth would.
func asViewer(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(auth.WithViewer(r.Context(), auth.Viewer{UserID: u.ID, IsAdmin: u.IsAdmin}))
}

// withParam sets a chi URL parameter without going through a router.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// fakeDiscord is an identity provider and authorize-URL builder in one.
type fakeDiscord struct {
	profile     *auth.DiscordProfile
	guilds      map[string]struct{}
	exchangeErr error
}

func (f *fakeDiscord) AuthURL(state string) string {
	return "https://discord.test/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeDiscord) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

func (f *fakeDiscord) FetchProfile(_ context.Context, _ *oauth2.Token) (*auth.DiscordProfile, error) {
	p := *f.profile
	return &p, nil
}

func (f *fakeDiscord) IsMemberOf(_ context.Context, _ *oauth2.Token, guildID string) (bool, error) {
	_, ok := f.guilds[guildID]
	return ok, nil
}
