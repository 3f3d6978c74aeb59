package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/tinkerer-vote/internal/apperror"
)

// fakeDiscord serves the three Discord endpoints the provider calls.
type fakeDiscord struct {
	tokenStatus   int
	profileStatus int
	guildsStatus  int
	profile       string
	guilds        string

	gotForm url.Values
	gotAuth []string
}

func (f *fakeDiscord) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.gotForm = r.PostForm
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   604800,
		})
	})
	mux.HandleFunc("GET /users/@me", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = append(f.gotAuth, r.Header.Get("Authorization"))
		if f.profileStatus != 0 {
			w.WriteHeader(f.profileStatus)
			return
		}
		w.Write([]byte(f.profile))
	})
	mux.HandleFunc("GET /users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = append(f.gotAuth, r.Header.Get("Authorization"))
		if f.guildsStatus != 0 {
			w.WriteHeader(f.guildsStatus)
			return
		}
		w.Write([]byte(f.guilds))
	})
	return mux
}

func newTestProvider(t *testing.T, f *fakeDiscord) *DiscordProvider {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	return NewDiscordProvider(DiscordConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/auth/callback",
		APIBase:      srv.URL,
	})
}

func bearer(tok string) *oauth2.Token {
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
}

func TestAuthURL(t *testing.T) {
	p := NewDiscordProvider(DiscordConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:3000/auth/callback",
	})

	u, err := url.Parse(p.AuthURL("state-xyz"))
	require.NoError(t, err)

	assert.Equal(t, "discord.com", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "identify guilds", q.Get("scope"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:3000/auth/callback", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	f := &fakeDiscord{}
	p := newTestProvider(t, f)

	tok, err := p.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "access-123", tok.AccessToken)

	assert.Equal(t, "the-code", f.gotForm.Get("code"))
	assert.Equal(t, "authorization_code", f.gotForm.Get("grant_type"))
	assert.Equal(t, "client-id", f.gotForm.Get("client_id"))
	assert.Equal(t, "client-secret", f.gotForm.Get("client_secret"))
}

func TestExchange_UpstreamFailure(t *testing.T) {
	p := newTestProvider(t, &fakeDiscord{tokenStatus: http.StatusBadRequest})

	_, err := p.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstreamAuth))
}

func TestFetchProfile(t *testing.T) {
	f := &fakeDiscord{profile: `{"id":"80351110224678912","username":"nelly","avatar":"8342729096ea3675442027381ff50dfe","discriminator":"0"}`}
	p := newTestProvider(t, f)

	profile, err := p.FetchProfile(context.Background(), bearer("access-123"))
	require.NoError(t, err)
	assert.Equal(t, &DiscordProfile{
		ID:       "80351110224678912",
		Username: "nelly",
		Avatar:   "8342729096ea3675442027381ff50dfe",
	}, profile)
	assert.Equal(t, []string{"Bearer access-123"}, f.gotAuth)
}

func TestFetchProfile_NullAvatar(t *testing.T) {
	p := newTestProvider(t, &fakeDiscord{profile: `{"id":"1","username":"x","avatar":null}`})

	profile, err := p.FetchProfile(context.Background(), bearer("t"))
	require.NoError(t, err)
	assert.Empty(t, profile.Avatar)
}

func TestFetchProfile_Failures(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeDiscord
	}{
		{"non-200", &fakeDiscord{profileStatus: http.StatusUnauthorized}},
		{"bad json", &fakeDiscord{profile: `{not json`}},
		{"missing id", &fakeDiscord{profile: `{"username":"x"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.f)
			_, err := p.FetchProfile(context.Background(), bearer("t"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrUpstreamAuth))
		})
	}
}

func TestIsMemberOf(t *testing.T) {
	f := &fakeDiscord{guilds: `[{"id":"111","name":"a"},{"id":"222","name":"b"}]`}
	p := newTestProvider(t, f)

	ok, err := p.IsMemberOf(context.Background(), bearer("t"), "222")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.IsMemberOf(context.Background(), bearer("t"), "333")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchGuilds_Failure(t *testing.T) {
	p := newTestProvider(t, &fakeDiscord{guildsStatus: http.StatusInternalServerError})

	_, err := p.IsMemberOf(context.Background(), bearer("t"), "222")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstreamAuth))
}

func TestAvatarURL(t *testing.T) {
	tests := []struct {
		name       string
		externalID string
		avatarRef  string
		want       string
	}{
		{
			"static avatar",
			"80351110224678912", "8342729096ea3675442027381ff50dfe",
			"https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png",
		},
		{
			"animated avatar",
			"80351110224678912", "a_1269e74af4df7417b13759eae50c83dc",
			"https://cdn.discordapp.com/avatars/80351110224678912/a_1269e74af4df7417b13759eae50c83dc.gif",
		},
		{
			// 80351110224678912 >> 22 = 19157197529, mod 6 = 5
			"default avatar",
			"80351110224678912", "",
			"https://cdn.discordapp.com/embed/avatars/5.png",
		},
		{
			"default avatar for small id",
			"0", "",
			"https://cdn.discordapp.com/embed/avatars/0.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AvatarURL(tt.externalID, tt.avatarRef))
		})
	}
}
