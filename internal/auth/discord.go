package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/tinkerer-vote/internal/apperror"
)

const (
	DefaultDiscordAPIBase = "https://discord.com/api/v10"
	discordAuthorizeURL   = "https://discord.com/oauth2/authorize"
	discordCDN            = "https://cdn.discordapp.com"
)

// DiscordProfile is the portion of Discord's /users/@me response we keep.
// Avatar is the avatar hash and is empty when the user has none.
type DiscordProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type discordGuild struct {
	ID string `json:"id"`
}

// DiscordConfig holds the OAuth application credentials. APIBase and AuthURL
// default to Discord's public endpoints and are overridden in tests.
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	APIBase      string
	AuthURL      string
	HTTPClient   *http.Client
}

// DiscordProvider runs the Authorization Code flow against Discord and reads
// the authenticated user's profile and guild list.
//
// Flow: AuthURL → user approves on Discord → callback with code → Exchange →
// FetchProfile / FetchGuilds with the resulting bearer token.
type DiscordProvider struct {
	config  *oauth2.Config
	apiBase string
	client  *http.Client
}

// NewDiscordProvider creates a DiscordProvider. Scopes are "identify" (profile)
// and "guilds" (membership check).
func NewDiscordProvider(cfg DiscordConfig) *DiscordProvider {
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = DefaultDiscordAPIBase
	}
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = discordAuthorizeURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: apiBase + "/oauth2/token",
				// Discord expects client_id/client_secret in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBase,
		client:  client,
	}
}

// AuthURL returns the URL to redirect the user to. state is echoed back on the
// callback and must match the value stored in the oauth_state cookie.
func (p *DiscordProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token (server-to-server).
func (p *DiscordProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return nil, apperror.UpstreamAuth("exchange code", err)
	}
	return token, nil
}

// FetchProfile calls GET /users/@me with the bearer token.
func (p *DiscordProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*DiscordProfile, error) {
	var profile DiscordProfile
	if err := p.getJSON(ctx, token, "/users/@me", &profile); err != nil {
		return nil, apperror.UpstreamAuth("fetch profile", err)
	}
	if profile.ID == "" {
		return nil, apperror.UpstreamAuth("fetch profile", fmt.Errorf("auth: discord returned a profile without an id"))
	}
	return &profile, nil
}

// FetchGuilds calls GET /users/@me/guilds and returns the set of guild IDs.
func (p *DiscordProvider) FetchGuilds(ctx context.Context, token *oauth2.Token) (map[string]struct{}, error) {
	var guilds []discordGuild
	if err := p.getJSON(ctx, token, "/users/@me/guilds", &guilds); err != nil {
		return nil, apperror.UpstreamAuth("fetch guilds", err)
	}

	set := make(map[string]struct{}, len(guilds))
	for _, g := range guilds {
		set[g.ID] = struct{}{}
	}
	return set, nil
}

// IsMemberOf reports whether the token's user belongs to guildID.
func (p *DiscordProvider) IsMemberOf(ctx context.Context, token *oauth2.Token, guildID string) (bool, error) {
	guilds, err := p.FetchGuilds(ctx, token)
	if err != nil {
		return false, err
	}
	_, ok := guilds[guildID]
	return ok, nil
}

func (p *DiscordProvider) getJSON(ctx context.Context, token *oauth2.Token, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building request: %w", err)
	}

	// oauth2.Config.Client adds "Authorization: Bearer <token>" to every request.
	resp, err := p.config.Client(p.clientContext(ctx), token).Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling discord %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: discord %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding discord %s response: %w", path, err)
	}
	return nil
}

func (p *DiscordProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// AvatarURL builds the CDN URL for a user's avatar. Users without an avatar
// get one of Discord's six default avatars, picked from the snowflake.
func AvatarURL(externalID, avatarRef string) string {
	if avatarRef == "" {
		id, _ := strconv.ParseUint(externalID, 10, 64)
		return fmt.Sprintf("%s/embed/avatars/%d.png", discordCDN, (id>>22)%6)
	}

	ext := "png"
	if strings.HasPrefix(avatarRef, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.%s", discordCDN, externalID, avatarRef, ext)
}
