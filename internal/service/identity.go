package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

// ErrNotMember is returned by CompleteLogin when the Discord user is not in
// the required guild.
var ErrNotMember = apperror.Forbidden("Discord account is not a member of the required server")

// IdentityProvider is the slice of auth.DiscordProvider the login flow needs.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (*auth.DiscordProfile, error)
	IsMemberOf(ctx context.Context, token *oauth2.Token, guildID string) (bool, error)
}

var _ IdentityProvider = (*auth.DiscordProvider)(nil)

// IdentityService maps verified Discord identities to internal users.
//
// The admin allow-list is copied into an immutable set at construction. It is
// consulted on each login and the result is stored on the user, so a change to
// the list applies to a user at their next login.
type IdentityService struct {
	users    repository.UserRepository
	provider IdentityProvider
	guildID  string
	admins   map[string]struct{}
	logger   *slog.Logger
}

// NewIdentityService creates an IdentityService. requiredGuildID is the
// Discord server a user must belong to; adminIDs are Discord user ids.
func NewIdentityService(
	users repository.UserRepository,
	provider IdentityProvider,
	requiredGuildID string,
	adminIDs []string,
	logger *slog.Logger,
) *IdentityService {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}

	return &IdentityService{
		users:    users,
		provider: provider,
		guildID:  requiredGuildID,
		admins:   admins,
		logger:   logger,
	}
}

// IsAdmin reports whether externalID is on the allow-list.
func (s *IdentityService) IsAdmin(externalID string) bool {
	_, ok := s.admins[externalID]
	return ok
}

// UpsertFromExternalProfile creates the user on first login and refreshes
// display name, avatar, admin flag and last-login time afterwards.
func (s *IdentityService) UpsertFromExternalProfile(ctx context.Context, profile *auth.DiscordProfile, isAdmin bool) (*model.User, error) {
	if profile == nil || profile.ID == "" {
		return nil, apperror.ValidationFailed("profile", "external profile must have an id")
	}

	user := &model.User{
		ExternalID:  profile.ID,
		DisplayName: profile.Username,
		AvatarRef:   profile.Avatar,
		IsAdmin:     isAdmin,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting user (externalID=%s): %w", profile.ID, err)
	}

	return user, nil
}

// CompleteLogin runs the callback half of the OAuth flow: exchange the code,
// read the profile, check guild membership and upsert the user.
func (s *IdentityService) CompleteLogin(ctx context.Context, code string) (*model.User, error) {
	if code == "" {
		return nil, apperror.ValidationFailed("code", "authorization code is required")
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	member, err := s.provider.IsMemberOf(ctx, token, s.guildID)
	if err != nil {
		return nil, err
	}
	if !member {
		s.logger.Info("login rejected: not a guild member",
			slog.String("externalID", profile.ID),
			slog.String("username", profile.Username),
		)
		return nil, ErrNotMember
	}

	user, err := s.UpsertFromExternalProfile(ctx, profile, s.IsAdmin(profile.ID))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.DisplayName),
		slog.Bool("admin", user.IsAdmin),
	)

	return user, nil
}

// GetUser returns the user with the given internal id.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized()
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to load user", slog.String("userID", id), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return user, nil
}
