// Package service holds the business rules of the board.
//
//	Handler (HTTP) → Service (rules, permissions) → Repository (SQL)
//
// Services take repository interfaces, not the concrete store, so tests run
// against in-memory fakes. They return apperror values and never deal with
// HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

// Length limits, counted in characters (runes) after trimming.
const (
	MinTitleLength       = 3
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// IdeaService enforces validation and ownership rules for ideas.
type IdeaService struct {
	ideas  repository.IdeaRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewIdeaService(ideas repository.IdeaRepository, users repository.UserRepository, logger *slog.Logger) *IdeaService {
	return &IdeaService{
		ideas:  ideas,
		users:  users,
		logger: logger,
	}
}

// Create validates and stores a new idea owned by ownerID and returns its
// leaderboard view: no votes yet and not voted by the owner.
func (s *IdeaService) Create(ctx context.Context, ownerID, title, description string) (*model.IdeaView, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}

	title, description, err := sanitizeIdea(title, description)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading idea owner: %w", err)
	}

	idea := &model.Idea{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.ideas.Create(ctx, idea); err != nil {
		s.logger.Error("failed to create idea",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating idea: %w", err)
	}

	s.logger.Info("idea created",
		slog.String("id", idea.ID),
		slog.String("ownerID", ownerID),
		slog.String("title", idea.Title),
	)

	return &model.IdeaView{
		ID:          idea.ID,
		Title:       idea.Title,
		Description: idea.Description,
		CreatedAt:   idea.CreatedAt,
		UpdatedAt:   idea.UpdatedAt,
		Author: model.Author{
			ID:        owner.ID,
			Username:  owner.DisplayName,
			AvatarURL: auth.AvatarURL(owner.ExternalID, owner.AvatarRef),
		},
	}, nil
}

// Update replaces title and description. Checks run in order: the idea
// exists, the requester owns it, the new text is valid.
func (s *IdeaService) Update(ctx context.Context, ideaID, requesterID, title, description string) error {
	if requesterID == "" {
		return apperror.Unauthorized()
	}

	idea, err := s.ideas.GetByID(ctx, ideaID)
	if err != nil {
		return err
	}
	if idea.OwnerID != requesterID {
		return apperror.Forbidden("You can only edit your own ideas")
	}

	idea.Title, idea.Description, err = sanitizeIdea(title, description)
	if err != nil {
		return err
	}

	if err := s.ideas.Update(ctx, idea); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update idea", slog.String("id", ideaID), slog.String("error", err.Error()))
		}
		return fmt.Errorf("updating idea %s: %w", ideaID, err)
	}

	s.logger.Info("idea updated", slog.String("id", ideaID), slog.String("userID", requesterID))
	return nil
}

// Delete removes an idea and, through the cascade, its votes. The owner or
// any admin may delete.
func (s *IdeaService) Delete(ctx context.Context, ideaID, requesterID string, requesterIsAdmin bool) error {
	if requesterID == "" {
		return apperror.Unauthorized()
	}

	idea, err := s.ideas.GetByID(ctx, ideaID)
	if err != nil {
		return err
	}
	if idea.OwnerID != requesterID && !requesterIsAdmin {
		return apperror.Forbidden("You can only delete your own ideas")
	}

	if err := s.ideas.Delete(ctx, ideaID); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete idea", slog.String("id", ideaID), slog.String("error", err.Error()))
		}
		return fmt.Errorf("deleting idea %s: %w", ideaID, err)
	}

	s.logger.Info("idea deleted",
		slog.String("id", ideaID),
		slog.String("userID", requesterID),
		slog.Bool("asAdmin", idea.OwnerID != requesterID),
	)
	return nil
}

// sanitizeIdea trims both fields, caps them one rune past their limit and
// validates the result. The cap bounds the work on huge inputs while still
// leaving an over-long value too long, so it is rejected rather than
// truncated into validity.
func sanitizeIdea(title, description string) (string, string, error) {
	title = sanitize(title, MaxTitleLength)
	description = sanitize(description, MaxDescriptionLength)

	switch n := utf8.RuneCountInString(title); {
	case n < MinTitleLength:
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be at least %d characters", MinTitleLength))
	case n > MaxTitleLength:
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less", MaxTitleLength))
	}

	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", "", apperror.ValidationFailed("description",
			fmt.Sprintf("Description must be %d characters or less", MaxDescriptionLength))
	}

	return title, description, nil
}

func sanitize(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max+1 {
		return s
	}
	runes := []rune(s)
	return string(runes[:max+1])
}
