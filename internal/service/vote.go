package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

// VoteService toggles a user's single vote on an idea.
type VoteService struct {
	votes  repository.VoteRepository
	logger *slog.Logger
}

func NewVoteService(votes repository.VoteRepository, logger *slog.Logger) *VoteService {
	return &VoteService{votes: votes, logger: logger}
}

// Toggle adds the user's vote if absent and removes it otherwise, returning
// the idea's new vote count. Atomicity is the repository's job.
func (s *VoteService) Toggle(ctx context.Context, userID, ideaID string) (model.VoteResult, error) {
	if userID == "" {
		return model.VoteResult{}, apperror.Unauthorized()
	}
	if ideaID == "" {
		return model.VoteResult{}, apperror.ValidationFailed("ideaId", "idea id is required")
	}

	res, err := s.votes.ToggleVote(ctx, userID, ideaID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.VoteResult{}, err
		}
		s.logger.Error("failed to toggle vote",
			slog.String("userID", userID),
			slog.String("ideaID", ideaID),
			slog.String("error", err.Error()),
		)
		return model.VoteResult{}, fmt.Errorf("toggling vote: %w", err)
	}

	s.logger.Info("vote toggled",
		slog.String("userID", userID),
		slog.String("ideaID", ideaID),
		slog.Bool("voted", res.Voted),
		slog.Int("voteCount", res.VoteCount),
	)
	return res, nil
}
