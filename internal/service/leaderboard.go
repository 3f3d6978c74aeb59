package service

import (
	"context"
	"fmt"

	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

// LeaderboardService assembles the ranked idea list for a viewer.
type LeaderboardService struct {
	repo repository.LeaderboardRepository
}

func NewLeaderboardService(repo repository.LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo}
}

// List returns every idea, most votes first, newest first among equal
// counts. viewerID is empty for anonymous callers, who see user_voted=false
// everywhere.
func (s *LeaderboardService) List(ctx context.Context, viewerID string) ([]model.IdeaView, error) {
	ideas, err := s.repo.Leaderboard(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard: %w", err)
	}

	for i := range ideas {
		a := &ideas[i].Author
		a.AvatarURL = auth.AvatarURL(a.ExternalID, a.AvatarRef)
	}
	return ideas, nil
}
