// Package repository declares the storage interfaces the service layer depends on.
// internal/repository/sqlstore implements all of them.
package repository

import (
	"context"

	"github.com/sakif/tinkerer-vote/internal/model"
)

type UserRepository interface {
	// Upsert inserts or updates by ExternalID and fills in ID and timestamps.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type IdeaRepository interface {
	Create(ctx context.Context, idea *model.Idea) error
	GetByID(ctx context.Context, id string) (*model.Idea, error)
	Update(ctx context.Context, idea *model.Idea) error
	Delete(ctx context.Context, id string) error
}

type VoteRepository interface {
	// ToggleVote removes the (user, idea) vote if present, otherwise adds it,
	// atomically, and returns the idea's new vote count.
	ToggleVote(ctx context.Context, userID, ideaID string) (model.VoteResult, error)
}

type LeaderboardRepository interface {
	// Leaderboard returns every idea ranked by votes. viewerID may be empty.
	Leaderboard(ctx context.Context, viewerID string) ([]model.IdeaView, error)
}

type StatsRepository interface {
	Stats(ctx context.Context) (model.Stats, error)
}
