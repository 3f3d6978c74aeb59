package sqlstore

import (
	"context"
	"fmt"

	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

var _ repository.LeaderboardRepository = (*DB)(nil)

// Vote counts are aggregated in a derived table rather than GROUP BY over the
// joined rows, which keeps the select list valid under Postgres and MySQL's
// ONLY_FULL_GROUP_BY. i.id is the last sort key so the order is total.
const leaderboardQuery = `
	SELECT
		i.id, i.title, i.description, i.created_at, i.updated_at,
		u.id, u.display_name, u.external_id, u.avatar_ref,
		COALESCE(vc.n, 0) AS vote_count,
		EXISTS (SELECT 1 FROM votes mv WHERE mv.idea_id = i.id AND mv.user_id = ?) AS user_voted
	FROM ideas i
	JOIN users u ON u.id = i.owner_id
	LEFT JOIN (
		SELECT idea_id, COUNT(*) AS n FROM votes GROUP BY idea_id
	) vc ON vc.idea_id = i.id
	ORDER BY vote_count DESC, i.created_at DESC, i.id DESC`

// Leaderboard returns every idea with its author, vote count and the viewer's
// own vote state. An empty viewerID never matches a vote row.
func (db *DB) Leaderboard(ctx context.Context, viewerID string) ([]model.IdeaView, error) {
	rows, err := db.conn.QueryContext(ctx, db.q(leaderboardQuery), viewerID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: querying leaderboard: %w", err)
	}
	defer rows.Close()

	ideas := []model.IdeaView{}
	for rows.Next() {
		var v model.IdeaView
		if err := rows.Scan(
			&v.ID, &v.Title, &v.Description, &v.CreatedAt, &v.UpdatedAt,
			&v.Author.ID, &v.Author.Username, &v.Author.ExternalID, &v.Author.AvatarRef,
			&v.VoteCount,
			&v.UserVoted,
		); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning leaderboard row: %w", err)
		}
		ideas = append(ideas, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating leaderboard: %w", err)
	}

	return ideas, nil
}
