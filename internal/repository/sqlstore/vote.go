package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

var _ repository.VoteRepository = (*DB)(nil)

// ToggleVote flips the caller's vote on an idea in one transaction:
//
//  1. confirm the idea exists (NotFound otherwise)
//  2. DELETE the (user, idea) row; if a row went away the vote is removed
//  3. otherwise INSERT it
//  4. COUNT the idea's votes
//
// The (user_id, idea_id) primary key is the uniqueness guarantee. When two
// toggles from the same user race, both may delete nothing and both insert;
// the loser fails on the key, its transaction rolls back, and the retry below
// sees the winner's row and deletes it.
func (db *DB) ToggleVote(ctx context.Context, userID, ideaID string) (model.VoteResult, error) {
	res, err := db.toggleOnce(ctx, userID, ideaID)
	if errors.Is(err, errUniqueRace) {
		res, err = db.toggleOnce(ctx, userID, ideaID)
	}
	return res, err
}

func (db *DB) toggleOnce(ctx context.Context, userID, ideaID string) (model.VoteResult, error) {
	var res model.VoteResult

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			db.q(`SELECT 1 FROM ideas WHERE id = ?`), ideaID,
		).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("idea", ideaID)
			}
			return fmt.Errorf("sqlstore: checking idea %s: %w", ideaID, err)
		}

		result, err := tx.ExecContext(ctx,
			db.q(`DELETE FROM votes WHERE user_id = ? AND idea_id = ?`),
			userID, ideaID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: removing vote: %w", err)
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: checking rows affected: %w", err)
		}

		if removed == 0 {
			_, err = tx.ExecContext(ctx,
				db.q(`INSERT INTO votes (user_id, idea_id, created_at) VALUES (?, ?, ?)`),
				userID, ideaID, now(),
			)
			if err != nil {
				if isUniqueViolation(err) {
					return errUniqueRace
				}
				return fmt.Errorf("sqlstore: adding vote: %w", err)
			}
			res.Voted = true
		}

		if err := tx.QueryRowContext(ctx,
			db.q(`SELECT COUNT(*) FROM votes WHERE idea_id = ?`), ideaID,
		).Scan(&res.VoteCount); err != nil {
			return fmt.Errorf("sqlstore: counting votes for idea %s: %w", ideaID, err)
		}

		return nil
	})
	if err != nil {
		return model.VoteResult{}, err
	}

	return res, nil
}
