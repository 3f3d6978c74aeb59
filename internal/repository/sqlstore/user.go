package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or updates a user keyed by ExternalID.
//
// An existing user keeps their internal ID and CreatedAt; display name, avatar,
// admin flag and LastLoginAt are overwritten. Two first logins racing on the
// same external id make one insert fail on the UNIQUE constraint; that call is
// retried once and takes the update path.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	err := db.upsertOnce(ctx, user)
	if errors.Is(err, errUniqueRace) {
		err = db.upsertOnce(ctx, user)
	}
	return err
}

func (db *DB) upsertOnce(ctx context.Context, user *model.User) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		ts := now()

		var existing model.User
		err := tx.QueryRowContext(ctx,
			db.q(`SELECT id, created_at FROM users WHERE external_id = ?`),
			user.ExternalID,
		).Scan(&existing.ID, &existing.CreatedAt)

		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx,
				db.q(`UPDATE users
				 SET display_name = ?, avatar_ref = ?, is_admin = ?, last_login_at = ?
				 WHERE id = ?`),
				user.DisplayName,
				user.AvatarRef,
				user.IsAdmin,
				ts,
				existing.ID,
			)
			if err != nil {
				return fmt.Errorf("sqlstore: updating user %s: %w", existing.ID, err)
			}
			user.ID = existing.ID
			user.CreatedAt = existing.CreatedAt
			user.LastLoginAt = ts
			return nil

		case errors.Is(err, sql.ErrNoRows):
			id := xid.New().String()
			_, err = tx.ExecContext(ctx,
				db.q(`INSERT INTO users (id, external_id, display_name, avatar_ref, is_admin, created_at, last_login_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`),
				id,
				user.ExternalID,
				user.DisplayName,
				user.AvatarRef,
				user.IsAdmin,
				ts,
				ts,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return errUniqueRace
				}
				return fmt.Errorf("sqlstore: inserting user (externalID=%s): %w", user.ExternalID, err)
			}
			user.ID = id
			user.CreatedAt = ts
			user.LastLoginAt = ts
			return nil

		default:
			return fmt.Errorf("sqlstore: looking up user by external_id %s: %w", user.ExternalID, err)
		}
	})
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		db.q(`SELECT id, external_id, display_name, avatar_ref, is_admin, created_at, last_login_at
		 FROM users WHERE id = ?`),
		id,
	).Scan(
		&u.ID,
		&u.ExternalID,
		&u.DisplayName,
		&u.AvatarRef,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", id, err)
	}

	return &u, nil
}
