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

var _ repository.IdeaRepository = (*DB)(nil)

// Create inserts a new idea. ID and timestamps are set on the caller's struct.
func (db *DB) Create(ctx context.Context, idea *model.Idea) error {
	idea.ID = xid.New().String()
	ts := now()
	idea.CreatedAt = ts
	idea.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		db.q(`INSERT INTO ideas (id, title, description, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		idea.ID,
		idea.Title,
		idea.Description,
		idea.OwnerID,
		idea.CreatedAt,
		idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating idea: %w", err)
	}

	return nil
}

// GetByID retrieves a single idea by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Idea, error) {
	var idea model.Idea

	err := db.conn.QueryRowContext(ctx,
		db.q(`SELECT id, title, description, owner_id, created_at, updated_at
		 FROM ideas
		 WHERE id = ?`),
		id,
	).Scan(
		&idea.ID,
		&idea.Title,
		&idea.Description,
		&idea.OwnerID,
		&idea.CreatedAt,
		&idea.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("idea", id)
		}
		return nil, fmt.Errorf("sqlstore: getting idea %s: %w", id, err)
	}

	return &idea, nil
}

// Update overwrites title and description. Owner and created_at never change.
func (db *DB) Update(ctx context.Context, idea *model.Idea) error {
	idea.UpdatedAt = now()

	result, err := db.conn.ExecContext(ctx,
		db.q(`UPDATE ideas
		 SET title = ?, description = ?, updated_at = ?
		 WHERE id = ?`),
		idea.Title,
		idea.Description,
		idea.UpdatedAt,
		idea.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating idea %s: %w", idea.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("idea", idea.ID)
	}

	return nil
}

// Delete removes an idea; its votes go with it via ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		db.q(`DELETE FROM ideas WHERE id = ?`),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting idea %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("idea", id)
	}

	return nil
}
