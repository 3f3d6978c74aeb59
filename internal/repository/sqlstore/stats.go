package sqlstore

import (
	"context"
	"fmt"

	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/repository"
)

var _ repository.StatsRepository = (*DB)(nil)

// Stats runs three independent counts. No transaction spans them.
func (db *DB) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats

	counts := []struct {
		table string
		dest  *int
	}{
		{"ideas", &s.Ideas},
		{"votes", &s.Votes},
		{"users", &s.Members},
	}
	for _, c := range counts {
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return model.Stats{}, fmt.Errorf("sqlstore: counting %s: %w", c.table, err)
		}
	}

	return s, nil
}
