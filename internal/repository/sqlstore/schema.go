package sqlstore

// schema returns the idempotent DDL for a dialect. All three describe the same
// relations: votes are keyed by (user_id, idea_id), and deletes cascade from
// users to ideas and votes and from ideas to votes.
func schema(d Dialect) []string {
	switch d {
	case Postgres:
		return postgresSchema
	case MySQL:
		return mysqlSchema
	default:
		return sqliteSchema
	}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		external_id   TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		avatar_ref    TEXT NOT NULL DEFAULT '',
		is_admin      BOOLEAN NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL,
		last_login_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_owner ON ideas(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_created ON ideas(created_at)`,
	`CREATE TABLE IF NOT EXISTS votes (
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, idea_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_idea ON votes(idea_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		external_id   TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		avatar_ref    TEXT NOT NULL DEFAULT '',
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL,
		last_login_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_owner ON ideas(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_created ON ideas(created_at)`,
	`CREATE TABLE IF NOT EXISTS votes (
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, idea_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_idea ON votes(idea_id)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(32) PRIMARY KEY,
		external_id   VARCHAR(32) NOT NULL UNIQUE,
		display_name  VARCHAR(100) NOT NULL,
		avatar_ref    VARCHAR(100) NOT NULL DEFAULT '',
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    DATETIME(6) NOT NULL,
		last_login_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id          VARCHAR(32) PRIMARY KEY,
		title       VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		owner_id    VARCHAR(32) NOT NULL,
		created_at  DATETIME(6) NOT NULL,
		updated_at  DATETIME(6) NOT NULL,
		INDEX idx_ideas_owner (owner_id),
		INDEX idx_ideas_created (created_at),
		FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS votes (
		user_id    VARCHAR(32) NOT NULL,
		idea_id    VARCHAR(32) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (user_id, idea_id),
		INDEX idx_votes_idea (idea_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (idea_id) REFERENCES ideas(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}
