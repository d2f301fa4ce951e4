package sqlite

import "database/sql"

// schema mirrors the postgres migrations with the group document stored as
// JSON text. Timestamps are unix nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rosca_groups (
    group_id TEXT PRIMARY KEY,
    join_code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    last_updated_at INTEGER NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    document TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payout_releases (
    group_id TEXT NOT NULL,
    round_number INTEGER NOT NULL,
    recipient_id TEXT NOT NULL,
    amount INTEGER NOT NULL,
    currency_code TEXT NOT NULL,
    released_at INTEGER NOT NULL,
    PRIMARY KEY (group_id, round_number),
    FOREIGN KEY (group_id) REFERENCES rosca_groups(group_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS audit_log (
    audit_id TEXT PRIMARY KEY,
    action TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    resource_id TEXT NOT NULL,
    changes TEXT,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rosca_groups_status ON rosca_groups(status);
CREATE INDEX IF NOT EXISTS idx_rosca_groups_created ON rosca_groups(created_at, group_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_resource ON audit_log(resource_id, recorded_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
