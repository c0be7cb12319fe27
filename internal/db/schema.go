package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    points        INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pickups (
    id                INTEGER PRIMARY KEY,
    user_id           INTEGER NOT NULL REFERENCES users(id),
    name              TEXT NOT NULL,
    email             TEXT NOT NULL,
    address           TEXT NOT NULL,
    items_description TEXT NOT NULL,
    status            TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'scheduled', 'completed', 'cancelled')),
    requested_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS batches (
    id            INTEGER PRIMARY KEY,
    batch_id      TEXT NOT NULL,
    user_id       INTEGER NOT NULL REFERENCES users(id),
    source        TEXT NOT NULL,
    item_count    INTEGER NOT NULL DEFAULT 0,
    total_weight  REAL NOT NULL DEFAULT 0,
    stage         TEXT NOT NULL DEFAULT 'incoming' CHECK (stage IN ('incoming', 'collected', 'sorting', 'dismantling', 'recovery', 'completed')),
    notes         TEXT,
    assigned_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS batch_items (
    id        INTEGER PRIMARY KEY,
    batch_id  INTEGER NOT NULL REFERENCES batches(id),
    item_type TEXT NOT NULL,
    quantity  INTEGER NOT NULL DEFAULT 0,
    condition TEXT
);

CREATE TABLE IF NOT EXISTS batch_history (
    id         INTEGER PRIMARY KEY,
    batch_id   INTEGER NOT NULL REFERENCES batches(id),
    from_stage TEXT NOT NULL DEFAULT '',
    to_stage   TEXT NOT NULL,
    changed_by TEXT NOT NULL,
    changed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes      TEXT
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: owner-scoped lookups dominate every request, index them.
	`CREATE INDEX IF NOT EXISTS idx_pickups_user ON pickups(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_batches_user ON batches(user_id)`,
	// Migration 2: batch detail fetches items and history by batch id.
	`CREATE INDEX IF NOT EXISTS idx_batch_items_batch ON batch_items(batch_id)`,
	`CREATE INDEX IF NOT EXISTS idx_batch_history_batch ON batch_history(batch_id)`,
}

// EnsureSchema creates all tables if they don't already exist and runs
// the idempotent migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
