package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    category    TEXT NOT NULL CHECK (category IN ('Furniture', 'Electronics', 'Appliances', 'Clothing', 'Automotive', 'Other')),
    description TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL,
    fee         TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'In Progress', 'Fixed')),
    image       TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_threads (
    item_id       TEXT PRIMARY KEY,
    pending_offer TEXT NOT NULL DEFAULT '',
    agreed_offer  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id      TEXT PRIMARY KEY,
    item_id TEXT NOT NULL REFERENCES chat_threads(item_id),
    text    TEXT NOT NULL,
    sender  TEXT NOT NULL CHECK (sender IN ('self', 'other')),
    sent_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS item_images (
    key  TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    mime TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    phone         TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
