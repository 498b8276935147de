// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite with no CGo, so the
// binary cross-compiles anywhere Go runs. The database lives in a single
// file (or ":memory:" for tests).
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress, which
	// matters once the thumbnail worker writes while requests read.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent and safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			password_hash  TEXT NOT NULL,
			calendar_token TEXT NOT NULL UNIQUE,
			created_at     DATETIME NOT NULL,
			updated_at     DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	// thumbnail_id deliberately carries no foreign key: it references the
	// photos table created below, and the photo-belongs-to-plant invariant
	// is enforced at the service layer anyway.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS plants (
			id                        TEXT PRIMARY KEY,
			user_id                   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name                      TEXT NOT NULL,
			genus                     TEXT NOT NULL,
			watering_interval_days    INTEGER NOT NULL,
			fertilizing_interval_days INTEGER NOT NULL,
			last_watered              DATETIME,
			last_fertilized           DATETIME,
			thumbnail_id              TEXT,
			created_at                DATETIME NOT NULL,
			updated_at                DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_plants_user_id ON plants(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating plants table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS photos (
			id                TEXT PRIMARY KEY,
			plant_id          TEXT NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
			original_filename TEXT NOT NULL,
			content_type      TEXT NOT NULL,
			size              INTEGER NOT NULL,
			width             INTEGER NOT NULL DEFAULT 0,
			height            INTEGER NOT NULL DEFAULT 0,
			thumbnail_status  TEXT NOT NULL DEFAULT 'pending',
			data              BLOB NOT NULL,
			thumbnail         BLOB,
			created_at        DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_photos_plant_id ON photos(plant_id);
	`)
	if err != nil {
		return fmt.Errorf("creating photos table: %w", err)
	}

	return nil
}
