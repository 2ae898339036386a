// Package sqlstore is the SQLite-backed implementation of store.Store.
package sqlstore

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists users, messages, and invites to a single SQLite file.
type SQLStore struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

// New opens (creating if necessary) the SQLite database at path and runs
// schema migration. A single write connection is enforced so WAL mode
// serialises writers the way §4.2 requires; reads share the same pool.
func New(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		public_key BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		type TEXT NOT NULL DEFAULT 'text',
		content BLOB NOT NULL,
		nonce BLOB NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (sender_id) REFERENCES users(id),
		FOREIGN KEY (receiver_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);

	CREATE TABLE IF NOT EXISTS invites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT UNIQUE NOT NULL,
		used_by INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		used_at DATETIME,
		FOREIGN KEY (used_by) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
