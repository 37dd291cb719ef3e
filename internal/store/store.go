// Package store is a single embedded relational store: identity,
// contacts, chats, messages, and settings, with foreign keys enforced
// and a fixed file-backed path under the app data directory. Built on
// sqlx and go-sqlite3.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"pure2p/internal/model"
)

// Store owns one connection handle. Multiple handles to the same file
// coexist; the app controller and each transport handler open their
// own Store, and writes are serialized by SQLite's own locking, not by
// anything in this package.
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite file at path, enabling foreign-key
// enforcement and WAL mode via DSN query parameters, and ensures the
// schema is in place before returning.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL", path)
	conn, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, model.NewError(model.KindStorage, "opening store", err)
	}

	s := &Store{db: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens a shared in-memory database, for tests.
func OpenInMemory() (*Store, error) {
	conn, err := sqlx.Connect("sqlite3", "file::memory:?cache=shared&_foreign_keys=1")
	if err != nil {
		return nil, model.NewError(model.KindStorage, "opening in-memory store", err)
	}
	s := &Store{db: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS user_identity (
			uid TEXT NOT NULL PRIMARY KEY,
			signing_public_key BLOB NOT NULL,
			signing_secret_key BLOB NOT NULL,
			kx_public_key BLOB NOT NULL,
			kx_secret_key BLOB NOT NULL,
			external_ip TEXT NOT NULL DEFAULT '',
			external_port INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			uid TEXT NOT NULL PRIMARY KEY,
			ip TEXT NOT NULL,
			signing_public_key BLOB NOT NULL,
			kx_public_key BLOB NOT NULL,
			expiry_ms INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			contact_uid TEXT NOT NULL PRIMARY KEY,
			is_active INTEGER NOT NULL DEFAULT 0,
			has_pending_messages INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (contact_uid) REFERENCES contacts(uid) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT NOT NULL PRIMARY KEY,
			chat_uid TEXT NOT NULL,
			sender_uid TEXT NOT NULL,
			receiver_uid TEXT NOT NULL,
			message_type TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			content BLOB NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			FOREIGN KEY (chat_uid) REFERENCES chats(contact_uid) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat_uid, timestamp_ms)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER NOT NULL PRIMARY KEY CHECK (id = 1),
			retry_interval_minutes INTEGER NOT NULL,
			storage_path TEXT NOT NULL,
			token_validity_hours INTEGER NOT NULL,
			max_retries INTEGER NOT NULL,
			base_retry_delay_ms INTEGER NOT NULL,
			notifications_enabled INTEGER NOT NULL
		)`,
	}

	for _, q := range schema {
		if _, err := s.db.Exec(q); err != nil {
			return model.NewError(model.KindStorage, "creating schema", err)
		}
	}

	return nil
}

