package kv

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS client_state (
	client_id TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (client_id, key)
)`

// SQLite keeps client state in a local database file. Used by the CLI.
type SQLite struct {
	conn *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open state database")
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "apply state schema")
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) Open(clientID string) Store {
	return &sqliteStore{conn: s.conn, clientID: clientID}
}

type sqliteStore struct {
	conn     *sql.DB
	clientID string
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE client_id = ? AND key = ?`,
		s.clientID, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "read %s", key)
	}
	return v, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO client_state (client_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (client_id, key) DO UPDATE SET value = excluded.value
	`, s.clientID, key, value)
	return errors.Wrapf(err, "write %s", key)
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM client_state WHERE client_id = ? AND key = ?`,
		s.clientID, key,
	)
	return errors.Wrapf(err, "delete %s", key)
}
