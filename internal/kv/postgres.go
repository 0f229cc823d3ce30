package kv

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Postgres keeps per-visitor state for the web server. The client_state
// table is created by db.ConnectPostgres.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Open(clientID string) Store {
	return &postgresStore{db: p.db, clientID: clientID}
}

type postgresStore struct {
	db       *pgxpool.Pool
	clientID string
}

func (s *postgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(ctx, `
		SELECT value
		FROM client_state
		WHERE client_id = $1 AND key = $2
	`, s.clientID, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "read %s", key)
	}
	return v, true, nil
}

func (s *postgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO client_state (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, s.clientID, key, value)
	return errors.Wrapf(err, "write %s", key)
}

func (s *postgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM client_state
		WHERE client_id = $1 AND key = $2
	`, s.clientID, key)
	return errors.Wrapf(err, "delete %s", key)
}
