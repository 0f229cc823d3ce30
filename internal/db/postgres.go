package db

import (
	"context"
	"time"

	"foozam/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ConnectPostgres opens the pool used for server-side client state and
// makes sure the schema exists.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse DATABASE_URL")
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres connection failed")
	}

	logging.Base().Info("connected to postgres")

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}

	return pool, nil
}

func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	// -------------------------------
	// CLIENT STATE
	// -------------------------------
	clientStateSQL := `
		CREATE TABLE IF NOT EXISTS client_state (
			client_id  VARCHAR(64)  NOT NULL,
			key        VARCHAR(64)  NOT NULL,
			value      TEXT         NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (client_id, key)
		)
	`
	if _, err := db.Exec(ctx, clientStateSQL); err != nil {
		return err
	}

	idleIndexSQL := `
		CREATE INDEX IF NOT EXISTS client_state_updated_at_idx
		ON client_state (updated_at)
	`
	if _, err := db.Exec(ctx, idleIndexSQL); err != nil {
		logging.Base().WithError(err).Warn("client_state index not created")
	}

	logging.Base().Info("schema initialized")
	return nil
}
