// Package pgstore persists state machine states in PostgreSQL.
//
// States live in the statemachine_states table created by Migrate:
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err := pgstore.Migrate(ctx, pool, cfg, slog.Default()); err != nil { ... }
//	store := pgstore.New(pool)
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/statekit/pkg/statestore"
)

const (
	loadQuery = `SELECT state FROM statemachine_states WHERE machine = $1 AND instance_id = $2`

	saveQuery = `INSERT INTO statemachine_states (machine, instance_id, state, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (machine, instance_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`

	deleteQuery = `DELETE FROM statemachine_states WHERE machine = $1 AND instance_id = $2`

	listQuery = `SELECT instance_id FROM statemachine_states WHERE machine = $1 ORDER BY instance_id`
)

// DB is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements statestore.Store on PostgreSQL.
type Store struct {
	db DB
}

var _ statestore.Store = (*Store)(nil)

func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context, key statestore.Key) (string, error) {
	var state string
	err := s.db.QueryRow(ctx, loadQuery, key.Machine, key.ID).Scan(&state)
	if IsNotFoundError(err) {
		return "", statestore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pgstore: load %s: %w", key, err)
	}
	return state, nil
}

// Save upserts the state row.
func (s *Store) Save(ctx context.Context, key statestore.Key, state string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, saveQuery, key.Machine, key.ID, state); err != nil {
		return fmt.Errorf("pgstore: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key statestore.Key) error {
	if _, err := s.db.Exec(ctx, deleteQuery, key.Machine, key.ID); err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, machine string) ([]string, error) {
	rows, err := s.db.Query(ctx, listQuery, machine)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list %s: %w", machine, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pgstore: list %s: %w", machine, err)
	}
	return ids, nil
}
