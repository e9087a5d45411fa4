package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/duetlog/duet-service/pkg/database"
)

const (
	createSnapshotTable = `
		CREATE TABLE IF NOT EXISTS app_state (
			id    INT PRIMARY KEY,
			state JSONB NOT NULL
		)
	`
	snapshotRowID = 1
)

// PostgresStore keeps the snapshot as a single JSONB row. Update takes a row
// lock for the duration of the mutator, so transactions serialize through the
// database even across multiple server processes.
type PostgresStore struct {
	db *database.Postgres
}

// NewPostgresStore creates the snapshot table and seed row if absent.
func NewPostgresStore(ctx context.Context, db *database.Postgres) (*PostgresStore, error) {
	if _, err := db.DB.ExecContext(ctx, createSnapshotTable); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	empty, err := json.Marshal(&State{})
	if err != nil {
		return nil, fmt.Errorf("failed to encode empty state: %w", err)
	}
	_, err = db.DB.ExecContext(ctx,
		`INSERT INTO app_state (id, state) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		snapshotRowID, empty,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed snapshot row: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (*State, error) {
	var raw []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT state FROM app_state WHERE id = $1`, snapshotRowID,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return state, nil
}

func (s *PostgresStore) Update(ctx context.Context, mutator func(*State) error) error {
	tx, err := s.db.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM app_state WHERE id = $1 FOR UPDATE`, snapshotRowID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("snapshot row missing: %w", err)
		}
		return fmt.Errorf("failed to lock snapshot: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(raw, state); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if err := mutator(state); err != nil {
		return err
	}

	updated, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE app_state SET state = $2 WHERE id = $1`, snapshotRowID, updated,
	); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.DB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
