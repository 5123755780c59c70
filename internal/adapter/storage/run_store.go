// internal/adapter/storage/run_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trendboard/internal/config"
	"trendboard/internal/domain/trend"
)

const runSchema = `
	CREATE TABLE IF NOT EXISTS ingestion_runs (
		id          UUID PRIMARY KEY,
		kind        TEXT NOT NULL,
		scope       TEXT NOT NULL,
		status      TEXT NOT NULL,
		pages       INTEGER NOT NULL DEFAULT 0,
		documents   INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS ingestion_runs_started_at_idx ON ingestion_runs (started_at DESC);
`

// RunStore implements the ingestion run ledger on PostgreSQL
type RunStore struct {
	db *pgxpool.Pool
}

// NewRunStore creates a new run store
func NewRunStore(db *pgxpool.Pool) *RunStore {
	return &RunStore{
		db: db,
	}
}

// ConnectPostgres opens the pooled ledger connection
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the ledger table when missing
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, runSchema); err != nil {
		return fmt.Errorf("error creating run schema: %w", err)
	}
	return nil
}

// StartRun records a new running run
func (s *RunStore) StartRun(ctx context.Context, run trend.Run) error {
	query := `
		INSERT INTO ingestion_runs (id, kind, scope, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, run.ID, string(run.Kind), run.Scope, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("error inserting run: %w", err)
	}

	return nil
}

// FinishRun stores the final state of a run
func (s *RunStore) FinishRun(ctx context.Context, run trend.Run) error {
	query := `
		UPDATE ingestion_runs
		SET status = $2, pages = $3, documents = $4, error = $5, finished_at = $6
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, run.ID, string(run.Status), run.Pages, run.Documents, run.Error, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("error updating run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs first
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]trend.Run, error) {
	query := `
		SELECT id::text, kind, scope, status, pages, documents, error, started_at, finished_at
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	runs := []trend.Run{}
	for rows.Next() {
		var r trend.Run
		var kind, status string

		err := rows.Scan(
			&r.ID,
			&kind,
			&r.Scope,
			&status,
			&r.Pages,
			&r.Documents,
			&r.Error,
			&r.StartedAt,
			&r.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}

		r.Kind = trend.RunKind(kind)
		r.Status = trend.RunStatus(status)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
