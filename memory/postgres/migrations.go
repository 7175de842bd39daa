package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/memory"
)

type pgMigration struct {
	Version     int
	Description string
	Up          string
}

var pgMigrations = []pgMigration{
	{
		Version:     1,
		Description: "create memory_entries with GIN index on value",
		Up: `
			CREATE TABLE IF NOT EXISTS memory_entries (
				key TEXT PRIMARY KEY,
				value JSONB NOT NULL,
				namespace TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE INDEX IF NOT EXISTS memory_entries_namespace_idx ON memory_entries (namespace);
			CREATE INDEX IF NOT EXISTS memory_entries_updated_at_idx ON memory_entries (updated_at);
			CREATE INDEX IF NOT EXISTS memory_entries_value_gin_idx ON memory_entries USING GIN (value);
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				description TEXT NOT NULL,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);
		`,
	},
}

func ensureLedger(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func currentVersion(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	if err := ensureLedger(ctx, pool); err != nil {
		return 0, err
	}
	var version *int
	if err := pool.QueryRow(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, err
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}

func migrateToLatest(ctx context.Context, pool *pgxpool.Pool) error {
	latest := pgMigrations[len(pgMigrations)-1].Version
	return migrateTo(ctx, pool, &latest)
}

func migrateTo(ctx context.Context, pool *pgxpool.Pool, target *int) error {
	current, err := currentVersion(ctx, pool)
	if err != nil {
		return sanitize(skerrors.OpConnect, err)
	}

	for _, mig := range pgMigrations {
		if mig.Version <= current {
			continue
		}
		if target != nil && mig.Version > *target {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return sanitize(skerrors.OpConnect, err)
		}
		if _, err := tx.Exec(ctx, mig.Up); err != nil {
			tx.Rollback(ctx)
			return sanitize(skerrors.OpConnect, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			mig.Version, mig.Description); err != nil {
			tx.Rollback(ctx)
			return sanitize(skerrors.OpConnect, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return sanitize(skerrors.OpConnect, err)
		}
	}
	return nil
}

func migrationStatus(ctx context.Context, pool *pgxpool.Pool) (memory.MigrationStatus, error) {
	current, err := currentVersion(ctx, pool)
	if err != nil {
		return memory.MigrationStatus{}, sanitize(skerrors.OpConnect, err)
	}

	rows, err := pool.Query(ctx, `SELECT version, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return memory.MigrationStatus{}, sanitize(skerrors.OpConnect, err)
	}
	defer rows.Close()

	var applied []memory.AppliedMigration
	for rows.Next() {
		var version int
		var description string
		var appliedAt time.Time
		if err := rows.Scan(&version, &description, &appliedAt); err != nil {
			return memory.MigrationStatus{}, err
		}
		applied = append(applied, memory.AppliedMigration{Version: version, Description: description, AppliedAt: appliedAt.Unix()})
	}

	var pending []int
	for _, mig := range pgMigrations {
		if mig.Version > current {
			pending = append(pending, mig.Version)
		}
	}

	return memory.MigrationStatus{
		CurrentVersion: current,
		LatestVersion:  pgMigrations[len(pgMigrations)-1].Version,
		Pending:        pending,
		Applied:        applied,
	}, nil
}
