package sqlite

import (
	"context"
	"database/sql"
	"time"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/memory"
)

// migration is one forward-only schema change.
type migration struct {
	Version     int
	Description string
	Up          string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "create memory_entries and schema_migrations",
		Up: `
			CREATE TABLE IF NOT EXISTS memory_entries (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				description TEXT NOT NULL,
				applied_at TEXT NOT NULL
			);
		`,
	},
}

type migrationEngine struct{ db *sql.DB }

func newMigrationEngine(db *sql.DB) *migrationEngine { return &migrationEngine{db: db} }

func (e *migrationEngine) ensureLedger(ctx context.Context) error {
	_, err := e.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (e *migrationEngine) currentVersion(ctx context.Context) (int, error) {
	if err := e.ensureLedger(ctx); err != nil {
		return 0, err
	}
	var version sql.NullInt64
	err := e.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func (e *migrationEngine) migrateToLatest(ctx context.Context) error {
	latest := migrations[len(migrations)-1].Version
	return e.migrateTo(ctx, &latest)
}

// migrateTo applies every migration whose version is > current and <=
// target (or all pending migrations, if target is nil), in order, never
// re-applying a version already recorded in schema_migrations.
func (e *migrationEngine) migrateTo(ctx context.Context, target *int) error {
	current, err := e.currentVersion(ctx)
	if err != nil {
		return skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "read migration ledger", err)
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		if target != nil && mig.Version > *target {
			continue
		}
		tx, err := e.db.BeginTx(ctx, nil)
		if err != nil {
			return skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "begin migration", err)
		}
		if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
			tx.Rollback()
			return skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "apply migration "+mig.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
			mig.Version, mig.Description, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			tx.Rollback()
			return skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "record migration", err)
		}
		if err := tx.Commit(); err != nil {
			return skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "commit migration", err)
		}
	}
	return nil
}

func (e *migrationEngine) status(ctx context.Context) (memory.MigrationStatus, error) {
	current, err := e.currentVersion(ctx)
	if err != nil {
		return memory.MigrationStatus{}, skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "read migration ledger", err)
	}

	rows, err := e.db.QueryContext(ctx, `SELECT version, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return memory.MigrationStatus{}, skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "list applied migrations", err)
	}
	defer rows.Close()

	var applied []memory.AppliedMigration
	for rows.Next() {
		var version int
		var description, appliedAt string
		if err := rows.Scan(&version, &description, &appliedAt); err != nil {
			return memory.MigrationStatus{}, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, appliedAt)
		applied = append(applied, memory.AppliedMigration{Version: version, Description: description, AppliedAt: ts.Unix()})
	}

	var pending []int
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig.Version)
		}
	}

	return memory.MigrationStatus{
		CurrentVersion: current,
		LatestVersion:  migrations[len(migrations)-1].Version,
		Pending:        pending,
		Applied:        applied,
	}, nil
}
