// Package sqlite implements the SQLite memory backend contract: WAL mode,
// a bounded connection pool, per-operation-class timeouts, and forward-only
// versioned migrations recorded in schema_migrations.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver, pure Go, no cgo

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/memory"
	"github.com/skreaver-dev/skreaver/telemetry"
)

// PoolSize is a validated pool size, 1..=100.
type PoolSize struct{ n int }

func NewPoolSize(n int) (PoolSize, error) {
	if n < 1 || n > 100 {
		return PoolSize{}, fmt.Errorf("pool size %d out of range [1,100]", n)
	}
	return PoolSize{n: n}, nil
}

func (p PoolSize) Int() int { return p.n }

// Memory is the reference SQLite backend. namespace, when non-empty, is
// prepended to every stored key's storage column (distinct from the
// NamespacedMemory wrapper, which operates purely in the key's text).
type Memory struct {
	db       *sql.DB
	timeouts TimeoutConfig
	migrator *migrationEngine

	logger telemetry.Logger
	guard  *telemetry.CardinalityGuard
}

// Option configures optional Memory telemetry.
type Option func(*Memory)

// WithLogger configures the logger used to report cardinality-guard
// rejections. When unset, Memory uses a noop logger.
func WithLogger(logger telemetry.Logger) Option {
	return func(m *Memory) { m.logger = logger }
}

func (m *Memory) checkOpClass(ctx context.Context, opClass string) {
	if err := m.guard.Check(telemetry.DimensionMemoryOpClass, opClass); err != nil {
		m.logger.Warn(ctx, "memory op class cardinality bound exceeded", "op_class", opClass, "error", err.Error())
	}
}

var (
	_ memory.ReaderWriter         = (*Memory)(nil)
	_ memory.TransactionalMemory  = (*Memory)(nil)
	_ memory.SnapshotableMemory   = (*Memory)(nil)
	_ memory.Admin                = (*Memory)(nil)
)

// Open creates a pooled SQLite backend at path, enables WAL mode, applies
// all pending migrations, and returns the ready backend.
func Open(ctx context.Context, path string, pool PoolSize, timeouts TimeoutConfig, opts ...Option) (*Memory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "open database", err)
	}
	db.SetMaxOpenConns(pool.Int())
	db.SetMaxIdleConns(pool.Int())

	acquireCtx, cancel := context.WithTimeout(ctx, timeouts.ConnectionAcquire)
	defer cancel()
	if err := db.PingContext(acquireCtx); err != nil {
		db.Close()
		return nil, skerrors.Wrap(skerrors.NetworkError, skerrors.OpConnect, skerrors.BackendSqlite, "ping database", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "enable WAL", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, skerrors.Wrap(skerrors.InternalError, skerrors.OpConnect, skerrors.BackendSqlite, "set busy_timeout", err)
	}

	m := &Memory{
		db:       db,
		timeouts: timeouts,
		migrator: newMigrationEngine(db),
		logger:   telemetry.NoopLogger{},
		guard:    telemetry.NewCardinalityGuard(),
	}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}

	migrateCtx, migrateCancel := context.WithTimeout(ctx, timeouts.Migration)
	defer migrateCancel()
	if err := m.migrator.migrateToLatest(migrateCtx); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Memory) Close() error { return m.db.Close() }

func (m *Memory) Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error) {
	m.checkOpClass(ctx, "read")
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Statement)
	defer cancel()

	var value string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM memory_entries WHERE key = ?`, key.String()).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case isTimeoutErr(ctx):
		return "", false, skerrors.NewTimeout(skerrors.OpLoad, skerrors.BackendSqlite, "statement", m.timeouts.Statement.Seconds())
	case err != nil:
		return "", false, skerrors.Wrap(skerrors.IoError, skerrors.OpLoad, skerrors.BackendSqlite, "select", err).WithKey(key.String())
	}
	return value, true, nil
}

func (m *Memory) LoadMany(ctx context.Context, keys []identifiers.MemoryKey) ([]memory.LoadResult, error) {
	results := make([]memory.LoadResult, len(keys))
	for i, k := range keys {
		v, ok, err := m.Load(ctx, k)
		if err != nil {
			return nil, err
		}
		results[i] = memory.LoadResult{Value: v, Found: ok}
	}
	return results, nil
}

func (m *Memory) Store(ctx context.Context, update memory.Update) error {
	m.checkOpClass(ctx, "write")
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Statement)
	defer cancel()

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO memory_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, update.Key.String(), update.Value, time.Now().UTC().Format(time.RFC3339Nano))
	if isTimeoutErr(ctx) {
		return skerrors.NewTimeout(skerrors.OpStore, skerrors.BackendSqlite, "statement", m.timeouts.Statement.Seconds())
	}
	if err != nil {
		return skerrors.Wrap(skerrors.IoError, skerrors.OpStore, skerrors.BackendSqlite, "upsert", err).WithKey(update.Key.String())
	}
	return nil
}

func (m *Memory) StoreMany(ctx context.Context, updates []memory.Update) error {
	return m.Transaction(ctx, func(ctx context.Context, w memory.TxWriter) error {
		return w.StoreMany(ctx, updates)
	})
}

func (m *Memory) Transaction(ctx context.Context, fn func(ctx context.Context, w memory.TxWriter) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Transaction)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return skerrors.Wrap(skerrors.IoError, skerrors.OpStore, skerrors.BackendSqlite, "begin transaction", err)
	}
	w := &txWriter{tx: tx}
	if err := fn(ctx, w); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return skerrors.Wrap(skerrors.IoError, skerrors.OpStore, skerrors.BackendSqlite, "commit transaction", err)
	}
	return nil
}

type txWriter struct{ tx *sql.Tx }

func (w *txWriter) Store(ctx context.Context, update memory.Update) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO memory_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, update.Key.String(), update.Value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return skerrors.Wrap(skerrors.IoError, skerrors.OpStore, skerrors.BackendSqlite, "upsert", err).WithKey(update.Key.String())
	}
	return nil
}

func (w *txWriter) StoreMany(ctx context.Context, updates []memory.Update) error {
	for _, u := range updates {
		if err := w.Store(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Snapshot(ctx context.Context) (string, bool, error) {
	m.checkOpClass(ctx, "snapshot")
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Transaction)
	defer cancel()

	rows, err := m.db.QueryContext(ctx, `SELECT key, value FROM memory_entries`)
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.IoError, skerrors.OpSnapshot, skerrors.BackendSqlite, "select all", err)
	}
	defer rows.Close()

	dump := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return "", false, skerrors.Wrap(skerrors.IoError, skerrors.OpSnapshot, skerrors.BackendSqlite, "scan row", err)
		}
		dump[k] = v
	}
	if len(dump) == 0 {
		return "", false, nil
	}
	b, err := json.Marshal(dump)
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.SerializationError, skerrors.OpSnapshot, skerrors.BackendSqlite, "marshal", err)
	}
	return string(b), true, nil
}

func (m *Memory) Restore(ctx context.Context, snapshot string) error {
	m.checkOpClass(ctx, "restore")
	var decoded map[string]string
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpRestore, skerrors.BackendSqlite, "unmarshal", err)
	}
	return m.Transaction(ctx, func(ctx context.Context, w memory.TxWriter) error {
		tw := w.(*txWriter)
		if _, err := tw.tx.ExecContext(ctx, `DELETE FROM memory_entries`); err != nil {
			return skerrors.Wrap(skerrors.IoError, skerrors.OpRestore, skerrors.BackendSqlite, "clear table", err)
		}
		for k, v := range decoded {
			if _, err := tw.tx.ExecContext(ctx, `INSERT INTO memory_entries (key, value, updated_at) VALUES (?, ?, ?)`,
				k, v, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
				return skerrors.Wrap(skerrors.IoError, skerrors.OpRestore, skerrors.BackendSqlite, "insert", err).WithKey(k)
			}
		}
		return nil
	})
}

func (m *Memory) Backup(ctx context.Context) (memory.BackupHandle, error) {
	snap, _, err := m.Snapshot(ctx)
	if err != nil {
		return memory.BackupHandle{}, err
	}
	return memory.BackupHandle{
		Format:    memory.FormatJSON,
		Data:      snap,
		SizeBytes: len(snap),
	}, nil
}

func (m *Memory) RestoreFromBackup(ctx context.Context, handle memory.BackupHandle) error {
	if handle.Format != memory.FormatJSON {
		return skerrors.New(skerrors.InvalidValue, skerrors.OpRestore, skerrors.BackendSqlite, "only JSON-format backups are currently supported")
	}
	return m.Restore(ctx, handle.Data)
}

func (m *Memory) MigrateToVersion(ctx context.Context, version *int) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Migration)
	defer cancel()
	return m.migrator.migrateTo(ctx, version)
}

func (m *Memory) HealthStatus(ctx context.Context) (memory.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Statement)
	defer cancel()

	stats := m.db.Stats()
	pool := &memory.PoolStatus{
		InUse:     stats.InUse,
		Available: stats.Idle,
		Total:     stats.OpenConnections,
	}
	if err := m.db.PingContext(ctx); err != nil {
		return memory.HealthStatus{Severity: memory.Unhealthy, Message: err.Error(), Pool: pool, ErrorCount: 1}, nil
	}
	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_entries`).Scan(&count); err != nil {
		return memory.HealthStatus{Severity: memory.Degraded, Message: "row count unavailable", Pool: pool}, nil
	}
	return memory.HealthStatus{Severity: memory.Healthy, Message: fmt.Sprintf("%d entries", count), Pool: pool}, nil
}

func (m *Memory) MigrationStatus(ctx context.Context) (memory.MigrationStatus, error) {
	return m.migrator.status(ctx)
}

func isTimeoutErr(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}
