// Package postgres implements the Postgres memory backend contract: a
// bounded connection pool, versioned migrations with a GIN index on the
// JSONB value column, parameterized statements only, and errors sanitized
// to a small public vocabulary.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/memory"
	"github.com/skreaver-dev/skreaver/telemetry"
)

// Memory is the reference Postgres backend.
type Memory struct {
	pool *pgxpool.Pool

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
	_ memory.ReaderWriter        = (*Memory)(nil)
	_ memory.TransactionalMemory = (*Memory)(nil)
	_ memory.SnapshotableMemory  = (*Memory)(nil)
	_ memory.Admin               = (*Memory)(nil)
)

// Connect validates cfg, opens a bounded pool, and applies pending
// migrations.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Memory, error) {
	valid, err := cfg.Validate()
	if err != nil {
		return nil, skerrors.Wrap(skerrors.InvalidValue, skerrors.OpConnect, skerrors.BackendPostgres, "invalid configuration", err)
	}

	poolCfg, err := pgxpool.ParseConfig(valid.ConnString())
	if err != nil {
		return nil, skerrors.Wrap(skerrors.InvalidValue, skerrors.OpConnect, skerrors.BackendPostgres, "parse pool config", err)
	}
	poolCfg.MaxConns = int32(valid.PoolSize())

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, sanitize(skerrors.OpConnect, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, sanitize(skerrors.OpConnect, err)
	}

	m := &Memory{pool: pool, logger: telemetry.NoopLogger{}, guard: telemetry.NewCardinalityGuard()}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}
	if err := migrateToLatest(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return m, nil
}

func (m *Memory) Close() { m.pool.Close() }

// sanitize maps an arbitrary pgx/postgres error to a small public error
// vocabulary so internal details (query text, schema names) never leak to
// callers.
func sanitize(op skerrors.MemoryOperation, err error) *skerrors.MemoryError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "password authentication"), strings.Contains(msg, "authentication"):
		return skerrors.Wrap(skerrors.AccessDenied, op, skerrors.BackendPostgres, "authentication failed", err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return skerrors.Wrap(skerrors.Timeout, op, skerrors.BackendPostgres, "operation timed out", err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connect:"):
		return skerrors.Wrap(skerrors.NetworkError, op, skerrors.BackendPostgres, "connection failed", err)
	case strings.Contains(msg, "duplicate key"):
		return skerrors.Wrap(skerrors.KeyAlreadyExists, op, skerrors.BackendPostgres, "key already exists", err)
	default:
		return skerrors.Wrap(skerrors.InternalError, op, skerrors.BackendPostgres, "database error occurred", err)
	}
}

func (m *Memory) Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error) {
	m.checkOpClass(ctx, "read")
	var value string
	err := m.pool.QueryRow(ctx, `SELECT value::text FROM memory_entries WHERE key = $1`, key.String()).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, sanitize(skerrors.OpLoad, err)
	}
	var unquoted string
	if err := json.Unmarshal([]byte(value), &unquoted); err != nil {
		return value, true, nil
	}
	return unquoted, true, nil
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
	encoded, err := json.Marshal(update.Value)
	if err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpStore, skerrors.BackendPostgres, "encode value", err)
	}
	_, err = m.pool.Exec(ctx, `
		INSERT INTO memory_entries (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, update.Key.String(), string(encoded))
	if err != nil {
		return sanitize(skerrors.OpStore, err)
	}
	return nil
}

func (m *Memory) StoreMany(ctx context.Context, updates []memory.Update) error {
	return m.Transaction(ctx, func(ctx context.Context, w memory.TxWriter) error {
		return w.StoreMany(ctx, updates)
	})
}

func (m *Memory) Transaction(ctx context.Context, fn func(ctx context.Context, w memory.TxWriter) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return sanitize(skerrors.OpStore, err)
	}
	w := &txWriter{tx: tx}
	if err := fn(ctx, w); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return sanitize(skerrors.OpStore, err)
	}
	return nil
}

type txWriter struct{ tx pgx.Tx }

func (w *txWriter) Store(ctx context.Context, update memory.Update) error {
	encoded, err := json.Marshal(update.Value)
	if err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpStore, skerrors.BackendPostgres, "encode value", err)
	}
	_, err = w.tx.Exec(ctx, `
		INSERT INTO memory_entries (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, update.Key.String(), string(encoded))
	if err != nil {
		return sanitize(skerrors.OpStore, err)
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
	rows, err := m.pool.Query(ctx, `SELECT key, value::text FROM memory_entries`)
	if err != nil {
		return "", false, sanitize(skerrors.OpSnapshot, err)
	}
	defer rows.Close()

	dump := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return "", false, sanitize(skerrors.OpSnapshot, err)
		}
		var unquoted string
		if json.Unmarshal([]byte(v), &unquoted) == nil {
			dump[k] = unquoted
		} else {
			dump[k] = v
		}
	}
	if len(dump) == 0 {
		return "", false, nil
	}
	b, err := json.Marshal(dump)
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.SerializationError, skerrors.OpSnapshot, skerrors.BackendPostgres, "marshal", err)
	}
	return string(b), true, nil
}

func (m *Memory) Restore(ctx context.Context, snapshot string) error {
	m.checkOpClass(ctx, "restore")
	var decoded map[string]string
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpRestore, skerrors.BackendPostgres, "unmarshal", err)
	}
	return m.Transaction(ctx, func(ctx context.Context, w memory.TxWriter) error {
		tw := w.(*txWriter)
		if _, err := tw.tx.Exec(ctx, `DELETE FROM memory_entries`); err != nil {
			return sanitize(skerrors.OpRestore, err)
		}
		updates := make([]memory.Update, 0, len(decoded))
		for k, v := range decoded {
			key, err := identifiers.ParseMemoryKey(k)
			if err != nil {
				return skerrors.Wrap(skerrors.InvalidKey, skerrors.OpRestore, skerrors.BackendPostgres, "invalid key in snapshot", err)
			}
			updates = append(updates, memory.NewUpdate(key, v))
		}
		return w.StoreMany(ctx, updates)
	})
}

func (m *Memory) Backup(ctx context.Context) (memory.BackupHandle, error) {
	snap, _, err := m.Snapshot(ctx)
	if err != nil {
		return memory.BackupHandle{}, err
	}
	return memory.BackupHandle{Format: memory.FormatJSON, Data: snap, SizeBytes: len(snap)}, nil
}

func (m *Memory) RestoreFromBackup(ctx context.Context, handle memory.BackupHandle) error {
	if handle.Format != memory.FormatJSON {
		return skerrors.New(skerrors.InvalidValue, skerrors.OpRestore, skerrors.BackendPostgres, "only JSON-format backups are currently supported")
	}
	return m.Restore(ctx, handle.Data)
}

func (m *Memory) MigrateToVersion(ctx context.Context, version *int) error {
	return migrateTo(ctx, m.pool, version)
}

func (m *Memory) HealthStatus(ctx context.Context) (memory.HealthStatus, error) {
	stat := m.pool.Stat()
	pool := &memory.PoolStatus{
		Total:     int(stat.TotalConns()),
		InUse:     int(stat.AcquiredConns()),
		Available: int(stat.IdleConns()),
	}
	if err := m.pool.Ping(ctx); err != nil {
		return memory.HealthStatus{Severity: memory.Unhealthy, Message: fmt.Sprintf("ping failed: %v", err), Pool: pool, ErrorCount: 1}, nil
	}
	return memory.HealthStatus{Severity: memory.Healthy, Message: "ok", Pool: pool}, nil
}

func (m *Memory) MigrationStatus(ctx context.Context) (memory.MigrationStatus, error) {
	return migrationStatus(ctx, m.pool)
}
