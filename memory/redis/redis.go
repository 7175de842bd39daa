// Package redis implements the Redis memory backend contract: deployment
// variants (standalone/cluster/sentinel) validated at build time, a
// type-state connection (Disconnected/Connected), uniform key-prefixing,
// and MULTI/EXEC transactions.
package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/memory"
	"github.com/skreaver-dev/skreaver/telemetry"
)

// Memory is the reference Redis backend, wrapping a Connected handle.
type Memory struct {
	conn *Connected

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

// New wraps an already-established connection.
func New(conn *Connected, opts ...Option) *Memory {
	m := &Memory{conn: conn, logger: telemetry.NoopLogger{}, guard: telemetry.NewCardinalityGuard()}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}
	return m
}

func (m *Memory) Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error) {
	m.checkOpClass(ctx, "read")
	start := time.Now()
	v, err := m.conn.client.Get(ctx, m.conn.prefixedKey(key.String())).Result()
	m.conn.metrics.record(float64(time.Since(start).Milliseconds()), err == nil || err == goredis.Nil)
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, sanitize(skerrors.OpLoad, err)
	}
	return v, true, nil
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
	start := time.Now()
	err := m.conn.client.Set(ctx, m.conn.prefixedKey(update.Key.String()), update.Value, 0).Err()
	m.conn.metrics.record(float64(time.Since(start).Milliseconds()), err == nil)
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

func (m *Memory) Snapshot(ctx context.Context) (string, bool, error) {
	m.checkOpClass(ctx, "snapshot")
	prefix := ""
	if m.conn.keyPrefix != "" {
		prefix = m.conn.keyPrefix + ":"
	}
	keys, err := m.conn.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return "", false, sanitize(skerrors.OpSnapshot, err)
	}
	if len(keys) == 0 {
		return "", false, nil
	}
	dump := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := m.conn.client.Get(ctx, k).Result()
		if err != nil && err != goredis.Nil {
			return "", false, sanitize(skerrors.OpSnapshot, err)
		}
		unprefixed := k
		if prefix != "" && len(k) >= len(prefix) {
			unprefixed = k[len(prefix):]
		}
		dump[unprefixed] = v
	}
	b, err := json.Marshal(dump)
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.SerializationError, skerrors.OpSnapshot, skerrors.BackendRedis, "marshal", err)
	}
	return string(b), true, nil
}

// clearPrefixedKeys deletes every key under the connection's keyPrefix, so
// Restore leaves no prior key visible alongside the replayed snapshot.
func (m *Memory) clearPrefixedKeys(ctx context.Context) error {
	prefix := ""
	if m.conn.keyPrefix != "" {
		prefix = m.conn.keyPrefix + ":"
	}
	keys, err := m.conn.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return sanitize(skerrors.OpRestore, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := m.conn.client.Del(ctx, keys...).Err(); err != nil {
		return sanitize(skerrors.OpRestore, err)
	}
	return nil
}

func (m *Memory) Restore(ctx context.Context, snapshot string) error {
	m.checkOpClass(ctx, "restore")
	var decoded map[string]string
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpRestore, skerrors.BackendRedis, "unmarshal", err)
	}
	if err := m.clearPrefixedKeys(ctx); err != nil {
		return err
	}
	updates := make([]memory.Update, 0, len(decoded))
	for k, v := range decoded {
		key, err := identifiers.ParseMemoryKey(k)
		if err != nil {
			return skerrors.Wrap(skerrors.InvalidKey, skerrors.OpRestore, skerrors.BackendRedis, "invalid key in snapshot", err)
		}
		updates = append(updates, memory.NewUpdate(key, v))
	}
	if len(updates) == 0 {
		return nil
	}
	return m.StoreMany(ctx, updates)
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
		return skerrors.New(skerrors.InvalidValue, skerrors.OpRestore, skerrors.BackendRedis, "only JSON-format backups are currently supported")
	}
	return m.Restore(ctx, handle.Data)
}

// MigrateToVersion is a no-op for Redis: the backend has no schema to
// migrate, only keys.
func (m *Memory) MigrateToVersion(ctx context.Context, version *int) error { return nil }

func (m *Memory) HealthStatus(ctx context.Context) (memory.HealthStatus, error) {
	if err := m.conn.Ping(ctx); err != nil {
		return memory.HealthStatus{Severity: memory.Unhealthy, Message: err.Error(), ErrorCount: int(m.conn.metrics.FailedCommands)}, nil
	}
	return memory.HealthStatus{
		Severity:   memory.Healthy,
		Message:    "ok",
		ErrorCount: int(m.conn.metrics.FailedCommands),
	}, nil
}

func (m *Memory) MigrationStatus(ctx context.Context) (memory.MigrationStatus, error) {
	return memory.MigrationStatus{CurrentVersion: 0, LatestVersion: 0}, nil
}
