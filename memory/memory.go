// Package memory defines the capability-split memory abstraction: a backend
// advertises only the interfaces it actually supports (Reader, Writer,
// Transactional, Snapshotable, Admin) rather than a single monolithic type.
package memory

import (
	"context"

	"github.com/skreaver-dev/skreaver/identifiers"
)

// Update is a single key/value write. Values are opaque UTF-8; backends must
// round-trip them byte-for-byte.
type Update struct {
	Key   identifiers.MemoryKey
	Value string
}

// NewUpdate constructs an Update from an already-validated key.
func NewUpdate(key identifiers.MemoryKey, value string) Update {
	return Update{Key: key, Value: value}
}

// Reader loads values by key.
type Reader interface {
	// Load returns the value for key, or ("", false, nil) if absent.
	Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error)

	// LoadMany returns a slice aligned index-for-index with keys; entries
	// for absent keys report found=false.
	LoadMany(ctx context.Context, keys []identifiers.MemoryKey) ([]LoadResult, error)
}

// LoadResult is one entry of a LoadMany response.
type LoadResult struct {
	Value string
	Found bool
}

// Writer stores values by key.
type Writer interface {
	Store(ctx context.Context, update Update) error
	StoreMany(ctx context.Context, updates []Update) error
}

// ReaderWriter is the common pairing most callers want.
type ReaderWriter interface {
	Reader
	Writer
}

// TxWriter is the writer view handed to a TransactionalMemory closure.
type TxWriter interface {
	Writer
}

// TransactionalMemory commits or rolls back a batch of writes atomically.
type TransactionalMemory interface {
	ReaderWriter
	// Transaction invokes fn with a writer view. If fn returns a non-nil
	// error, every write fn performed is rolled back and Transaction
	// returns that error. If fn returns nil, all its writes commit.
	Transaction(ctx context.Context, fn func(ctx context.Context, w TxWriter) error) error
}

// SnapshotableMemory supports whole-state export/import.
type SnapshotableMemory interface {
	ReaderWriter
	// Snapshot returns an opaque textual representation of the entire
	// state, or ("", false, nil) if the backend has nothing to snapshot.
	Snapshot(ctx context.Context) (string, bool, error)
	// Restore replaces the entire state atomically: either every key in
	// snapshot becomes visible and no prior key remains, or the state is
	// left unchanged.
	Restore(ctx context.Context, snapshot string) error
}

// BackupFormat closes the set of backup payload encodings.
type BackupFormat int

const (
	FormatJSON BackupFormat = iota
	FormatSqliteDump
	FormatPostgresDump
	FormatBinary
)

// BackupHandle is an opaque, retrievable capture of a backend's state.
type BackupHandle struct {
	ID        string
	CreatedAt int64 // unix seconds, caller-supplied (no implicit clock reads)
	SizeBytes int
	Format    BackupFormat
	Data      string
}

// HealthSeverity closes the set of health states a backend can report.
type HealthSeverity int

const (
	Healthy HealthSeverity = iota
	Degraded
	Unhealthy
)

// PoolStatus describes a connection pool's occupancy, when one exists.
type PoolStatus struct {
	Available int
	InUse     int
	Total     int
}

// HealthStatus is the result of an admin health check.
type HealthStatus struct {
	Severity   HealthSeverity
	Message    string
	Pool       *PoolStatus // nil iff no pool exists
	ErrorCount int
}

// AppliedMigration names one migration that has already run.
type AppliedMigration struct {
	Version     int
	Description string
	AppliedAt   int64
}

// MigrationStatus reports a backend's schema migration state.
type MigrationStatus struct {
	CurrentVersion int
	LatestVersion  int
	Pending        []int
	Applied        []AppliedMigration
}

// Admin is implemented by durable backends only (not InMemory).
type Admin interface {
	Backup(ctx context.Context) (BackupHandle, error)
	RestoreFromBackup(ctx context.Context, handle BackupHandle) error
	MigrateToVersion(ctx context.Context, version *int) error
	HealthStatus(ctx context.Context) (HealthStatus, error)
	MigrationStatus(ctx context.Context) (MigrationStatus, error)
}

// notFoundLoad is the shared zero-value returned for an absent key.
var notFoundLoad = LoadResult{}

func alignLoadMany(ctx context.Context, r Reader, keys []identifiers.MemoryKey) ([]LoadResult, error) {
	results := make([]LoadResult, len(keys))
	for i, k := range keys {
		v, ok, err := r.Load(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			results[i] = notFoundLoad
			continue
		}
		results[i] = LoadResult{Value: v, Found: true}
	}
	return results, nil
}
