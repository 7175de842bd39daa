package memory

import (
	"context"
	"encoding/json"
	"sync"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/telemetry"
)

// InMemory is the reference single-process backend: a mutex-guarded map.
// Snapshot/restore round-trip through a JSON object of {key: value}.
type InMemory struct {
	mu   sync.RWMutex
	data map[string]string

	logger telemetry.Logger
	guard  *telemetry.CardinalityGuard
}

// InMemoryOption configures optional InMemory telemetry.
type InMemoryOption func(*InMemory)

// WithInMemoryLogger configures the logger used to report cardinality-guard
// rejections. When unset, InMemory uses a noop logger.
func WithInMemoryLogger(logger telemetry.Logger) InMemoryOption {
	return func(m *InMemory) { m.logger = logger }
}

// NewInMemory constructs an empty InMemory backend.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	m := &InMemory{
		data:   make(map[string]string),
		logger: telemetry.NoopLogger{},
		guard:  telemetry.NewCardinalityGuard(),
	}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}
	return m
}

// checkOpClass guards against unbounded memory-operation-class labels before
// a caller emits telemetry tagged with opClass.
func (m *InMemory) checkOpClass(ctx context.Context, opClass string) {
	if err := m.guard.Check(telemetry.DimensionMemoryOpClass, opClass); err != nil {
		m.logger.Warn(ctx, "memory op class cardinality bound exceeded", "op_class", opClass, "error", err.Error())
	}
}

var _ SnapshotableMemory = (*InMemory)(nil)
var _ TransactionalMemory = (*InMemory)(nil)

func (m *InMemory) Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error) {
	m.checkOpClass(ctx, "read")
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key.String()]
	return v, ok, nil
}

func (m *InMemory) LoadMany(ctx context.Context, keys []identifiers.MemoryKey) ([]LoadResult, error) {
	return alignLoadMany(ctx, m, keys)
}

func (m *InMemory) Store(ctx context.Context, update Update) error {
	m.checkOpClass(ctx, "write")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[update.Key.String()] = update.Value
	return nil
}

func (m *InMemory) StoreMany(ctx context.Context, updates []Update) error {
	m.checkOpClass(ctx, "write")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		m.data[u.Key.String()] = u.Value
	}
	return nil
}

// Transaction buffers writes in a scratch copy and only applies them to the
// live map if fn returns nil; on error the scratch copy is discarded.
func (m *InMemory) Transaction(ctx context.Context, fn func(ctx context.Context, w TxWriter) error) error {
	m.mu.Lock()
	scratch := &txScratch{base: m.data, writes: make(map[string]string)}
	m.mu.Unlock()

	if err := fn(ctx, scratch); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range scratch.writes {
		m.data[k] = v
	}
	return nil
}

// txScratch implements TxWriter by buffering writes and never touching the
// live map until the enclosing Transaction commits them.
type txScratch struct {
	base   map[string]string
	writes map[string]string
}

func (t *txScratch) Store(_ context.Context, update Update) error {
	t.writes[update.Key.String()] = update.Value
	return nil
}

func (t *txScratch) StoreMany(_ context.Context, updates []Update) error {
	for _, u := range updates {
		t.writes[u.Key.String()] = u.Value
	}
	return nil
}

func (m *InMemory) Snapshot(ctx context.Context) (string, bool, error) {
	m.checkOpClass(ctx, "snapshot")
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.data) == 0 {
		return "", false, nil
	}
	b, err := json.Marshal(m.data)
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.SerializationError, skerrors.OpSnapshot, skerrors.BackendInMemory, "marshal snapshot", err)
	}
	return string(b), true, nil
}

func (m *InMemory) Restore(ctx context.Context, snapshot string) error {
	m.checkOpClass(ctx, "restore")
	var decoded map[string]string
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpRestore, skerrors.BackendInMemory, "unmarshal snapshot", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = decoded
	return nil
}
