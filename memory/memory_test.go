package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skreaver-dev/skreaver/identifiers"
)

func mustKey(t *testing.T, raw string) identifiers.MemoryKey {
	t.Helper()
	k, err := identifiers.ParseMemoryKey(raw)
	require.NoError(t, err)
	return k
}

func TestInMemory_StoreLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	k := mustKey(t, "last_input")

	require.NoError(t, m.Store(ctx, NewUpdate(k, "hello")))

	v, ok, err := m.Load(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", v)
}

func TestInMemory_LoadMany_Alignment(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	a, b, c := mustKey(t, "a"), mustKey(t, "b"), mustKey(t, "c")
	require.NoError(t, m.Store(ctx, NewUpdate(a, "1")))
	require.NoError(t, m.Store(ctx, NewUpdate(b, "2")))

	results, err := m.LoadMany(ctx, []identifiers.MemoryKey{a, b, c})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, LoadResult{Value: "1", Found: true}, results[0])
	require.Equal(t, LoadResult{Value: "2", Found: true}, results[1])
	require.Equal(t, LoadResult{}, results[2])
}

func TestInMemory_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	a, b, c := mustKey(t, "a"), mustKey(t, "b"), mustKey(t, "c")
	require.NoError(t, m.Store(ctx, NewUpdate(a, "1")))
	require.NoError(t, m.Store(ctx, NewUpdate(b, "2")))

	snap, ok, err := m.Snapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	fresh := NewInMemory()
	require.NoError(t, fresh.Restore(ctx, snap))

	results, err := fresh.LoadMany(ctx, []identifiers.MemoryKey{a, b, c})
	require.NoError(t, err)
	require.Equal(t, []LoadResult{{Value: "1", Found: true}, {Value: "2", Found: true}, {}}, results)
}

func TestInMemory_TransactionCommitsAllOnSuccess(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	a, b := mustKey(t, "a"), mustKey(t, "b")

	err := m.Transaction(ctx, func(ctx context.Context, w TxWriter) error {
		require.NoError(t, w.Store(ctx, NewUpdate(a, "1")))
		require.NoError(t, w.Store(ctx, NewUpdate(b, "2")))
		return nil
	})
	require.NoError(t, err)

	va, ok, _ := m.Load(ctx, a)
	require.True(t, ok)
	require.Equal(t, "1", va)
	vb, ok, _ := m.Load(ctx, b)
	require.True(t, ok)
	require.Equal(t, "2", vb)
}

func TestInMemory_TransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	a := mustKey(t, "a")

	sentinel := errors.New("boom")
	err := m.Transaction(ctx, func(ctx context.Context, w TxWriter) error {
		require.NoError(t, w.Store(ctx, NewUpdate(a, "should-not-persist")))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, ok, _ := m.Load(ctx, a)
	require.False(t, ok)
}

func TestNamespaced_Isolation(t *testing.T) {
	ctx := context.Background()
	backing := NewInMemory()
	nsA, err := NewNamespaced("A", backing)
	require.NoError(t, err)
	nsB, err := NewNamespaced("B", backing)
	require.NoError(t, err)

	k := mustKey(t, "k")
	require.NoError(t, nsA.Store(ctx, NewUpdate(k, "1")))

	_, ok, err := nsB.Load(ctx, k)
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := nsA.Load(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)
}
