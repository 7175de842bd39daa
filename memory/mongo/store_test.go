package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/memory"
)

// fakeCollection is an in-memory stand-in for the real Collection seam,
// keyed the same way the live Mongo collection is (one document per key),
// so Store/Load/Snapshot/Restore can be exercised without a live Mongo.
type fakeCollection struct {
	docs map[string]entryDocument
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]entryDocument)}
}

func filterKey(filter any) (string, bool) {
	m, ok := filter.(bson.M)
	if !ok {
		return "", false
	}
	k, ok := m["key"].(string)
	return k, ok
}

type fakeSingleResult struct {
	doc entryDocument
	err error
}

func (r fakeSingleResult) Decode(v any) error {
	if r.err != nil {
		return r.err
	}
	out, ok := v.(*entryDocument)
	if !ok {
		return errEmptyField("decode target")
	}
	*out = r.doc
	return nil
}
func (r fakeSingleResult) Err() error { return r.err }

func (c *fakeCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) SingleResult {
	key, ok := filterKey(filter)
	if !ok {
		return fakeSingleResult{err: driver.ErrNoDocuments}
	}
	doc, found := c.docs[key]
	if !found {
		return fakeSingleResult{err: driver.ErrNoDocuments}
	}
	return fakeSingleResult{doc: doc}
}

func (c *fakeCollection) UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*driver.UpdateResult, error) {
	key, _ := filterKey(filter)

	upsert := false
	for _, o := range opts {
		b, ok := o.(*options.UpdateOneOptionsBuilder)
		if !ok {
			continue
		}
		built, err := b.List()
		if err == nil && built.Upsert != nil && *built.Upsert {
			upsert = true
		}
	}

	_, existed := c.docs[key]
	if !existed && !upsert {
		return &driver.UpdateResult{MatchedCount: 0, ModifiedCount: 0}, nil
	}

	setM, ok := update.(bson.M)
	if !ok {
		return nil, errEmptyField("update document")
	}
	doc, ok := setM["$set"].(entryDocument)
	if !ok {
		return nil, errEmptyField("$set payload")
	}
	c.docs[key] = doc
	return &driver.UpdateResult{MatchedCount: 1, ModifiedCount: 1, UpsertedCount: 1}, nil
}

func (c *fakeCollection) DeleteOne(ctx context.Context, filter any) (*driver.DeleteResult, error) {
	key, _ := filterKey(filter)
	if _, ok := c.docs[key]; ok {
		delete(c.docs, key)
		return &driver.DeleteResult{DeletedCount: 1}, nil
	}
	return &driver.DeleteResult{}, nil
}

func (c *fakeCollection) DeleteMany(ctx context.Context, filter any) (*driver.DeleteResult, error) {
	n := int64(len(c.docs))
	c.docs = make(map[string]entryDocument)
	return &driver.DeleteResult{DeletedCount: n}, nil
}

type fakeCursor struct {
	docs []entryDocument
	pos  int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}
func (c *fakeCursor) Decode(v any) error {
	out, ok := v.(*entryDocument)
	if !ok {
		return errEmptyField("decode target")
	}
	*out = c.docs[c.pos-1]
	return nil
}
func (c *fakeCursor) Close(ctx context.Context) error { return nil }
func (c *fakeCursor) Err() error                      { return nil }

func (c *fakeCollection) Find(ctx context.Context, filter any) (Cursor, error) {
	docs := make([]entryDocument, 0, len(c.docs))
	for _, d := range c.docs {
		docs = append(docs, d)
	}
	return &fakeCursor{docs: docs}, nil
}

func (c *fakeCollection) Indexes() driver.IndexView { return driver.IndexView{} }

var _ Collection = (*fakeCollection)(nil)

func mustKey(t *testing.T, raw string) identifiers.MemoryKey {
	t.Helper()
	k, err := identifiers.ParseMemoryKey(raw)
	require.NoError(t, err)
	return k
}

func TestStore_Store_UpsertsNewKey(t *testing.T) {
	coll := newFakeCollection()
	store := NewStore(coll)

	key := mustKey(t, "last_input")
	require.NoError(t, store.Store(context.Background(), memory.NewUpdate(key, "hello")))

	value, found, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "hello", value)
}

func TestStore_Load_MissingKey(t *testing.T) {
	store := NewStore(newFakeCollection())
	_, found, err := store.Load(context.Background(), mustKey(t, "missing"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestStore_Snapshot_Restore_RoundTrip(t *testing.T) {
	coll := newFakeCollection()
	store := NewStore(coll)

	require.NoError(t, store.Store(context.Background(), memory.NewUpdate(mustKey(t, "a"), "1")))
	require.NoError(t, store.Store(context.Background(), memory.NewUpdate(mustKey(t, "b"), "2")))

	snapshot, ok, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Store(context.Background(), memory.NewUpdate(mustKey(t, "c"), "3")))
	require.NoError(t, store.Restore(context.Background(), snapshot))

	_, found, err := store.Load(context.Background(), mustKey(t, "c"))
	require.NoError(t, err)
	require.False(t, found, "restore must clear keys absent from the snapshot")

	value, found, err := store.Load(context.Background(), mustKey(t, "a"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "1", value)
}

func TestEntryDocument_RoundTripsValue(t *testing.T) {
	key := mustKey(t, "last_input")
	update := memory.NewUpdate(key, "hello")
	doc := entryDocument{Key: update.Key.String(), Value: update.Value}
	require.Equal(t, "last_input", doc.Key)
	require.Equal(t, "hello", doc.Value)
}

func TestOptions_Validate_RejectsEmptyFields(t *testing.T) {
	require.Error(t, (Options{}).validate())
	require.Error(t, (Options{URI: "mongodb://localhost:27017"}).validate())
	require.Error(t, (Options{URI: "mongodb://localhost:27017", Database: "skreaver"}).validate())
	require.NoError(t, (Options{URI: "mongodb://localhost:27017", Database: "skreaver", Collection: "memory"}).validate())
}
