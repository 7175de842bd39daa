package mongo

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/memory"
	"github.com/skreaver-dev/skreaver/telemetry"
)

// entryDocument is the on-disk shape of one memory entry.
type entryDocument struct {
	Key       string `bson:"key"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

// Store is the reference Mongo-backed memory.ReaderWriter/SnapshotableMemory
// implementation, grounded on the teacher's document-per-key Mongo store.
type Store struct {
	coll Collection

	logger telemetry.Logger
	guard  *telemetry.CardinalityGuard
}

var (
	_ memory.ReaderWriter       = (*Store)(nil)
	_ memory.SnapshotableMemory = (*Store)(nil)
)

// Option configures optional Store telemetry.
type Option func(*Store)

// WithLogger configures the logger used to report cardinality-guard
// rejections. When unset, Store uses a noop logger.
func WithLogger(logger telemetry.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore wraps an already-connected Collection.
func NewStore(coll Collection, opts ...Option) *Store {
	s := &Store{coll: coll, logger: telemetry.NoopLogger{}, guard: telemetry.NewCardinalityGuard()}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

func (s *Store) checkOpClass(ctx context.Context, opClass string) {
	if err := s.guard.Check(telemetry.DimensionMemoryOpClass, opClass); err != nil {
		s.logger.Warn(ctx, "memory op class cardinality bound exceeded", "op_class", opClass, "error", err.Error())
	}
}

func (s *Store) Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error) {
	s.checkOpClass(ctx, "read")
	var doc entryDocument
	err := s.coll.FindOne(ctx, bson.M{"key": key.String()}).Decode(&doc)
	if err == driver.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.IoError, skerrors.OpLoad, skerrors.BackendMongo, "find one", err).WithKey(key.String())
	}
	return doc.Value, true, nil
}

func (s *Store) LoadMany(ctx context.Context, keys []identifiers.MemoryKey) ([]memory.LoadResult, error) {
	results := make([]memory.LoadResult, len(keys))
	for i, k := range keys {
		v, ok, err := s.Load(ctx, k)
		if err != nil {
			return nil, err
		}
		results[i] = memory.LoadResult{Value: v, Found: ok}
	}
	return results, nil
}

func (s *Store) Store(ctx context.Context, update memory.Update) error {
	s.checkOpClass(ctx, "write")
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"key": update.Key.String()},
		bson.M{"$set": entryDocument{Key: update.Key.String(), Value: update.Value, UpdatedAt: time.Now().UTC().Unix()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return skerrors.Wrap(skerrors.IoError, skerrors.OpStore, skerrors.BackendMongo, "upsert", err).WithKey(update.Key.String())
	}
	return nil
}

func (s *Store) StoreMany(ctx context.Context, updates []memory.Update) error {
	for _, u := range updates {
		if err := s.Store(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context) (string, bool, error) {
	s.checkOpClass(ctx, "snapshot")
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.IoError, skerrors.OpSnapshot, skerrors.BackendMongo, "find all", err)
	}
	defer cursor.Close(ctx)

	dump := make(map[string]string)
	for cursor.Next(ctx) {
		var doc entryDocument
		if err := cursor.Decode(&doc); err != nil {
			return "", false, skerrors.Wrap(skerrors.IoError, skerrors.OpSnapshot, skerrors.BackendMongo, "decode document", err)
		}
		dump[doc.Key] = doc.Value
	}
	if len(dump) == 0 {
		return "", false, nil
	}
	b, err := json.Marshal(dump)
	if err != nil {
		return "", false, skerrors.Wrap(skerrors.SerializationError, skerrors.OpSnapshot, skerrors.BackendMongo, "marshal", err)
	}
	return string(b), true, nil
}

func (s *Store) Restore(ctx context.Context, snapshot string) error {
	s.checkOpClass(ctx, "restore")
	var decoded map[string]string
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		return skerrors.Wrap(skerrors.SerializationError, skerrors.OpRestore, skerrors.BackendMongo, "unmarshal", err)
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return skerrors.Wrap(skerrors.IoError, skerrors.OpRestore, skerrors.BackendMongo, "clear collection", err)
	}
	for k, v := range decoded {
		key, err := identifiers.ParseMemoryKey(k)
		if err != nil {
			return skerrors.Wrap(skerrors.InvalidKey, skerrors.OpRestore, skerrors.BackendMongo, "invalid key in snapshot", err)
		}
		if err := s.Store(ctx, memory.NewUpdate(key, v)); err != nil {
			return err
		}
	}
	return nil
}
