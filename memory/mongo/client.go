// Package mongo implements a supplemental durable memory backend over
// MongoDB, document-per-key, with a Client interface seam so the backend is
// testable without a live Mongo deployment.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Options configures the backend's connection to Mongo.
type Options struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

func (o Options) validate() error {
	if o.URI == "" {
		return errEmptyField("uri")
	}
	if o.Database == "" {
		return errEmptyField("database")
	}
	if o.Collection == "" {
		return errEmptyField("collection")
	}
	return nil
}

func errEmptyField(name string) error { return &emptyFieldError{field: name} }

type emptyFieldError struct{ field string }

func (e *emptyFieldError) Error() string { return "mongo options: " + e.field + " must not be empty" }

// SingleResult is the minimal surface of *mongo.SingleResult the backend
// needs, letting tests substitute a fake.
type SingleResult interface {
	Decode(v any) error
	Err() error
}

// Cursor is the minimal surface of *mongo.Cursor the backend needs.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(v any) error
	Close(ctx context.Context) error
	Err() error
}

// Collection is the minimal surface of *mongo.Collection the backend
// depends on, mirroring the reference client's abstraction over
// FindOne/UpdateOne/Indexes so a fake collection can stand in for tests.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) SingleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any) (*mongo.DeleteResult, error)
	Find(ctx context.Context, filter any) (Cursor, error)
	Indexes() mongo.IndexView
}

// mongoSingleResult adapts *mongo.SingleResult to the SingleResult seam.
type mongoSingleResult struct{ inner *mongo.SingleResult }

func (r mongoSingleResult) Decode(v any) error { return r.inner.Decode(v) }
func (r mongoSingleResult) Err() error         { return r.inner.Err() }

// mongoCollection adapts *mongo.Collection to the Collection seam.
type mongoCollection struct{ inner *mongo.Collection }

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) SingleResult {
	return mongoSingleResult{inner: c.inner.FindOne(ctx, filter, opts...)}
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	return c.inner.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) DeleteOne(ctx context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.inner.DeleteOne(ctx, filter)
}

func (c mongoCollection) DeleteMany(ctx context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.inner.DeleteMany(ctx, filter)
}

func (c mongoCollection) Find(ctx context.Context, filter any) (Cursor, error) {
	return c.inner.Find(ctx, filter)
}

func (c mongoCollection) Indexes() mongo.IndexView { return c.inner.Indexes() }

// Connect dials Mongo and returns the Collection seam the backend will use.
func Connect(ctx context.Context, opts Options) (Collection, func(context.Context) error, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}

	coll := mongoCollection{inner: client.Database(opts.Database).Collection(opts.Collection)}
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}

	return coll, client.Disconnect, nil
}
