// internal/app/system/mongoconn/mongoconn.go
package mongoconn

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Availability is the capability query components use before touching the
// store. Read paths short-circuit to a degraded response when it is false.
type Availability interface {
	IsAvailable() bool
}

// Handle owns the shared Mongo client and the last observed reachability of
// the server. It is created once at process start and passed to every
// component that needs the store.
type Handle struct {
	client    *mongo.Client
	db        *mongo.Database
	available atomic.Bool
	log       *zap.Logger
}

// Connect builds the client and performs an initial ping. An unreachable
// server is not an error: the handle starts unavailable and Refresh flips it
// once the server answers. Only a malformed URI or client construction
// failure is returned.
func Connect(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Handle, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	h := &Handle{
		client: client,
		db:     client.Database(dbName),
		log:    logger,
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Warn("mongo unreachable at startup, running degraded",
			zap.String("database", dbName), zap.Error(err))
		return h, nil
	}
	h.available.Store(true)
	logger.Info("connected to MongoDB", zap.String("database", dbName))
	return h, nil
}

// FromDatabase wraps an already-connected database. Used by tests.
func FromDatabase(db *mongo.Database, available bool, logger *zap.Logger) *Handle {
	h := &Handle{client: db.Client(), db: db, log: logger}
	h.available.Store(available)
	return h
}

// IsAvailable reports the last observed store reachability.
func (h *Handle) IsAvailable() bool {
	if h == nil {
		return false
	}
	return h.available.Load()
}

// SetAvailable overrides the flag.
func (h *Handle) SetAvailable(v bool) {
	h.available.Store(v)
}

// Refresh pings the server and updates the flag. It returns true when the
// store has just transitioned from unavailable to available.
func (h *Handle) Refresh(ctx context.Context) (becameAvailable bool, err error) {
	err = h.client.Ping(ctx, readpref.Primary())
	was := h.available.Swap(err == nil)
	switch {
	case err != nil && was:
		h.log.Warn("lost connection to MongoDB", zap.Error(err))
	case err == nil && !was:
		h.log.Info("MongoDB connection restored")
		return true, nil
	}
	return false, err
}

// Database returns the application database.
func (h *Handle) Database() *mongo.Database { return h.db }

// Client returns the underlying Mongo client.
func (h *Handle) Client() *mongo.Client { return h.client }

// Disconnect closes the client and marks the store unavailable.
func (h *Handle) Disconnect(ctx context.Context) error {
	h.available.Store(false)
	return h.client.Disconnect(ctx)
}

// Static is an Availability with a fixed answer.
type Static bool

// IsAvailable implements Availability.
func (s Static) IsAvailable() bool { return bool(s) }
