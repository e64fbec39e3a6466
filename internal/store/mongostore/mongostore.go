// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/foliodev/folio/internal/store"
)

// DriverMongo is the driver name registered with the store registry.
const DriverMongo = "mongodb"

// DefaultDatabase is used when the config names no database.
const DefaultDatabase = "portfolio"

const (
	colAccounts = "admin_users"
	colProfiles = "profiles"
	colProjects = "projects"
	colSkills   = "skills"
	colContacts = "contacts"
)

func init() {
	store.Register(DriverMongo, func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return Open(ctx, cfg)
	})
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to cfg.DSN, verifies the connection and ensures indexes.
// Only the initial ping is retried; writes never are.
func Open(ctx context.Context, cfg store.Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	err = retry(connectBackOff(ctx, baseBackoff), func(attempt int) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := client.Ping(pingCtx, nil)
		if err != nil {
			slog.Warn("mongo ping failed", "attempt", attempt+1, "error", err)
		}
		return err
	})
	if err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	name := cfg.Database
	if name == "" {
		name = DefaultDatabase
	}
	s := &Store{
		client: client,
		db:     client.Database(name),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(keys ...string) []mongo.IndexModel {
		models := make([]mongo.IndexModel, 0, len(keys))
		for _, k := range keys {
			models = append(models, mongo.IndexModel{
				Keys:    bson.D{{Key: k, Value: 1}},
				Options: options.Index().SetUnique(true),
			})
		}
		return models
	}
	indexes := map[string][]mongo.IndexModel{
		colAccounts: unique("username", "email"),
		colProjects: append(unique("projectId", "slug"), mongo.IndexModel{
			Keys: bson.D{{Key: "published", Value: 1}, {Key: "order", Value: 1}},
		}),
		colSkills: unique("categoryId"),
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// objectID parses a hex ID. Malformed IDs cannot match any document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

// mapErr translates driver errors to store sentinels.
func mapErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", what, store.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

var byOrder = bson.D{{Key: "order", Value: 1}}
