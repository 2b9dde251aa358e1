// Package mongodb is the MongoDB document store.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"expense-tracker/api/logger"
	"expense-tracker/api/repository"
)

const (
	UserCollection    = "users"
	ExpenseCollection = "expenses"
	GoalCollection    = "goals"
)

// Store implements repository.Store on one MongoDB database.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

var _ repository.Store = (*Store)(nil)

// Connect opens a client for uri, verifies it with a ping and ensures the
// collection indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}

	s := &Store{client: client, database: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Get().Error("failed to reach MongoDB", zap.String("database", database), zap.Error(err))
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Get().Info("successfully connected to MongoDB", zap.String("database", database))
	return s, nil
}

// EnsureIndexes creates the indexes the store's queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		UserCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ExpenseCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "isRecurring", Value: 1}, {Key: "nextOccurrence", Value: 1}}},
		},
		GoalCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return storeError("creating "+name+" indexes", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return storeError("ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Get().Error("failed to disconnect from MongoDB", zap.Error(err))
		return err
	}
	logger.Get().Info("successfully disconnected from MongoDB")
	return nil
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

func newID() string {
	return bson.NewObjectID().Hex()
}

// ownedBy is the compound filter every owner-scoped lookup uses.
func ownedBy(id, owner string) bson.M {
	return bson.M{"_id": id, "user": owner}
}

// storeError maps driver errors onto the repository sentinels.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%s: %w: %w", op, repository.ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
