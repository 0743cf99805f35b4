package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// tabItem is one key of one tab.
type tabItem struct {
	TabID     string    `bson:"tab_id"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Storage is a TabStorage keeping one document per tab and key.
type Storage struct {
	collection *mongo.Collection
	ttl        time.Duration
	logger     logger.Logger
	now        func() time.Time
}

// NewStorage creates the storage and its indexes.
func NewStorage(ctx context.Context, db *mongo.Database, collection string, ttl time.Duration, log logger.Logger) (*Storage, error) {
	if db == nil {
		return nil, errors.New("mongo database cannot be nil")
	}
	if ttl <= 0 {
		return nil, errors.New("tab ttl must be positive")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Storage{
		collection: db.Collection(collection),
		ttl:        ttl,
		logger:     log.WithComponent("mongo_tab_storage"),
		now:        time.Now,
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tab_id", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Documents are removed by the server once expires_at has passed.
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create tab storage indexes: %w", err)
	}

	return s, nil
}

func itemFilter(tabID, key string) bson.M {
	return bson.M{"tab_id": tabID, "key": key}
}

// GetItem reads key of tab. The TTL monitor runs about once a minute, so
// expired documents are filtered out here as well.
func (s *Storage) GetItem(ctx context.Context, tabID, key string) (string, bool, error) {
	if tabID == "" {
		return "", false, model.ErrTabIDRequired
	}

	now := s.now()
	filter := itemFilter(tabID, key)
	filter["expires_at"] = bson.M{"$gt": now}
	update := bson.M{"$set": bson.M{"expires_at": now.Add(s.ttl)}}

	var doc tabItem
	err := s.collection.FindOneAndUpdate(ctx, filter, update).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read tab item",
			zap.String("tabID", tabID),
			zap.String("key", key),
			zap.Error(err))
		return "", false, fmt.Errorf("find tab item: %w", err)
	}
	return doc.Value, true, nil
}

// SetItem upserts key of tab.
func (s *Storage) SetItem(ctx context.Context, tabID, key, value string) error {
	if tabID == "" {
		return model.ErrTabIDRequired
	}

	now := s.now()
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": now,
			"expires_at": now.Add(s.ttl),
		},
		"$setOnInsert": bson.M{"tab_id": tabID, "key": key},
	}

	_, err := s.collection.UpdateOne(ctx, itemFilter(tabID, key), update, options.Update().SetUpsert(true))
	if err != nil {
		s.logger.Error("Failed to write tab item",
			zap.String("tabID", tabID),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("upsert tab item: %w", err)
	}
	return nil
}

// RemoveItem deletes key of tab.
func (s *Storage) RemoveItem(ctx context.Context, tabID, key string) error {
	if tabID == "" {
		return model.ErrTabIDRequired
	}

	if _, err := s.collection.DeleteOne(ctx, itemFilter(tabID, key)); err != nil {
		s.logger.Error("Failed to remove tab item",
			zap.String("tabID", tabID),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("delete tab item: %w", err)
	}
	return nil
}

// Ping checks the connection to the primary.
func (s *Storage) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, readpref.Primary())
}
