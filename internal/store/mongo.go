package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore patches item records in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store backed by a MongoDB collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) PatchImage(ctx context.Context, id, url string) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"imagen": url}})
	if err != nil {
		return fmt.Errorf("mongo patch %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo patch %s: no such item", id)
	}
	return nil
}
