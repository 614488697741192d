package catalog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSource reads the catalog from a MongoDB collection, for deployments
// where the product records were migrated off the realtime database.
type MongoSource struct {
	coll *mongo.Collection
}

// NewMongoSource creates a catalog source backed by a MongoDB collection.
func NewMongoSource(coll *mongo.Collection) *MongoSource {
	return &MongoSource{coll: coll}
}

func (s *MongoSource) Name() string { return "mongo" }

func (s *MongoSource) Items(ctx context.Context) ([]Item, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo catalog find: %w", err)
	}
	defer cur.Close(ctx)

	var items []Item
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongo catalog decode: %w", err)
	}

	sortItems(items)
	return items, nil
}
