// Package indexmgmt creates and reconciles the search, vector and
// ordinary indexes a frozen model declares. All database access goes
// through the ClientWrapper interface; the mapping core itself never
// talks to the network.
package indexmgmt

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Search index types accepted by the server.
const (
	IndexTypeSearch       = "search"
	IndexTypeVectorSearch = "vectorSearch"
)

// SearchIndexStatus is one entry of a collection's search index listing.
type SearchIndexStatus struct {
	Name       string   `bson:"name"`
	Type       string   `bson:"type"`
	Status     string   `bson:"status"`
	Queryable  bool     `bson:"queryable"`
	Definition bson.Raw `bson:"latestDefinition"`
}

// ClientWrapper is the narrow database boundary the manager drives.
type ClientWrapper interface {
	// CreateSearchIndex creates a search or vectorSearch index from an
	// already-serialized definition document.
	CreateSearchIndex(ctx context.Context, collection, name, indexType string, definition bson.D) error

	// ListSearchIndexes returns the search indexes of a collection.
	ListSearchIndexes(ctx context.Context, collection string) ([]SearchIndexStatus, error)

	// DropSearchIndex removes a search index by name.
	DropSearchIndex(ctx context.Context, collection, name string) error

	// CreateIndex creates an ordinary collection index.
	CreateIndex(ctx context.Context, collection, name string, keys bson.D, unique, sparse bool) error
}

// DatabaseClient implements ClientWrapper over a mongo database handle.
type DatabaseClient struct {
	db *mongo.Database
}

// NewDatabaseClient wraps a mongo database handle.
func NewDatabaseClient(db *mongo.Database) *DatabaseClient {
	return &DatabaseClient{db: db}
}

// CreateSearchIndex implements ClientWrapper.
func (c *DatabaseClient) CreateSearchIndex(ctx context.Context, collection, name, indexType string, definition bson.D) error {
	view := c.db.Collection(collection).SearchIndexes()
	model := mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(name).SetType(indexType),
	}
	if _, err := view.CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create %s index %q on collection %s: %w", indexType, name, collection, err)
	}
	return nil
}

// ListSearchIndexes implements ClientWrapper.
func (c *DatabaseClient) ListSearchIndexes(ctx context.Context, collection string) ([]SearchIndexStatus, error) {
	view := c.db.Collection(collection).SearchIndexes()
	cursor, err := view.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list search indexes on collection %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var statuses []SearchIndexStatus
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode search index listing for collection %s: %w", collection, err)
	}
	return statuses, nil
}

// DropSearchIndex implements ClientWrapper.
func (c *DatabaseClient) DropSearchIndex(ctx context.Context, collection, name string) error {
	if err := c.db.Collection(collection).SearchIndexes().DropOne(ctx, name); err != nil {
		return fmt.Errorf("failed to drop search index %q on collection %s: %w", name, collection, err)
	}
	return nil
}

// CreateIndex implements ClientWrapper.
func (c *DatabaseClient) CreateIndex(ctx context.Context, collection, name string, keys bson.D, unique, sparse bool) error {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	if sparse {
		opts = opts.SetSparse(true)
	}
	model := mongo.IndexModel{Keys: keys, Options: opts}
	if _, err := c.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create index %q on collection %s: %w", name, collection, err)
	}
	return nil
}
