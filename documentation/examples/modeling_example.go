//go:build example

// Package main demonstrates modeling and index management in go-mongomap.
//
// This example shows how to:
// 1. Register entity structs and let conventions derive the document shape
// 2. Refine the mapping with the fluent builder
// 3. Declare search and vector indexes on the model
// 4. Reconcile the declared indexes against a live database
//
// Note: This is a standalone example file. Point MONGODB_URI at a
// deployment that supports search indexes before running it.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	mongomap "github.com/nlstn/go-mongomap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Example 1: Convention-Based Modeling
// ====================================

// Review is embedded in Product documents as an array element.
type Review struct {
	Author  string
	Rating  int
	Comment string
}

// Supplier lives in its own collection; Product references it.
type Supplier struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name string
}

// Product is a document root. Its Embedding field feeds a vector index.
type Product struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string
	Price       float64
	CreatedAt   time.Time
	Reviews     []Review
	Supplier    *Supplier `mongomap:"ref"`
	Embedding   []float64
}

func buildModel() (*mongomap.Model, error) {
	builder := mongomap.NewModelBuilder()
	builder.Entity(&Supplier{})

	products := builder.Entity(&Product{})
	products.ToCollection("products")
	products.Property("Description").HasElementName("description")
	products.OwnsMany("Reviews", func(reviews *mongomap.EntityTypeBuilder) {
		reviews.HasContainingElementName("customer_reviews")
	})

	// Example 2: Search Index Declaration
	// ===================================

	search := products.HasSearchIndex("product_search")
	search.StringMember("Name").Analyzer = "lucene.standard"
	search.AutocompleteMember("Name")
	search.EmbeddedMember("Reviews", func(reviews *mongomap.SearchFieldsBuilder) {
		reviews.StringMember("Comment")
		reviews.NumberMember("Rating")
	})
	search.IncludeStoredSource("Name")

	// Example 3: Vector Index Declaration
	// ===================================

	products.
		HasVectorIndex("Embedding", 1536, mongomap.SimilarityCosine, "Price").
		HasName("product_embeddings").
		HasQuantization("scalar")

	products.HasIndex("Name").IsUnique()

	return builder.Build()
}

// Example 4: Index Reconciliation and Vector Search
// =================================================

func main() {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	model, err := buildModel()
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Disconnect(ctx)

	manager := model.NewIndexManager(mongomap.NewDatabaseClient(client.Database("shop")))
	if err := manager.VerifySearchSupport(ctx, "products"); err != nil {
		log.Fatalf("Search indexes are unavailable: %v", err)
	}
	if err := manager.EnsureIndexesSync(model.Metadata(), 2*time.Minute); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	stage, err := model.VectorSearchStageFor(&Product{}, "Embedding", queryEmbedding(), mongomap.VectorSearchOptions{
		IndexName: "product_embeddings",
		Limit:     10,
		Filter:    bson.D{{Key: "price", Value: bson.D{{Key: "$lt", Value: 100.0}}}},
	})
	if err != nil {
		log.Fatalf("Failed to build stage: %v", err)
	}

	cursor, err := client.Database("shop").Collection("products").Aggregate(ctx, mongo.Pipeline{stage})
	if err != nil {
		log.Fatalf("Aggregation failed: %v", err)
	}
	defer cursor.Close(ctx)

	var results []Product
	if err := cursor.All(ctx, &results); err != nil {
		log.Fatalf("Failed to decode results: %v", err)
	}
	for _, p := range results {
		fmt.Printf("%s (%.2f)\n", p.Name, p.Price)
	}
}

func queryEmbedding() []float64 {
	vector := make([]float64, 1536)
	for i := range vector {
		vector[i] = float64(i%7) / 7
	}
	return vector
}
