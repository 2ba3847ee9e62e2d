package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Canonical collection names. Every service joins through these constants,
// so the aggregation lookups always reference the same identifiers.
const (
	ColUsers      = "users"
	ColPartisipan = "partisipan"
	ColInstitusi  = "institusi"
	ColAdmin      = "admin"
	ColDarah      = "darah"
	ColInventory  = "inventory"
	ColOrder      = "order"
)

func ConnectMongo(uri string, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Println("[OK] Connected to MongoDB")
	return client.Database(dbName), nil
}

// EnsureIndexes creates the unique indexes the data model depends on:
// email uniqueness on users and the one-profile-per-user invariant on the
// role-profile collections. Races between concurrent registrations are
// settled here, at the storage layer, not in handler code.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Collection(ColUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}

	for _, col := range []string{ColPartisipan, ColInstitusi, ColAdmin} {
		_, err := db.Collection(col).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create user_id index on %s: %w", col, err)
		}
	}

	// Non-unique reference indexes for the filter and lookup paths.
	refs := map[string][]string{
		ColDarah:     {"partisipan_id", "institusi_id"},
		ColInventory: {"institusi_id", "darah_id"},
		ColOrder:     {"partisipan_id", "inventory_id", "status"},
	}
	for col, fields := range refs {
		for _, field := range fields {
			_, err := db.Collection(col).Indexes().CreateOne(ctx, mongo.IndexModel{
				Keys: bson.D{{Key: field, Value: 1}},
			})
			if err != nil {
				return fmt.Errorf("failed to create %s index on %s: %w", field, col, err)
			}
		}
	}

	log.Println("[OK] Indexes ensured")
	return nil
}
