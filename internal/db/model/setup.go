package model

import (
	"context"
	"fmt"
	"time"

	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	StakeAccountCollection: {
		{Indexes: map[string]int{"owner": 1}, Unique: true},
	},
}

// Setup creates the collections and indexes the ledger relies on. It is safe
// to run against an already set up database.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOpts := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect from mongo")
		}
	}()

	database := client.Database(cfg.DbName)

	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for collection, idxs := range collections {
		if err := createCollection(ctx, database, collection); err != nil {
			return err
		}
		for _, idx := range idxs {
			if err := createIndex(ctx, database, collection, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and Indexes created successfully.")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	names, err := database.ListCollectionNames(ctx, bson.M{"name": collectionName})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) > 0 {
		log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("collection already exists")
		return nil
	}

	if err := database.CreateCollection(ctx, collectionName); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("collection created")
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	if len(idx.Indexes) == 0 {
		return nil
	}

	keys := bson.D{}
	for field, order := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: order})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index on collection %s: %w", collectionName, err)
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("index created")
	return nil
}
