package db

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetStakeStats walks all stake accounts. Amounts are stored as decimal
// strings, so the sum can't be done by a $group stage.
func (db *Database) GetStakeStats(ctx context.Context) (*model.StakeStats, error) {
	opts := options.Find().SetProjection(bson.M{"amount": 1})
	cursor, err := db.collection(model.StakeAccountCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := model.NewStakeStats()
	for cursor.Next(ctx) {
		var doc struct {
			Amount string `bson:"amount"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}

		amount, err := sdkmath.ParseUint(doc.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", doc.Amount, err)
		}
		stats.Add(amount)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
