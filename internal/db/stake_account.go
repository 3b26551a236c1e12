package db

import (
	"context"
	"errors"

	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) GetStakeAccount(ctx context.Context, address string) (*model.StakeAccountDocument, error) {
	var doc model.StakeAccountDocument
	err := db.collection(model.StakeAccountCollection).
		FindOne(ctx, bson.M{"_id": address}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     address,
				Message: "stake account not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) InsertStakeAccount(ctx context.Context, doc *model.StakeAccountDocument) error {
	_, err := db.collection(model.StakeAccountCollection).InsertOne(ctx, doc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     doc.Address,
						Message: "stake account already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) UpdateStakeAccount(ctx context.Context, prev, next *model.StakeAccountDocument) error {
	filter := bson.M{
		"_id":                   prev.Address,
		"amount":                prev.Amount,
		"last_action_timestamp": prev.LastActionTimestamp,
	}
	update := bson.M{
		"$set": bson.M{
			"amount":                next.Amount,
			"last_action_timestamp": next.LastActionTimestamp,
		},
	}

	res, err := db.collection(model.StakeAccountCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &ConflictError{
			Key:     prev.Address,
			Message: "stake account not found or changed since it was read",
		}
	}

	return nil
}
