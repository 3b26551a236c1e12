package db

import (
	"context"

	"github.com/lasagnafinance/stake-ledger/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error
	// GetStakeAccount returns *NotFoundError when no account lives at address.
	GetStakeAccount(ctx context.Context, address string) (*model.StakeAccountDocument, error)
	// InsertStakeAccount returns *DuplicateKeyError when the address is taken.
	InsertStakeAccount(ctx context.Context, doc *model.StakeAccountDocument) error
	// UpdateStakeAccount replaces prev with next only if the stored account
	// still equals prev, otherwise it returns *ConflictError.
	UpdateStakeAccount(ctx context.Context, prev, next *model.StakeAccountDocument) error
	GetStakeStats(ctx context.Context) (*model.StakeStats, error)
}
