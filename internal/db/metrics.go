package db

import (
	"context"
	"time"

	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) GetStakeAccount(ctx context.Context, address string) (result *model.StakeAccountDocument, err error) {
	//nolint:errcheck
	d.run("GetStakeAccount", func() error {
		result, err = d.db.GetStakeAccount(ctx, address)
		return err
	})
	return
}

func (d *DbWithMetrics) InsertStakeAccount(ctx context.Context, doc *model.StakeAccountDocument) error {
	return d.run("InsertStakeAccount", func() error {
		return d.db.InsertStakeAccount(ctx, doc)
	})
}

func (d *DbWithMetrics) UpdateStakeAccount(ctx context.Context, prev, next *model.StakeAccountDocument) error {
	return d.run("UpdateStakeAccount", func() error {
		return d.db.UpdateStakeAccount(ctx, prev, next)
	})
}

func (d *DbWithMetrics) GetStakeStats(ctx context.Context) (result *model.StakeStats, err error) {
	//nolint:errcheck
	d.run("GetStakeStats", func() error {
		result, err = d.db.GetStakeStats(ctx)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	// a missing account is an expected answer, not a failing query
	failure := err != nil && !IsNotFoundError(err)
	metrics.RecordDbLatency(duration, method, failure)
	return err
}
