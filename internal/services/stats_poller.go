package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/types"
	"github.com/lasagnafinance/stake-ledger/internal/utils/poller"
)

// StartStatsPoller blocks, refreshing the stake gauges until ctx is done.
func (s *Service) StartStatsPoller(ctx context.Context) {
	statsPoller := poller.NewPoller(
		"stats",
		s.cfg.Poller.StatsPollingInterval,
		metrics.RecordPollerDuration("stats", s.calculateAndUpdateStats),
	)
	statsPoller.Start(ctx)
}

// GetStakeStats aggregates all stake accounts.
func (s *Service) GetStakeStats(ctx context.Context) (*model.StakeStats, *types.Error) {
	stats, err := s.db.GetStakeStats(ctx)
	if err != nil {
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to calculate stake stats: %w", err))
	}
	return stats, nil
}

func (s *Service) calculateAndUpdateStats(ctx context.Context) error {
	log := log.Ctx(ctx)

	startTime := time.Now()
	stats, err := s.GetStakeStats(ctx)
	if err != nil {
		return err
	}

	log.Debug().
		Dur("aggregation_duration_ms", time.Since(startTime)).
		Uint64("accounts", stats.Accounts).
		Str("total_staked", stats.TotalStaked.String()).
		Msg("Stats aggregation completed")

	metrics.RecordStakeStats(stats.Accounts, stats.TotalStaked.BigInt())
	return nil
}
