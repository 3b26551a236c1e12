package services

import (
	"context"

	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/utils/poller"
)

// StartClockSync blocks, keeping the ntp offset of clk fresh until ctx is done.
func (s *Service) StartClockSync(ctx context.Context, clk *clock.NTPClock) {
	syncPoller := poller.NewPoller(
		"ntp",
		s.cfg.Clock.NTPSyncInterval,
		metrics.RecordPollerDuration("ntp", func(ctx context.Context) error {
			if err := clk.Sync(ctx); err != nil {
				return err
			}
			metrics.RecordClockOffset(clk.Offset())
			return nil
		}),
	)
	syncPoller.Start(ctx)
}
