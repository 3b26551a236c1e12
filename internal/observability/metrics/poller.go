package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// slowPollThreshold is the duration above which a poll run is logged.
const slowPollThreshold = 5 * time.Second

type PollFunc = func(ctx context.Context) error

// RecordPollerDuration wraps f so every run is observed under the poller name.
func RecordPollerDuration(poller string, f PollFunc) PollFunc {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := f(ctx)
		duration := time.Since(startTime)

		status := Success
		if err != nil {
			status = Error
		}
		pollerDurationHistogram.WithLabelValues(poller, status.String()).Observe(duration.Seconds())

		if duration > slowPollThreshold {
			log.Ctx(ctx).Warn().
				Str("poller", poller).
				Dur("duration", duration).
				Msg("slow poll")
		}
		return err
	}
}
