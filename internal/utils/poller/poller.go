package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Poller struct {
	name       string
	interval   time.Duration
	quit       chan struct{}
	pollMethod func(ctx context.Context) error
}

func NewPoller(name string, interval time.Duration, pollMethod func(ctx context.Context) error) *Poller {
	return &Poller{
		name:       name,
		interval:   interval,
		quit:       make(chan struct{}),
		pollMethod: pollMethod,
	}
}

// Start blocks until ctx is cancelled or Stop is called. The poll method runs
// once right away, then on every tick.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log := log.Ctx(ctx).With().Str("poller", p.name).Logger()
	log.Info().Msgf("Starting poller with interval %s", p.interval)

	p.poll(ctx)
	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			log.Info().Msg("Poller stopped due to context cancellation")
			return
		case <-p.quit:
			log.Info().Msg("Poller stopped")
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	log.Ctx(ctx).Debug().Str("poller", p.name).Msg("Executing poll method")
	if err := p.pollMethod(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("poller", p.name).Msg("Error polling")
	} else {
		log.Ctx(ctx).Debug().Str("poller", p.name).Msg("Poll method executed successfully")
	}
}

func (p *Poller) Stop() {
	close(p.quit)
}
