package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	queuecli "github.com/babylonlabs-io/staking-queue-client/client"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/lasagnafinance/stake-ledger/internal/config"
)

const sendRetryDelay = 100 * time.Millisecond

type EventPublisher interface {
	PushStakeEvent(ctx context.Context, ev *StakeEvent) error
	Shutdown()
}

type QueueManager struct {
	cfg               *config.QueueConfig
	logger            *zap.Logger
	stakeEventsClient queuecli.QueueClient
}

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	stakeEventsClient, err := queuecli.NewQueueClient(&cfg.QueueConfig, cfg.StakeEventQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stake event queue client: %w", err)
	}
	logger.Info("connected to queue", zap.String("queue", cfg.StakeEventQueue))

	return newQueueManager(cfg, logger, stakeEventsClient), nil
}

func newQueueManager(cfg *config.QueueConfig, logger *zap.Logger, client queuecli.QueueClient) *QueueManager {
	return &QueueManager{
		cfg:               cfg,
		logger:            logger,
		stakeEventsClient: client,
	}
}

func (qm *QueueManager) PushStakeEvent(ctx context.Context, ev *StakeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal stake event: %w", err)
	}

	return retry.Do(
		func() error {
			sendCtx, cancel := context.WithTimeout(ctx, qm.cfg.QueueProcessingTimeout)
			defer cancel()
			return qm.stakeEventsClient.SendMessage(sendCtx, string(body))
		},
		retry.Context(ctx),
		retry.Attempts(uint(qm.cfg.MsgMaxRetryAttempts)),
		retry.Delay(sendRetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().
				Err(err).
				Uint("attempt", n+1).
				Str("event_id", ev.ID).
				Msg("failed to push stake event, retrying")
		}),
	)
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	qm.logger.Info("Shutting down queue manager")
	if err := qm.stakeEventsClient.Stop(); err != nil {
		qm.logger.Warn("failed to stop stake event queue client", zap.Error(err))
	}
}

// NopPublisher drops every event. Used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) PushStakeEvent(ctx context.Context, ev *StakeEvent) error {
	log.Ctx(ctx).Debug().Str("event_id", ev.ID).Msg("queue disabled, dropping stake event")
	return nil
}

func (NopPublisher) Shutdown() {}
