package config

import (
	"errors"
	"fmt"

	queue "github.com/babylonlabs-io/staking-queue-client/config"
)

const (
	QueueTypeQuorum  = "quorum"
	QueueTypeClassic = "classic"
)

type QueueConfig struct {
	// Enabled turns stake event publishing on. When off events are dropped.
	Enabled           bool   `mapstructure:"enabled"`
	StakeEventQueue   string `mapstructure:"stake-event-queue"`
	queue.QueueConfig `mapstructure:",squash"`
}

func (cfg *QueueConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.StakeEventQueue == "" {
		return errors.New("missing stake-event-queue name")
	}

	if cfg.QueueUser == "" || cfg.QueuePassword == "" {
		return errors.New("missing queue credentials")
	}

	if cfg.Url == "" {
		return errors.New("missing queue url")
	}

	if cfg.QueueProcessingTimeout <= 0 {
		return errors.New("processing_timeout must be positive")
	}

	if cfg.MsgMaxRetryAttempts <= 0 {
		return errors.New("msg_max_retry_attempts must be positive")
	}

	if cfg.ReQueueDelayTime <= 0 {
		return errors.New("requeue_delay_time must be positive")
	}

	if cfg.QueueType != QueueTypeQuorum && cfg.QueueType != QueueTypeClassic {
		return fmt.Errorf("unknown queue_type %q", cfg.QueueType)
	}

	return nil
}
