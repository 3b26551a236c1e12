package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	ClockSourceSystem = "system"
	ClockSourceNTP    = "ntp"
)

type ClockConfig struct {
	Source          string        `mapstructure:"source"`
	NTPServer       string        `mapstructure:"ntp-server"`
	NTPSyncInterval time.Duration `mapstructure:"ntp-sync-interval"`
}

func (cfg *ClockConfig) Validate() error {
	switch cfg.Source {
	case ClockSourceSystem:
		return nil
	case ClockSourceNTP:
		if cfg.NTPServer == "" {
			return errors.New("ntp-server is required for the ntp clock source")
		}
		if cfg.NTPSyncInterval <= 0 {
			return errors.New("ntp-sync-interval must be positive")
		}
		return nil
	default:
		return fmt.Errorf("unknown clock source %q", cfg.Source)
	}
}
