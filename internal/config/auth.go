package config

import (
	"errors"
	"time"
)

type AuthConfig struct {
	// MaxClockSkew is how far a signed request timestamp may be from the
	// server clock.
	MaxClockSkew    time.Duration `mapstructure:"max-clock-skew"`
	ReplayCacheSize int           `mapstructure:"replay-cache-size"`
}

func (cfg *AuthConfig) Validate() error {
	if cfg.MaxClockSkew <= 0 {
		return errors.New("max-clock-skew must be positive")
	}

	if cfg.ReplayCacheSize <= 0 {
		return errors.New("replay-cache-size must be positive")
	}

	return nil
}
