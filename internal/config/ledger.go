package config

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

type LedgerConfig struct {
	// ProgramID namespaces derived stake account addresses (base58, 32 bytes).
	ProgramID string `mapstructure:"program-id"`
	// MaxCommitAttempts bounds how often an operation is re-run after losing a
	// write race on the same stake account.
	MaxCommitAttempts uint `mapstructure:"max-commit-attempts"`
}

func (cfg *LedgerConfig) Validate() error {
	if cfg.ProgramID == "" {
		return fmt.Errorf("program-id is required")
	}
	if n := len(base58.Decode(cfg.ProgramID)); n != 32 {
		return fmt.Errorf("program-id must decode to 32 bytes, got %d", n)
	}
	if cfg.MaxCommitAttempts == 0 {
		return fmt.Errorf("max-commit-attempts must be positive")
	}

	return nil
}
