// Package ledger holds the stake account record and the three state
// transitions allowed on it. Nothing in here touches storage, the clock or the
// caller identity: the service layer passes in the current time and persists
// the result.
package ledger

import (
	"math"

	"github.com/lasagnafinance/stake-ledger/internal/types"
)

// RestakeCooldown is the minimum number of seconds between the last stake or
// restake and the next successful restake.
const RestakeCooldown int64 = 24 * 60 * 60

// StakeAccount is the per-identity stake record.
type StakeAccount struct {
	Amount              uint64
	LastActionTimestamp int64
}

// Stake adds amount to the record and stamps it with now.
func (a *StakeAccount) Stake(amount uint64, now int64) error {
	if amount == 0 {
		return types.ErrInvalidAmount
	}
	if amount > math.MaxUint64-a.Amount {
		return types.ErrOverflow
	}

	a.Amount += amount
	a.LastActionTimestamp = now
	return nil
}

// Withdraw removes amount from the record. The timestamp is left untouched.
func (a *StakeAccount) Withdraw(amount uint64) error {
	if amount == 0 || amount > a.Amount {
		return types.ErrInvalidAmount
	}

	a.Amount -= amount
	return nil
}

// Restake refreshes the timestamp once the cooldown has passed. A clock that
// went backwards yields a negative elapsed time and is rejected as well.
func (a *StakeAccount) Restake(now int64) error {
	if now-a.LastActionTimestamp < RestakeCooldown {
		return types.ErrRestakeTimeBufferNotMet
	}

	a.LastActionTimestamp = now
	return nil
}

// CooldownRemaining returns how many seconds are left before Restake succeeds.
func (a *StakeAccount) CooldownRemaining(now int64) int64 {
	remaining := RestakeCooldown - (now - a.LastActionTimestamp)
	if remaining < 0 {
		return 0
	}
	return remaining
}
