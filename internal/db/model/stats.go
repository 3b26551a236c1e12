package model

import (
	sdkmath "cosmossdk.io/math"
)

// StakeStats aggregates all stake accounts. The total can exceed uint64.
type StakeStats struct {
	Accounts    uint64
	TotalStaked sdkmath.Uint
}

func NewStakeStats() *StakeStats {
	return &StakeStats{
		TotalStaked: sdkmath.ZeroUint(),
	}
}

func (s *StakeStats) Add(amount sdkmath.Uint) {
	s.Accounts++
	s.TotalStaked = s.TotalStaked.Add(amount)
}
