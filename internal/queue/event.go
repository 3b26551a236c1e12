package queue

import (
	"github.com/google/uuid"
)

type StakeEventType string

const (
	StakedEventType    StakeEventType = "STAKED"
	WithdrawnEventType StakeEventType = "WITHDRAWN"
	RestakedEventType  StakeEventType = "RESTAKED"
)

// StakeEvent is published after a stake account change is committed.
type StakeEvent struct {
	ID                  string         `json:"id"`
	EventType           StakeEventType `json:"event_type"`
	Identity            string         `json:"identity"`
	Address             string         `json:"address"`
	Delta               uint64         `json:"delta"`
	Amount              uint64         `json:"amount"`
	LastActionTimestamp int64          `json:"last_action_timestamp"`
}

func NewStakeEvent(
	eventType StakeEventType, identity, address string, delta, amount uint64, lastActionTimestamp int64,
) *StakeEvent {
	return &StakeEvent{
		ID:                  uuid.New().String(),
		EventType:           eventType,
		Identity:            identity,
		Address:             address,
		Delta:               delta,
		Amount:              amount,
		LastActionTimestamp: lastActionTimestamp,
	}
}
