package api

// StakeRequest is the body of POST /v1/stake and POST /v1/withdraw.
type StakeRequest struct {
	Identity  string `json:"identity"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// RestakeRequest is the body of POST /v1/restake.
type RestakeRequest struct {
	Identity  string `json:"identity"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type StakeAccountResponse struct {
	Identity            string `json:"identity"`
	Address             string `json:"address"`
	Amount              uint64 `json:"amount"`
	LastActionTimestamp int64  `json:"last_action_timestamp"`
	CooldownRemaining   int64  `json:"cooldown_remaining"`
}

type ErrorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// StakeStatsResponse carries the total as a decimal string since it can
// exceed uint64.
type StakeStatsResponse struct {
	Accounts    uint64 `json:"accounts"`
	TotalStaked string `json:"total_staked"`
}
