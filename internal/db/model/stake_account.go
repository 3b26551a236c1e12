package model

import (
	"fmt"
	"strconv"

	"github.com/lasagnafinance/stake-ledger/internal/ledger"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

const StakeAccountCollection = "stake_accounts"

type StakeAccountDocument struct {
	Address string `bson:"_id"` // Primary key, derived from Owner
	Owner   string `bson:"owner"`
	// Amount is a decimal string: bson has no unsigned 64-bit integer
	Amount              string `bson:"amount"`
	LastActionTimestamp int64  `bson:"last_action_timestamp"`
}

func NewStakeAccountDocument(
	address ledger.Address, owner types.Identity, account ledger.StakeAccount,
) *StakeAccountDocument {
	return &StakeAccountDocument{
		Address:             address.String(),
		Owner:               owner.String(),
		Amount:              strconv.FormatUint(account.Amount, 10),
		LastActionTimestamp: account.LastActionTimestamp,
	}
}

func (d *StakeAccountDocument) ToStakeAccount() (ledger.StakeAccount, error) {
	amount, err := strconv.ParseUint(d.Amount, 10, 64)
	if err != nil {
		return ledger.StakeAccount{}, fmt.Errorf("invalid amount %q for stake account %s: %w", d.Amount, d.Address, err)
	}

	return ledger.StakeAccount{
		Amount:              amount,
		LastActionTimestamp: d.LastActionTimestamp,
	}, nil
}
