package ledger_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasagnafinance/stake-ledger/internal/ledger"
)

func TestRecordLayout(t *testing.T) {
	acc := ledger.StakeAccount{Amount: math.MaxUint64, LastActionTimestamp: -1}

	data, err := acc.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, ledger.RecordSize)
	assert.Equal(t, 24, ledger.RecordSize)
	assert.Equal(t, ledger.Discriminator[:], data[:ledger.DiscriminatorSize])

	var decoded ledger.StakeAccount
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, acc, decoded)
}

func TestRecordLayoutLittleEndian(t *testing.T) {
	acc := ledger.StakeAccount{Amount: 1, LastActionTimestamp: 2}
	data, err := acc.MarshalBinary()
	require.NoError(t, err)

	body := data[ledger.DiscriminatorSize:]
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}, body)
}

func TestUnmarshalInvalidRecord(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		var acc ledger.StakeAccount
		err := acc.UnmarshalBinary(make([]byte, ledger.RecordSize-1))
		require.ErrorIs(t, err, ledger.ErrInvalidRecord)
	})
	t.Run("wrong discriminator", func(t *testing.T) {
		var acc ledger.StakeAccount
		err := acc.UnmarshalBinary(make([]byte, ledger.RecordSize))
		require.ErrorIs(t, err, ledger.ErrInvalidRecord)
	})
}
