package testutil

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/lasagnafinance/stake-ledger/internal/types"
)

// RandomIdentity generates a fresh key pair and returns it together with the
// identity derived from its public key.
func RandomIdentity(t *testing.T) (*btcec.PrivateKey, types.Identity) {
	t.Helper()

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return privKey, types.IdentityFromPubKey(privKey.PubKey())
}
