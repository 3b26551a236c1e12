package cli

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasagnafinance/stake-ledger/internal/api"
	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/db/leveldb"
	"github.com/lasagnafinance/stake-ledger/internal/queue"
	"github.com/lasagnafinance/stake-ledger/internal/services"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

func startLedger(t *testing.T) {
	t.Helper()

	cfg := &config.Config{
		Ledger: config.LedgerConfig{
			ProgramID:         "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
			MaxCommitAttempts: 3,
		},
		Auth: config.AuthConfig{
			MaxClockSkew:    time.Minute,
			ReplayCacheSize: 64,
		},
	}
	store, err := leveldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	service, err := services.NewService(cfg, store, clock.SystemClock{}, queue.NopPublisher{})
	require.NoError(t, err)
	verifier, err := auth.NewVerifier(&cfg.Auth, clock.SystemClock{})
	require.NoError(t, err)

	server := httptest.NewServer(api.NewRouter(service, verifier))
	t.Cleanup(server.Close)

	prevServer, prevKey := serverURL, keyPath
	t.Cleanup(func() {
		serverURL, keyPath = prevServer, prevKey
	})
	serverURL = server.URL
	keyPath = filepath.Join(t.TempDir(), "key.hex")
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestAccountCommands(t *testing.T) {
	startLedger(t)

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, saveKey(keyPath, privKey))
	identity := types.IdentityFromPubKey(privKey.PubKey())

	out, err := run(t, StakeCmd(), "--amount", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully staked 100 tokens.")
	assert.Contains(t, out, identity.String())

	out, err = run(t, WithdrawCmd(), "--amount", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully withdrew 40 tokens.")
	assert.Contains(t, out, "Staked amount:      60")

	_, err = run(t, WithdrawCmd(), "--amount", "61")
	require.Error(t, err)
	assert.Equal(t, "Invalid amount", err.Error())

	_, err = run(t, RestakeCmd())
	require.Error(t, err)
	assert.Equal(t, "Restake time buffer not met", err.Error())

	out, err = run(t, ShowCmd(), "--identity", identity.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Staked amount:      60")
	assert.Contains(t, out, "Restake available in")

	_, err = run(t, StakeCmd())
	require.Error(t, err, "amount flag is required")
}

func TestKeygenCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "fresh.hex")

	stdout, err := run(t, KeygenCmd(), "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Identity: ")

	privKey, err := loadKey(out)
	require.NoError(t, err)
	assert.Contains(t, stdout, types.IdentityFromPubKey(privKey.PubKey()).String())

	_, err = run(t, KeygenCmd(), "--out", out)
	require.Error(t, err)
}

// the cli never calls metrics.Init, so neither does this test package
func TestKeygenThenStake(t *testing.T) {
	startLedger(t)

	_, err := run(t, KeygenCmd(), "--out", keyPath)
	require.NoError(t, err)

	out, err := run(t, StakeCmd(), "--amount", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully staked 100 tokens.")
}
