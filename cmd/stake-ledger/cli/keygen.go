package cli

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"

	"github.com/lasagnafinance/stake-ledger/internal/types"
)

func KeygenCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generates a new identity key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = keyPath
			}

			privKey, err := btcec.NewPrivateKey()
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			if err := saveKey(out, privKey); err != nil {
				return err
			}

			identity := types.IdentityFromPubKey(privKey.PubKey())
			fmt.Fprintf(cmd.OutOrStdout(), "Key written to %s\nIdentity: %s\n", out, identity)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "where to write the key (defaults to --key)")

	return cmd
}
