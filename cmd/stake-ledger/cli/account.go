package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lasagnafinance/stake-ledger/internal/api"
	"github.com/lasagnafinance/stake-ledger/internal/clients/ledgerclient"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

func StakeCmd() *cobra.Command {
	var amount uint64

	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Stakes tokens",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(keyPath)
			if err != nil {
				return err
			}

			account, err := ledgerclient.New(serverURL).Stake(cmd.Context(), key, amount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully staked %d tokens.\n", amount)
			printAccount(out, account)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount of tokens to stake")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func WithdrawCmd() *cobra.Command {
	var amount uint64

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraws staked tokens",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(keyPath)
			if err != nil {
				return err
			}

			account, err := ledgerclient.New(serverURL).Withdraw(cmd.Context(), key, amount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully withdrew %d tokens.\n", amount)
			printAccount(out, account)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount of tokens to withdraw")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func RestakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restake",
		Short: "Restakes tokens, at most once every 24 hours",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(keyPath)
			if err != nil {
				return err
			}

			account, err := ledgerclient.New(serverURL).Restake(cmd.Context(), key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Successfully restaked tokens.")
			printAccount(out, account)
			return nil
		},
	}
}

func ShowCmd() *cobra.Command {
	var identityStr string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Shows a stake account, by default the one of --key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var identity types.Identity
			if identityStr != "" {
				parsed, err := types.ParseIdentity(identityStr)
				if err != nil {
					return fmt.Errorf("invalid identity: %w", err)
				}
				identity = parsed
			} else {
				key, err := loadKey(keyPath)
				if err != nil {
					return err
				}
				identity = types.IdentityFromPubKey(key.PubKey())
			}

			account, err := ledgerclient.New(serverURL).GetStakeAccount(cmd.Context(), identity)
			if err != nil {
				return err
			}

			printAccount(cmd.OutOrStdout(), account)
			return nil
		},
	}
	cmd.Flags().StringVar(&identityStr, "identity", "", "identity to look up (base58)")

	return cmd
}

func printAccount(w io.Writer, account *api.StakeAccountResponse) {
	fmt.Fprintf(w, "Identity:           %s\n", account.Identity)
	fmt.Fprintf(w, "Stake account:      %s\n", account.Address)
	fmt.Fprintf(w, "Staked amount:      %d\n", account.Amount)
	fmt.Fprintf(w, "Last action:        %d\n", account.LastActionTimestamp)
	if account.CooldownRemaining > 0 {
		fmt.Fprintf(w, "Restake available in %ds\n", account.CooldownRemaining)
	} else {
		fmt.Fprintln(w, "Restake available now")
	}
}
