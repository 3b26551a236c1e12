package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lasagnafinance/stake-ledger/pkg"
)

const (
	defaultConfigFileName = "config.yml"
	defaultKeyFileName    = ".stake-ledger/key.hex"
	defaultServerURL      = "http://localhost:8080"
)

var (
	cfgPath   string
	serverURL string
	keyPath   string
	rootCmd   = &cobra.Command{
		Use:           "stake-ledger",
		Short:         "Stake tokens, withdraw them and restake once a day",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Setup() error {
	homePath, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	defaultConfigPath := getDefaultConfigFile(homePath, defaultConfigFileName)
	defaultKeyPath := filepath.Join(homePath, defaultKeyFileName)

	rootCmd.AddCommand(StartServerCmd())
	rootCmd.AddCommand(SetupDbCmd())
	rootCmd.AddCommand(KeygenCmd())
	rootCmd.AddCommand(StakeCmd())
	rootCmd.AddCommand(WithdrawCmd())
	rootCmd.AddCommand(RestakeCmd())
	rootCmd.AddCommand(ShowCmd())

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, fmt.Sprintf("config file (default %s)", defaultConfigPath))
	rootCmd.PersistentFlags().StringVar(
		&serverURL, "server", pkg.Getenv("STAKE_LEDGER_API_URL", defaultServerURL), "ledger api base url",
	)
	rootCmd.PersistentFlags().StringVar(
		&keyPath, "key", pkg.Getenv("STAKE_LEDGER_KEY_FILE", defaultKeyPath), "hex encoded private key file",
	)
	if err := rootCmd.Execute(); err != nil {
		return err
	}

	return nil
}

func getDefaultConfigFile(homePath, filename string) string {
	return filepath.Join(homePath, filename)
}

func GetConfigPath() string {
	return cfgPath
}
