package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lasagnafinance/stake-ledger/internal/config"
	dbmodel "github.com/lasagnafinance/stake-ledger/internal/db/model"
)

func SetupDbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-db",
		Short: "Creates the mongo collections and indexes of the stake ledger",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(GetConfigPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Store.Backend != config.StoreBackendMongo {
				return fmt.Errorf("setup-db only applies to the %q backend", config.StoreBackendMongo)
			}

			if err := dbmodel.Setup(cmd.Context(), &cfg.Db); err != nil {
				return err
			}

			log.Info().Str("db", cfg.Db.DbName).Msg("Database is set up")
			return nil
		},
	}
}
