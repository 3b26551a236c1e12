package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lasagnafinance/stake-ledger/internal/api"
	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/db"
	"github.com/lasagnafinance/stake-ledger/internal/db/leveldb"
	dbmodel "github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/observability/tracing"
	"github.com/lasagnafinance/stake-ledger/internal/queue"
	"github.com/lasagnafinance/stake-ledger/internal/services"
)

const shutdownTimeout = 10 * time.Second

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the stake ledger api server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	dbClient, closeDb, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	defer closeDb()

	clk, ntpClock := newClock(ctx, &cfg.Clock)

	// Create a basic zap logger
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating zap logger")
	}
	defer func() {
		// syncing stderr fails on some platforms, nothing to do about it
		_ = zapLogger.Sync()
	}()

	var publisher queue.EventPublisher = queue.NopPublisher{}
	if cfg.Queue.Enabled {
		publisher, err = queue.NewQueueManager(&cfg.Queue, zapLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize queue manager")
		}
	}
	defer publisher.Shutdown()

	service, err := services.NewService(cfg, dbClient, clk, publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}

	verifier, err := auth.NewVerifier(&cfg.Auth, clk)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating request verifier")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	server := api.New(&cfg.Server, service, verifier)

	var wg conc.WaitGroup
	wg.Go(func() {
		service.StartStatsPoller(ctx)
	})
	if ntpClock != nil {
		wg.Go(func() {
			service.StartClockSync(ctx, ntpClock)
		})
	}
	wg.Go(func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("api server stopped")
			stop()
		}
	})

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down api server")
	}

	wg.Wait()
	return nil
}

// newStore opens the configured stake account store. The returned func
// releases it.
func newStore(ctx context.Context, cfg *config.Config) (db.DbInterface, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendLevelDB:
		store, err := leveldb.New(cfg.Store.LevelDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := store.Close(); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to close leveldb")
			}
		}
		return db.NewDbWithMetrics(store), closeFn, nil
	default:
		if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
			return nil, nil, fmt.Errorf("error while setting up stake ledger db model: %w", err)
		}
		dbClient, err := db.New(ctx, cfg.Db)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := dbClient.Close(closeCtx); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect from mongo")
			}
		}
		return db.NewDbWithMetrics(dbClient), closeFn, nil
	}
}

// newClock returns the clock the ledger runs on, and the ntp clock to keep in
// sync if one is used.
func newClock(ctx context.Context, cfg *config.ClockConfig) (clock.Clock, *clock.NTPClock) {
	if cfg.Source != config.ClockSourceNTP {
		return clock.SystemClock{}, nil
	}

	ntpClock := clock.NewNTPClock(cfg.NTPServer)
	// a first sync before serving; on failure the system time is used until
	// the poller succeeds
	if err := ntpClock.Sync(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("initial ntp sync failed")
	}
	return ntpClock, ntpClock
}
