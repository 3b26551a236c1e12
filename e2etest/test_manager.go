//go:build e2e

package e2etest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lasagnafinance/stake-ledger/e2etest/container"
	"github.com/lasagnafinance/stake-ledger/internal/api"
	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/clients/ledgerclient"
	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/db"
	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/queue"
	"github.com/lasagnafinance/stake-ledger/internal/services"
)

const (
	stakeEventQueue = "stake_event_queue_e2e"

	eventuallyWaitTimeOut = 30 * time.Second
	eventuallyPollTime    = 500 * time.Millisecond
)

type TestManager struct {
	Config      *config.Config
	Clock       *clock.FixedClock
	Service     *services.Service
	Client      *ledgerclient.Client
	MongoDB     *mongo.Database
	StakeEvents <-chan amqp.Delivery
}

// StartManager starts mongo and rabbitmq containers and an in-process ledger
// api wired to both.
func StartManager(t *testing.T) *TestManager {
	ctx := t.Context()
	manager, err := container.NewManager(t)
	require.NoError(t, err)

	cfg := DefaultLedgerConfig()
	cfg.Db = manager.RunMongo(t)
	cfg.Queue = manager.RunRabbitMQ(t, stakeEventQueue)
	require.NoError(t, cfg.Validate())

	metrics.Init(0)

	require.NoError(t, model.Setup(ctx, &cfg.Db))
	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbClient.Close(context.Background())
	})

	qm, err := queue.NewQueueManager(&cfg.Queue, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(qm.Shutdown)

	clk := clock.NewFixedClock(time.Now())
	service, err := services.NewService(cfg, db.NewDbWithMetrics(dbClient), clk, qm)
	require.NoError(t, err)
	verifier, err := auth.NewVerifier(&cfg.Auth, clk)
	require.NoError(t, err)

	server := httptest.NewServer(api.NewRouter(service, verifier))
	t.Cleanup(server.Close)

	return &TestManager{
		Config:      cfg,
		Clock:       clk,
		Service:     service,
		Client:      ledgerclient.New(server.URL).WithClock(clk),
		MongoDB:     mongoDatabase(t, &cfg.Db),
		StakeEvents: consumeStakeEvents(t, &cfg.Queue),
	}
}

func DefaultLedgerConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.StoreBackendMongo
	cfg.Ledger.MaxCommitAttempts = 20
	return cfg
}

func mongoDatabase(t *testing.T, cfg *config.DbConfig) *mongo.Database {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	credential := options.Credential{Username: cfg.Username, Password: cfg.Password}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Address).SetAuth(credential))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	return client.Database(cfg.DbName)
}

func consumeStakeEvents(t *testing.T, cfg *config.QueueConfig) <-chan amqp.Delivery {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	ch, err := conn.Channel()
	require.NoError(t, err)

	// the publisher has already declared the queue
	deliveries, err := ch.Consume(cfg.StakeEventQueue, "e2e", true, false, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

// NextStakeEvent waits for the next published stake event.
func (tm *TestManager) NextStakeEvent(t *testing.T) *queue.StakeEvent {
	select {
	case delivery := <-tm.StakeEvents:
		var ev queue.StakeEvent
		require.NoError(t, json.Unmarshal(delivery.Body, &ev))
		return &ev
	case <-time.After(eventuallyWaitTimeOut):
		t.Fatal("timed out waiting for stake event")
		return nil
	}
}

// StoredAccount reads the stake account document straight from mongo.
func (tm *TestManager) StoredAccount(t *testing.T, address string) *model.StakeAccountDocument {
	var doc model.StakeAccountDocument
	err := tm.MongoDB.Collection(model.StakeAccountCollection).
		FindOne(t.Context(), bson.M{"_id": address}).
		Decode(&doc)
	require.NoError(t, err)
	return &doc
}
