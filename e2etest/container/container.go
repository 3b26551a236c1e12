package container

import (
	"context"
	"fmt"
	"testing"
	"time"

	queue "github.com/babylonlabs-io/staking-queue-client/config"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/pkg"
)

const (
	mongoUsername     = "user"
	mongoPassword     = "password"
	mongoDatabaseName = "stake-ledger-e2e"

	rabbitUser     = "user"
	rabbitPassword = "password"

	startupTimeout = 2 * time.Minute
)

// Manager is a wrapper around all docker operations.
type Manager struct {
	cfg  ImageConfig
	pool *dockertest.Pool
}

// NewManager creates a new Manager instance and initializes
// all Docker specific utilities. Returns an error if initialization fails.
func NewManager(t *testing.T) (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}
	pool.MaxWait = startupTimeout

	return &Manager{
		cfg:  NewImageConfig(),
		pool: pool,
	}, nil
}

func (m *Manager) run(t *testing.T, name string, opts *dockertest.RunOptions) *dockertest.Resource {
	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	opts.Name = fmt.Sprintf("%s-%s", name, pkg.RandString(4))

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := m.pool.Purge(resource); err != nil {
			t.Logf("failed to purge %s: %v", opts.Name, err)
		}
	})
	return resource
}

// RunMongo starts mongodb and returns the config to reach it once it accepts
// connections.
func (m *Manager) RunMongo(t *testing.T) config.DbConfig {
	resource := m.run(t, "stake-ledger-e2e-mongo", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + mongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + mongoPassword,
			"MONGO_INITDB_DATABASE=" + mongoDatabaseName,
		},
	})

	cfg := config.DbConfig{
		Username: mongoUsername,
		Password: mongoPassword,
		DbName:   mongoDatabaseName,
		Address:  fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp")),
	}

	err := m.pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		credential := options.Credential{Username: cfg.Username, Password: cfg.Password}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Address).SetAuth(credential))
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)

		return client.Ping(ctx, nil)
	})
	require.NoError(t, err)

	return cfg
}

// RunRabbitMQ starts rabbitmq and returns a queue config pointing at it once
// it accepts connections.
func (m *Manager) RunRabbitMQ(t *testing.T, queueName string) config.QueueConfig {
	resource := m.run(t, "stake-ledger-e2e-rabbitmq", &dockertest.RunOptions{
		Repository: m.cfg.RabbitMQRepository,
		Tag:        m.cfg.RabbitMQVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + rabbitUser,
			"RABBITMQ_DEFAULT_PASS=" + rabbitPassword,
		},
	})

	cfg := config.QueueConfig{
		Enabled:         true,
		StakeEventQueue: queueName,
		QueueConfig: queue.QueueConfig{
			QueueUser:              rabbitUser,
			QueuePassword:          rabbitPassword,
			Url:                    "localhost:" + resource.GetPort("5672/tcp"),
			QueueProcessingTimeout: 5 * time.Second,
			MsgMaxRetryAttempts:    3,
			ReQueueDelayTime:       10 * time.Second,
			QueueType:              config.QueueTypeQuorum,
		},
	}

	err := m.pool.Retry(func() error {
		conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url))
		if err != nil {
			return err
		}
		return conn.Close()
	})
	require.NoError(t, err)

	return cfg
}
