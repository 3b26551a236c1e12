package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	queue "github.com/babylonlabs-io/staking-queue-client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgramID = "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"

func validConfig() *Config {
	return &Config{
		Ledger: LedgerConfig{
			ProgramID:         testProgramID,
			MaxCommitAttempts: 5,
		},
		Store: StoreConfig{
			Backend: StoreBackendMongo,
		},
		Db: DbConfig{
			Username: "test",
			Password: "test",
			Address:  "mongodb://localhost:27017",
			DbName:   "test",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Auth: AuthConfig{
			MaxClockSkew:    5 * time.Minute,
			ReplayCacheSize: 1024,
		},
		Clock: ClockConfig{
			Source: ClockSourceSystem,
		},
		Queue: QueueConfig{
			Enabled: false,
		},
		Poller: PollerConfig{
			StatsPollingInterval: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})
	t.Run("default", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})
	t.Run("db is optional for leveldb", func(t *testing.T) {
		cfg := validConfig()
		cfg.Store.Backend = StoreBackendLevelDB
		cfg.Db = DbConfig{}
		require.NoError(t, cfg.Validate())

		cfg.Store.Backend = StoreBackendMongo
		require.Error(t, cfg.Validate())
	})
	t.Run("queue only validated when enabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Queue.Enabled = true
		require.Error(t, cfg.Validate())

		cfg.Queue = QueueConfig{
			Enabled:         true,
			StakeEventQueue: "stake_events",
			QueueConfig: queue.QueueConfig{
				QueueUser:              "user",
				QueuePassword:          "password",
				Url:                    "localhost:5672",
				QueueProcessingTimeout: 5 * time.Second,
				MsgMaxRetryAttempts:    10,
				ReQueueDelayTime:       300 * time.Second,
				QueueType:              QueueTypeQuorum,
			},
		}
		require.NoError(t, cfg.Validate())

		cfg.Queue.QueueType = "stream"
		require.Error(t, cfg.Validate())
	})

	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{name: "missing program id", mutate: func(cfg *Config) { cfg.Ledger.ProgramID = "" }},
		{name: "short program id", mutate: func(cfg *Config) { cfg.Ledger.ProgramID = "abc" }},
		{name: "zero commit attempts", mutate: func(cfg *Config) { cfg.Ledger.MaxCommitAttempts = 0 }},
		{name: "unknown backend", mutate: func(cfg *Config) { cfg.Store.Backend = "redis" }},
		{name: "bad server port", mutate: func(cfg *Config) { cfg.Server.Port = 70000 }},
		{name: "zero clock skew", mutate: func(cfg *Config) { cfg.Auth.MaxClockSkew = 0 }},
		{name: "ntp without server", mutate: func(cfg *Config) { cfg.Clock.Source = ClockSourceNTP }},
		{name: "unknown clock", mutate: func(cfg *Config) { cfg.Clock.Source = "sundial" }},
		{name: "zero stats interval", mutate: func(cfg *Config) { cfg.Poller.StatsPollingInterval = 0 }},
		{name: "bad metrics port", mutate: func(cfg *Config) { cfg.Metrics.Port = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNew(t *testing.T) {
	const content = `
ledger:
  program-id: ` + testProgramID + `
  max-commit-attempts: 5
store:
  backend: leveldb
  leveldb:
    path: ""
server:
  host: 127.0.0.1
  port: 8080
  read-timeout: 5s
  write-timeout: 5s
  idle-timeout: 30s
auth:
  max-clock-skew: 5m
  replay-cache-size: 100
clock:
  source: system
queue:
  enabled: false
poller:
  stats-polling-interval: 30s
metrics:
  host: 0.0.0.0
  port: 2112
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("file", func(t *testing.T) {
		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, StoreBackendLevelDB, cfg.Store.Backend)
		assert.Equal(t, 5*time.Minute, cfg.Auth.MaxClockSkew)
		assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	})
	t.Run("env override", func(t *testing.T) {
		t.Setenv("STAKE_LEDGER_SERVER_PORT", "9090")
		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
	})
	t.Run("queue section", func(t *testing.T) {
		withQueue := strings.Replace(content, "queue:\n  enabled: false\n", `queue:
  enabled: true
  stake-event-queue: stake_event_queue
  queue_user: user
  queue_password: password
  url: "localhost:5672"
  processing_timeout: 5s
  msg_max_retry_attempts: 10
  requeue_delay_time: 300s
  queue_type: quorum
`, 1)
		queuePath := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(queuePath, []byte(withQueue), 0o600))
		t.Setenv("STAKE_LEDGER_QUEUE_QUEUE_PASSWORD", "secret")

		cfg, err := New(queuePath)
		require.NoError(t, err)
		assert.True(t, cfg.Queue.Enabled)
		assert.Equal(t, "stake_event_queue", cfg.Queue.StakeEventQueue)
		assert.Equal(t, "secret", cfg.Queue.QueuePassword)
		assert.Equal(t, 5*time.Second, cfg.Queue.QueueProcessingTimeout)
		assert.Equal(t, QueueTypeQuorum, cfg.Queue.QueueType)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})
}
