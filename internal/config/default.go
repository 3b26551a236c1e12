package config

import (
	"time"

	queue "github.com/babylonlabs-io/staking-queue-client/config"
)

// DefaultConfig returns a config for a single node backed by an on-disk
// leveldb store.
func DefaultConfig() *Config {
	return &Config{
		Ledger: LedgerConfig{
			ProgramID:         "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
			MaxCommitAttempts: 5,
		},
		Store: StoreConfig{
			Backend: StoreBackendLevelDB,
			LevelDB: LevelDBConfig{
				Path:                   "data/stake-ledger",
				CacheSize:              16,
				OpenFilesCacheCapacity: 64,
			},
		},
		Db: DbConfig{
			DbName:  "stake-ledger",
			Address: "mongodb://localhost:27017",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth: AuthConfig{
			MaxClockSkew:    2 * time.Minute,
			ReplayCacheSize: 100_000,
		},
		Clock: ClockConfig{
			Source:          ClockSourceSystem,
			NTPServer:       "pool.ntp.org",
			NTPSyncInterval: 10 * time.Minute,
		},
		Queue: QueueConfig{
			Enabled:         false,
			StakeEventQueue: "stake_event_queue",
			QueueConfig: queue.QueueConfig{
				Url:                    "localhost:5672",
				QueueProcessingTimeout: 5 * time.Second,
				MsgMaxRetryAttempts:    3,
				ReQueueDelayTime:       300 * time.Second,
				QueueType:              QueueTypeQuorum,
			},
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
