package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "STAKE_LEDGER"

type Config struct {
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Store   StoreConfig   `mapstructure:"store"`
	Db      DbConfig      `mapstructure:"db"`
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Clock   ClockConfig   `mapstructure:"clock"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	if err := cfg.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	// mongo settings only matter when mongo backs the ledger
	if cfg.Store.Backend == StoreBackendMongo {
		if err := cfg.Db.Validate(); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	}

	if err := cfg.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := cfg.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := cfg.Clock.Validate(); err != nil {
		return fmt.Errorf("clock: %w", err)
	}

	if err := cfg.Queue.Validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}

	if err := cfg.Poller.Validate(); err != nil {
		return fmt.Errorf("poller: %w", err)
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	return nil
}

// New reads the config file at cfgFile. Every key can be overridden from the
// environment, e.g. STAKE_LEDGER_DB_PASSWORD overrides db.password.
func New(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
