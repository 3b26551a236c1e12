package config

import (
	"fmt"
)

const (
	StoreBackendMongo   = "mongo"
	StoreBackendLevelDB = "leveldb"
)

type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	LevelDB LevelDBConfig `mapstructure:"leveldb"`
}

type LevelDBConfig struct {
	// Path of the database directory. Empty path keeps everything in memory.
	Path                   string `mapstructure:"path"`
	CacheSize              int    `mapstructure:"cache-size"`
	OpenFilesCacheCapacity int    `mapstructure:"open-files-cache-capacity"`
}

func (cfg *StoreConfig) Validate() error {
	switch cfg.Backend {
	case StoreBackendMongo:
		return nil
	case StoreBackendLevelDB:
		if cfg.LevelDB.CacheSize < 0 {
			return fmt.Errorf("leveldb cache-size must not be negative")
		}
		if cfg.LevelDB.OpenFilesCacheCapacity < 0 {
			return fmt.Errorf("leveldb open-files-cache-capacity must not be negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q, expected %q or %q", cfg.Backend, StoreBackendMongo, StoreBackendLevelDB)
	}
}
