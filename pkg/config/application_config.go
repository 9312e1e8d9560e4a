package config

import (
	"errors"
	"fmt"

	"github.com/mptledger/mptledger/pkg/core/storage/dbconfig"
	"go.uber.org/zap/zapcore"
)

// Log rotation defaults, sizes are in megabytes.
const (
	DefaultLogMaxSize    = 100
	DefaultLogMaxBackups = 3
)

// ApplicationConfiguration contains local settings of the application.
type ApplicationConfiguration struct {
	LogLevel string `yaml:"LogLevel"`
	LogPath  string `yaml:"LogPath"`
	// LogMaxSize is the size of the log file in megabytes after which it's
	// rotated.
	LogMaxSize int `yaml:"LogMaxSize"`
	// LogMaxBackups is the number of rotated files kept, zero keeps all.
	LogMaxBackups int `yaml:"LogMaxBackups"`
	// LogMaxAge is the number of days to keep rotated files, zero keeps them
	// forever.
	LogMaxAge   int  `yaml:"LogMaxAge"`
	LogCompress bool `yaml:"LogCompress"`

	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Trie            Trie                     `yaml:"Trie"`
	Prometheus      BasicService             `yaml:"Prometheus"`
}

// Trie contains state trie settings. Secure should remain the same for the
// same database, roots computed in different modes are not compatible.
type Trie struct {
	Secure bool `yaml:"Secure"`
	// CacheSize is the number of decoded nodes kept in memory, zero means
	// default, negative value disables the cache.
	CacheSize int `yaml:"CacheSize"`
}

// Validate checks ApplicationConfiguration for internal consistency.
func (a ApplicationConfiguration) Validate() error {
	if len(a.LogLevel) > 0 {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("LogLevel: %w", err)
		}
	}
	if a.LogMaxSize < 0 || a.LogMaxBackups < 0 || a.LogMaxAge < 0 {
		return errors.New("log rotation settings can't be negative")
	}
	if err := validateDB(a.DBConfiguration); err != nil {
		return fmt.Errorf("DBConfiguration: %w", err)
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return errors.New("Prometheus: no addresses to listen on")
	}
	return nil
}

func validateDB(cfg dbconfig.DBConfiguration) error {
	switch cfg.Type {
	case dbconfig.LevelDB:
		if cfg.LevelDBOptions.DataDirectoryPath == "" {
			return errors.New("LevelDB data directory is not set")
		}
	case dbconfig.BoltDB:
		if cfg.BoltDBOptions.FilePath == "" {
			return errors.New("BoltDB file path is not set")
		}
	case dbconfig.PebbleDB:
		if cfg.PebbleDBOptions.DataDirectoryPath == "" {
			return errors.New("Pebble data directory is not set")
		}
		if cfg.PebbleDBOptions.CacheSize < 0 {
			return errors.New("Pebble cache size can't be negative")
		}
	case dbconfig.InMemoryDB:
	default:
		return fmt.Errorf("unknown DB type %q", cfg.Type)
	}
	return nil
}
