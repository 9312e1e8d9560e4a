package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mptledger/mptledger/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the configuration file used when none is given.
const DefaultConfigPath = "./config/mptledger.yml"

// Version is the version of the application, set at build time.
var Version string

// Config is the top level struct representing the application config.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns configuration used when no file is provided: LevelDB
// in ./data/mptledger, plain (non-secure) trie, info logging to stderr.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel:      "info",
			LogMaxSize:    DefaultLogMaxSize,
			LogMaxBackups: DefaultLogMaxBackups,
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.LevelDB,
				LevelDBOptions: dbconfig.LevelDBOptions{
					DataDirectoryPath: "./data/mptledger",
				},
			},
		},
	}
}

// LoadFile loads config from the provided path. Unknown fields are an
// error, everything not specified in the file keeps its Default value.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Parse(configData)
}

// Parse decodes YAML configuration on top of the Default one and validates
// the result.
func Parse(configData []byte) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks Config for consistency.
func (c Config) Validate() error {
	if err := c.ApplicationConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid ApplicationConfiguration: %w", err)
	}
	return nil
}
