package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mptledger/mptledger/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

const (
	sampleConfigPath = "../../config/mptledger.yml"
	testConfigPath   = "./testdata/unknown_field.yml"
)

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(sampleConfigPath)
	require.NoError(t, err)

	app := cfg.ApplicationConfiguration
	require.Equal(t, "info", app.LogLevel)
	require.Equal(t, 30, app.LogMaxAge)
	require.Equal(t, dbconfig.LevelDB, app.DBConfiguration.Type)
	require.Equal(t, "./data/mptledger", app.DBConfiguration.LevelDBOptions.DataDirectoryPath)
	require.Equal(t, int64(64<<20), app.DBConfiguration.PebbleDBOptions.CacheSize)
	require.False(t, app.Trie.Secure)
	require.Equal(t, 4096, app.Trie.CacheSize)
	require.False(t, app.Prometheus.Enabled)
	require.Equal(t, []string{":2112"}, app.Prometheus.GetAddresses())
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	_, err = LoadFile(testConfigPath)
	require.ErrorContains(t, err, "field Cache not found")
}

func TestParse(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})
	t.Run("partial", func(t *testing.T) {
		cfg, err := Parse([]byte(`
ApplicationConfiguration:
  DBConfiguration:
    Type: boltdb
    BoltDBOptions:
      FilePath: /tmp/test.bolt
  Trie:
    Secure: true
`))
		require.NoError(t, err)
		app := cfg.ApplicationConfiguration
		require.Equal(t, dbconfig.BoltDB, app.DBConfiguration.Type)
		require.Equal(t, "/tmp/test.bolt", app.DBConfiguration.BoltDBOptions.FilePath)
		require.True(t, app.Trie.Secure)
		require.Equal(t, DefaultLogMaxSize, app.LogMaxSize)
		require.Equal(t, "info", app.LogLevel)
	})
	t.Run("not a YAML", func(t *testing.T) {
		_, err := Parse([]byte("ApplicationConfiguration: ["))
		require.Error(t, err)
	})
}

func TestApplicationConfiguration_Validate(t *testing.T) {
	testCases := map[string]func(a *ApplicationConfiguration){
		"bad log level":     func(a *ApplicationConfiguration) { a.LogLevel = "loud" },
		"negative log size": func(a *ApplicationConfiguration) { a.LogMaxSize = -1 },
		"negative log age":  func(a *ApplicationConfiguration) { a.LogMaxAge = -1 },
		"unknown DB":        func(a *ApplicationConfiguration) { a.DBConfiguration.Type = "mysql" },
		"no LevelDB path":   func(a *ApplicationConfiguration) { a.DBConfiguration.LevelDBOptions.DataDirectoryPath = "" },
		"no BoltDB path":    func(a *ApplicationConfiguration) { a.DBConfiguration.Type = dbconfig.BoltDB },
		"no Pebble path":    func(a *ApplicationConfiguration) { a.DBConfiguration.Type = dbconfig.PebbleDB },
		"negative Pebble cache": func(a *ApplicationConfiguration) {
			a.DBConfiguration.Type = dbconfig.PebbleDB
			a.DBConfiguration.PebbleDBOptions.DataDirectoryPath = "/tmp"
			a.DBConfiguration.PebbleDBOptions.CacheSize = -1
		},
		"Prometheus without addresses": func(a *ApplicationConfiguration) { a.Prometheus.Enabled = true },
	}
	for name, mod := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mod(&cfg.ApplicationConfiguration)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.ApplicationConfiguration.DBConfiguration.Type = dbconfig.InMemoryDB
	cfg.ApplicationConfiguration.LogLevel = ""
	require.NoError(t, cfg.Validate())
}

func TestLoadFileWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte("ApplicationConfiguration:\n  LogLevel: debug\n"), 0o644))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.ApplicationConfiguration.LogLevel)
}
