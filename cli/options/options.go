/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mptledger/mptledger/pkg/config"
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConfigFile is a flag for commands that use ledger configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file, c",
	Usage: "path to the configuration file (" + config.DefaultConfigPath + " is used if it exists)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// Root is a flag for commands reading a historical trie state.
var Root = cli.StringFlag{
	Name:  "root, r",
	Usage: "trie root hash to use instead of the current one",
}

// Ledger is a set of flags used by all commands working with the database.
var Ledger = []cli.Flag{ConfigFile, Debug}

var errInvalidRoot = errors.New("invalid root hash")

// GetConfigFromContext returns the configuration specified by --config-file,
// the one found at config.DefaultConfigPath or the default one.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadFile(config.DefaultConfigPath)
	}
	return config.Default(), nil
}

// GetRoot returns the root hash given with the --root flag. The second
// result is false if the flag is not set.
func GetRoot(ctx *cli.Context) (util.Uint256, bool, error) {
	s := ctx.String("root")
	if len(s) == 0 {
		return util.Uint256{}, false, nil
	}
	h, err := util.Uint256DecodeStringBE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint256{}, false, fmt.Errorf("%w: %v", errInvalidRoot, err)
	}
	return h, true, nil
}

// ParseData converts a command line argument into bytes. Arguments are hex
// (with an optional 0x prefix) unless asString is set.
func ParseData(s string, asString bool) ([]byte, error) {
	if asString {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a rotated file for
// logging and returns closer for it.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, func() error, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	logPath := cfg.LogPath
	if logPath == "" {
		log, err := cc.Build()
		return log, &cc.Level, nil, err
	}
	if err := io.MakeDirForFile(logPath, "logger"); err != nil {
		return nil, nil, nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cc.EncoderConfig), zapcore.AddSync(lj), cc.Level)
	return zap.New(core), &cc.Level, lj.Close, nil
}
