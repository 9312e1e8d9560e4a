package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mptledger/mptledger/cli/options"
	"github.com/mptledger/mptledger/pkg/core/mpt"
	"github.com/mptledger/mptledger/pkg/core/storage"
	"github.com/mptledger/mptledger/pkg/services/metrics"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// storeVersion is the first byte of the SYSVersion record, the second one
// is the trie mode.
const storeVersion byte = 1

var errModeMismatch = errors.New("database trie mode mismatch")

// ledger is an opened database with the trie on top of it. All changes are
// cached in memory until commit, so trie nodes and the new head root get to
// the disk in one batch.
type ledger struct {
	store      *storage.MemCachedStore
	trie       *mpt.Trie
	log        *zap.Logger
	logCloser  func() error
	prometheus *metrics.Service
}

func openLedger(ctx *cli.Context) (*ledger, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	appCfg := cfg.ApplicationConfiguration
	log, _, logCloser, err := options.HandleLoggingParams(ctx.Bool("debug"), appCfg)
	if err != nil {
		return nil, err
	}
	closeLog := func() {
		_ = log.Sync()
		if logCloser != nil {
			_ = logCloser()
		}
	}
	db, err := storage.NewStore(appCfg.DBConfiguration)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("could not initialize storage: %w", err)
	}
	l := &ledger{
		store:     storage.NewMemCachedStore(db),
		log:       log,
		logCloser: logCloser,
	}
	if err := l.checkVersion(appCfg.Trie.Secure); err != nil {
		l.close()
		return nil, err
	}
	l.trie = mpt.NewTrie(l.store, mpt.Config{
		Secure:    appCfg.Trie.Secure,
		CacheSize: appCfg.Trie.CacheSize,
		Logger:    log,
	})
	if appCfg.Prometheus.Enabled {
		l.prometheus = metrics.NewPrometheusService(appCfg.Prometheus, log)
		if err := l.prometheus.Start(); err != nil {
			l.prometheus = nil
			l.close()
			return nil, fmt.Errorf("failed to start Prometheus service: %w", err)
		}
	}
	return l, nil
}

// checkVersion marks a fresh database with the trie mode and refuses to work
// with databases created in the other mode.
func (l *ledger) checkVersion(secure bool) error {
	expected := []byte{storeVersion, 0}
	if secure {
		expected[1] = 1
	}
	actual, err := l.store.Get(storage.SYSVersion.Bytes())
	if errors.Is(err, storage.ErrKeyNotFound) {
		l.store.Put(storage.SYSVersion.Bytes(), expected)
		return nil
	}
	if err != nil {
		return fmt.Errorf("can't read database version: %w", err)
	}
	if !bytes.Equal(actual, expected) {
		return fmt.Errorf("%w: database %x, configuration %x", errModeMismatch, actual, expected)
	}
	return nil
}

// head returns the current root, zero (empty trie) for a fresh database.
func (l *ledger) head() (util.Uint256, error) {
	b, err := l.store.Get(storage.SYSCurrentRoot.Bytes())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return util.Uint256{}, nil
	}
	if err != nil {
		return util.Uint256{}, err
	}
	return util.Uint256DecodeBytesBE(b)
}

// root returns the root given with --root or the current one.
func (l *ledger) root(ctx *cli.Context) (util.Uint256, error) {
	r, ok, err := options.GetRoot(ctx)
	if err != nil || ok {
		return r, err
	}
	return l.head()
}

// commit sets the new head and flushes all cached changes.
func (l *ledger) commit(root util.Uint256) error {
	l.store.Put(storage.SYSCurrentRoot.Bytes(), root.BytesBE())
	n, err := l.store.Persist()
	if err != nil {
		return fmt.Errorf("failed to persist changes: %w", err)
	}
	l.log.Debug("persisted", zap.Int("keys", n), zap.Stringer("root", root))
	return nil
}

func (l *ledger) close() {
	if l.prometheus != nil {
		l.prometheus.ShutDown()
	}
	if err := l.store.Close(); err != nil {
		l.log.Error("failed to close the database", zap.Error(err))
	}
	_ = l.log.Sync()
	if l.logCloser != nil {
		_ = l.logCloser()
	}
}
