package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/mptledger/mptledger/pkg/core/storage/dbconfig"
)

// PebbleDBStore is a Store implementation backed by cockroachdb's Pebble
// LSM engine.
type PebbleDBStore struct {
	db   *pebble.DB
	path string
}

// NewPebbleDBStore opens (or creates) the Pebble database at the configured
// directory.
func NewPebbleDBStore(cfg dbconfig.PebbleDBOptions) (*PebbleDBStore, error) {
	opts := &pebble.Options{
		ReadOnly: cfg.ReadOnly,
	}
	if cfg.ReadOnly {
		opts.ErrorIfNotExists = true
	}
	if cfg.CacheSize > 0 {
		cache := pebble.NewCache(cfg.CacheSize)
		defer cache.Unref()
		opts.Cache = cache
	}
	db, err := pebble.Open(cfg.DataDirectoryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open Pebble instance: %w", err)
	}
	return &PebbleDBStore{
		db:   db,
		path: cfg.DataDirectoryPath,
	}, nil
}

// Get implements the Store interface.
func (s *PebbleDBStore) Get(key []byte) ([]byte, error) {
	dat, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			err = ErrKeyNotFound
		}
		return nil, err
	}
	ret := bytes.Clone(dat)
	if err = closer.Close(); err != nil {
		return nil, err
	}
	return ret, nil
}

// PutChangeSet implements the Store interface.
func (s *PebbleDBStore) PutChangeSet(puts map[string][]byte) error {
	b := s.db.NewBatch()
	defer b.Close()
	for k, v := range puts {
		var err error
		if v != nil {
			err = b.Set([]byte(k), v, nil)
		} else {
			err = b.Delete([]byte(k), nil)
		}
		if err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// Seek implements the Store interface.
func (s *PebbleDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	rang := seekRangeToPrefixes(rng)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: rang.Start,
		UpperBound: rang.Limit,
	})
	if err != nil {
		panic(err)
	}
	var (
		next func() bool
		ok   bool
	)
	if !rng.Backwards {
		ok = iter.First()
		next = iter.Next
	} else {
		ok = iter.Last()
		next = iter.Prev
	}
	for ; ok; ok = next() {
		if !f(iter.Key(), iter.Value()) {
			break
		}
	}
	_ = iter.Close()
}

// Close implements the Store interface.
func (s *PebbleDBStore) Close() error {
	return s.db.Close()
}
