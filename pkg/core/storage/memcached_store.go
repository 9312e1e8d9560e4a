package storage

import (
	"sync"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	mut sync.RWMutex
	// mem holds pending changes, nil value marks a deleted key.
	mem map[string][]byte

	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		mem: make(map[string][]byte),
		ps:  lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	if val, ok := s.mem[string(key)]; ok {
		s.mut.RUnlock()
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	s.mut.RUnlock()
	return s.ps.Get(key)
}

// Put puts the key-value pair into the cache.
func (s *MemCachedStore) Put(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	s.mut.Lock()
	s.mem[string(key)] = value
	s.mut.Unlock()
}

// Delete marks the key as deleted.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	s.mem[string(key)] = nil
	s.mut.Unlock()
}

// PutChangeSet implements the Store interface. It never touches the
// persistent store, changes are only cached until Persist.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		s.mem[k] = v
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached changes take precedence over
// the persistent store contents.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	cached := collectRange(s.mem, rng)
	s.mut.RUnlock()

	merged := make(map[string][]byte, len(cached))
	s.ps.Seek(rng, func(k, v []byte) bool {
		merged[string(k)] = append([]byte{}, v...)
		return true
	})
	for _, kv := range cached {
		merged[string(kv.Key)] = kv.Value
	}
	for _, kv := range collectRange(merged, rng) {
		if kv.Value == nil {
			continue
		}
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// Len returns the number of cached changes.
func (s *MemCachedStore) Len() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.mem)
}

// Persist flushes all the changes made into the (supposedly) persistent
// underlying store in one change set. It returns the number of keys
// flushed.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements Store interface, clears up memory and closes the lower
// layer Store.
func (s *MemCachedStore) Close() error {
	s.mut.Lock()
	s.mem = nil
	s.mut.Unlock()
	return s.ps.Close()
}
