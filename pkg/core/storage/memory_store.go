package storage

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of a Store, mainly
// used for testing and proof verification. Do not use MemoryStore in
// production.
type MemoryStore struct {
	mut sync.RWMutex
	mem map[string][]byte
}

// NewMemoryStore creates a new MemoryStore object.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mem: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if val, ok := s.mem[string(key)]; ok && val != nil {
		return val, nil
	}
	return nil, ErrKeyNotFound
}

// PutChangeSet implements the Store interface. Never returns an error.
func (s *MemoryStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		if v == nil {
			delete(s.mem, k)
			continue
		}
		s.mem[k] = v
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface.
func (s *MemoryStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	kvs := collectRange(s.mem, rng)
	s.mut.RUnlock()
	for _, kv := range kvs {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// Len returns the number of items stored.
func (s *MemoryStore) Len() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.mem)
}

// collectRange returns key-value pairs of m falling into rng, ordered
// according to rng.Backwards. Items with nil values are included, it's up
// to the caller to treat them.
func collectRange(m map[string][]byte, rng SeekRange) []KeyValue {
	var (
		rang = seekRangeToPrefixes(rng)
		list []KeyValue
	)
	for k, v := range m {
		key := []byte(k)
		if bytes.Compare(key, rang.Start) < 0 ||
			(rang.Limit != nil && bytes.Compare(key, rang.Limit) >= 0) {
			continue
		}
		list = append(list, KeyValue{Key: key, Value: v})
	}
	sortKeyValues(list, rng.Backwards)
	return list
}

func sortKeyValues(list []KeyValue, backwards bool) {
	sort.Slice(list, func(i, j int) bool {
		res := bytes.Compare(list[i].Key, list[j].Key)
		if backwards {
			return res > 0
		}
		return res < 0
	})
}

// Close implements Store interface and clears up memory. Never returns an
// error.
func (s *MemoryStore) Close() error {
	s.mut.Lock()
	s.mem = nil
	s.mut.Unlock()
	return nil
}
