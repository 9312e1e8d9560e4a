package mpt

import "errors"

var (
	// ErrNotFound is returned when requested trie item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrMissingNode is returned when a node referenced by digest can't be
	// found in the store.
	ErrMissingNode = errors.New("missing trie node")
	// ErrCorrupted is returned for malformed node data or nodes violating
	// the trie shape invariants. It's never worth retrying.
	ErrCorrupted = errors.New("corrupted trie node")
	// ErrKeyTooBig is returned for keys longer than MaxKeyLength.
	ErrKeyTooBig = errors.New("key is too big")
	// ErrValueTooBig is returned for values longer than MaxValueLength.
	ErrValueTooBig = errors.New("value is too big")

	// ErrInvalidOffset is returned (or panicked with) for an offset outside
	// of the nibble sequence.
	ErrInvalidOffset = errors.New("invalid nibble offset")
	// ErrOutOfRange is panicked with when accessing a nibble outside of the
	// remaining path window.
	ErrOutOfRange = errors.New("nibble index out of range")
	// ErrInvalidNibble is returned for nibble values exceeding 0x0f.
	ErrInvalidNibble = errors.New("invalid nibble")
)
