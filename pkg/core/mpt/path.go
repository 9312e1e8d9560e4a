package mpt

import (
	"fmt"

	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// Path is an immutable cursor over a packed nibble sequence. It's used to
// walk the trie: every step consumes some nibbles via Advance which returns
// a new Path sharing the same underlying buffer.
//
// Nibbles are packed high nibble first, an odd trailing nibble occupies the
// high half of the last byte.
type Path struct {
	data   []byte
	offset int
	length int
}

// NewPathFromKey creates a Path for the given key. In secure mode the key is
// replaced with its SHA-256 digest, so the path is always 64 nibbles long.
func NewPathFromKey(key []byte, secure bool) Path {
	var data []byte
	if secure {
		h := hash.Sha256(key)
		data = h.BytesBE()
	} else {
		data = slice.Copy(key)
	}
	return Path{
		data:   data,
		length: 2 * len(data),
	}
}

// NewPathFromNibbles packs an explicit nibble sequence into a Path starting
// at the given offset.
func NewPathFromNibbles(nibbles []byte, offset int) (Path, error) {
	if offset < 0 || offset > len(nibbles) {
		return Path{}, fmt.Errorf("%w: offset %d for %d nibbles", ErrInvalidOffset, offset, len(nibbles))
	}
	for i, n := range nibbles {
		if n > 0x0f {
			return Path{}, fmt.Errorf("%w: %#x at %d", ErrInvalidNibble, n, i)
		}
	}
	return Path{
		data:   packNibbles(nibbles),
		offset: offset,
		length: len(nibbles),
	}, nil
}

// RemainingLength returns the number of nibbles left. It can be negative
// for a path advanced past its end.
func (p Path) RemainingLength() int {
	return p.length - p.offset
}

// HasRemaining checks whether there are any nibbles left.
func (p Path) HasRemaining() bool {
	return p.RemainingLength() > 0
}

// NextNibble returns the current nibble. It panics if there are no nibbles
// left.
func (p Path) NextNibble() byte {
	if !p.HasRemaining() {
		panic(fmt.Errorf("%w: no nibbles left", ErrOutOfRange))
	}
	return p.nibble(p.offset)
}

// NibbleAt returns the i-th nibble counting from the current one. It panics
// if i is outside of the remaining window.
func (p Path) NibbleAt(i int) byte {
	if i < 0 || i >= p.RemainingLength() {
		panic(fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, p.RemainingLength()))
	}
	return p.nibble(p.offset + i)
}

// RemainingNibbles returns an independent copy of the nibbles left.
func (p Path) RemainingNibbles() []byte {
	l := p.RemainingLength()
	if l <= 0 {
		return []byte{}
	}
	res := make([]byte, l)
	for i := range res {
		res[i] = p.nibble(p.offset + i)
	}
	return res
}

// Advance returns a new Path moved n nibbles forward. It panics for negative
// n, moving past the end is allowed and checked by nibble accessors only.
func (p Path) Advance(n int) Path {
	if n < 0 {
		panic(fmt.Errorf("%w: advance by %d", ErrInvalidOffset, n))
	}
	return Path{
		data:   p.data,
		offset: p.offset + n,
		length: p.length,
	}
}

// StartsWith checks whether remaining nibbles start with the given prefix.
func (p Path) StartsWith(prefix []byte) bool {
	if len(prefix) > p.RemainingLength() {
		return false
	}
	return p.CommonPrefixLength(prefix) == len(prefix)
}

// CommonPrefixLength returns the number of leading nibbles that match
// between the remaining path and other.
func (p Path) CommonPrefixLength(other []byte) int {
	var i int
	for l := p.RemainingLength(); i < l && i < len(other); i++ {
		if p.nibble(p.offset+i) != other[i] {
			break
		}
	}
	return i
}

// RemainingEquals checks whether remaining nibbles are exactly equal to
// label.
func (p Path) RemainingEquals(label []byte) bool {
	return p.RemainingLength() == len(label) && p.StartsWith(label)
}

// Bytes returns packed remaining nibbles.
func (p Path) Bytes() []byte {
	return packNibbles(p.RemainingNibbles())
}

func (p Path) nibble(i int) byte {
	b := p.data[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0x0f
}

// packNibbles packs nibbles two per byte, high nibble first.
func packNibbles(nibbles []byte) []byte {
	res := make([]byte, (len(nibbles)+1)/2)
	for i, n := range nibbles {
		if i%2 == 0 {
			res[i/2] = n << 4
		} else {
			res[i/2] |= n
		}
	}
	return res
}

// toNibbles mangles path by splitting every byte into 2 containing low- and high- 4-byte part.
func toNibbles(path []byte) []byte {
	result := make([]byte, len(path)*2)
	for i := range path {
		result[i*2] = path[i] >> 4
		result[i*2+1] = path[i] & 0x0F
	}
	return result
}
