package mpt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/stretchr/testify/require"
)

// requirePanicsWith checks that f panics with an error matching target.
func requirePanicsWith(t *testing.T, target error, f func()) {
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value is not an error: %v", r)
		require.True(t, errors.Is(err, target), "unexpected panic: %v", err)
	}()
	f()
}

func TestNewPathFromKey(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		key := []byte{0xAB, 0xCD}
		p := NewPathFromKey(key, false)
		require.Equal(t, 4, p.RemainingLength())
		require.True(t, p.HasRemaining())
		require.Equal(t, byte(0xA), p.NextNibble())
		require.Equal(t, byte(0xD), p.NibbleAt(3))
		require.Equal(t, []byte{0xA, 0xB, 0xC, 0xD}, p.RemainingNibbles())
		require.Equal(t, key, p.Bytes())

		// Path doesn't share the key buffer.
		key[0] = 0
		require.Equal(t, byte(0xA), p.NextNibble())
	})
	t.Run("empty", func(t *testing.T) {
		p := NewPathFromKey(nil, false)
		require.Equal(t, 0, p.RemainingLength())
		require.False(t, p.HasRemaining())
		require.Equal(t, []byte{}, p.RemainingNibbles())
		require.True(t, p.RemainingEquals(nil))
	})
	t.Run("secure", func(t *testing.T) {
		key := []byte("key")
		p := NewPathFromKey(key, true)
		h := hash.Sha256(key)
		require.Equal(t, 64, p.RemainingLength())
		require.Equal(t, h.BytesBE(), p.Bytes())

		empty := NewPathFromKey(nil, true)
		require.Equal(t, 64, empty.RemainingLength())
	})
}

func TestNewPathFromNibbles(t *testing.T) {
	p, err := NewPathFromNibbles([]byte{1, 2, 3}, 0)
	require.NoError(t, err)
	require.Equal(t, 3, p.RemainingLength())
	require.Equal(t, []byte{0x12, 0x30}, p.Bytes())
	require.Equal(t, []byte{1, 2, 3}, p.RemainingNibbles())

	p, err = NewPathFromNibbles([]byte{1, 2, 3}, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, p.RemainingNibbles())
	require.Equal(t, []byte{0x23}, p.Bytes())

	p, err = NewPathFromNibbles([]byte{1, 2, 3}, 3)
	require.NoError(t, err)
	require.False(t, p.HasRemaining())

	_, err = NewPathFromNibbles([]byte{1, 2, 3}, 4)
	require.ErrorIs(t, err, ErrInvalidOffset)
	_, err = NewPathFromNibbles([]byte{1, 2, 3}, -1)
	require.ErrorIs(t, err, ErrInvalidOffset)
	_, err = NewPathFromNibbles([]byte{1, 0x10}, 0)
	require.ErrorIs(t, err, ErrInvalidNibble)

	p, err = NewPathFromNibbles(nil, 0)
	require.NoError(t, err)
	require.Equal(t, 0, p.RemainingLength())
}

func TestPathAdvance(t *testing.T) {
	p := NewPathFromKey([]byte{0x12, 0x34}, false)

	a := p.Advance(1)
	require.Equal(t, byte(2), a.NextNibble())
	require.Equal(t, 3, a.RemainingLength())
	// The original is not affected.
	require.Equal(t, byte(1), p.NextNibble())

	require.Equal(t, p, p.Advance(0))

	end := p.Advance(4)
	require.False(t, end.HasRemaining())
	require.Equal(t, []byte{}, end.RemainingNibbles())

	// Moving past the end is fine, accessing nibbles is not.
	past := p.Advance(6)
	require.Equal(t, -2, past.RemainingLength())
	require.False(t, past.HasRemaining())
	require.Equal(t, []byte{}, past.RemainingNibbles())
	requirePanicsWith(t, ErrOutOfRange, func() { past.NextNibble() })

	requirePanicsWith(t, ErrInvalidOffset, func() { p.Advance(-1) })
}

func TestPathNibbleAccessBounds(t *testing.T) {
	p := NewPathFromKey([]byte{0x12}, false)
	requirePanicsWith(t, ErrOutOfRange, func() { p.NibbleAt(-1) })
	requirePanicsWith(t, ErrOutOfRange, func() { p.NibbleAt(2) })
	requirePanicsWith(t, ErrOutOfRange, func() { p.Advance(2).NextNibble() })
	requirePanicsWith(t, ErrOutOfRange, func() { p.Advance(1).NibbleAt(1) })
	require.Equal(t, byte(2), p.Advance(1).NibbleAt(0))
}

func TestPathPrefixes(t *testing.T) {
	p := NewPathFromKey([]byte{0x12, 0x34}, false)

	testCases := []struct {
		other     []byte
		common    int
		startWith bool
		equals    bool
	}{
		{nil, 0, true, false},
		{[]byte{1}, 1, true, false},
		{[]byte{1, 2, 3}, 3, true, false},
		{[]byte{1, 2, 3, 4}, 4, true, true},
		{[]byte{1, 2, 3, 4, 5}, 4, false, false},
		{[]byte{1, 2, 4}, 2, false, false},
		{[]byte{2}, 0, false, false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.common, p.CommonPrefixLength(tc.other), "%v", tc.other)
		require.Equal(t, tc.startWith, p.StartsWith(tc.other), "%v", tc.other)
		require.Equal(t, tc.equals, p.RemainingEquals(tc.other), "%v", tc.other)
	}

	a := p.Advance(2)
	require.Equal(t, 2, a.CommonPrefixLength([]byte{3, 4, 5}))
	require.True(t, a.StartsWith([]byte{3}))
	require.True(t, a.RemainingEquals([]byte{3, 4}))
	require.Equal(t, 0, p.Advance(5).CommonPrefixLength([]byte{1}))
}

func TestPackNibbles(t *testing.T) {
	require.Equal(t, []byte{}, packNibbles(nil))
	require.Equal(t, []byte{0xA0}, packNibbles([]byte{0xA}))
	require.Equal(t, []byte{0xAB, 0xC0}, packNibbles([]byte{0xA, 0xB, 0xC}))
	require.Equal(t, []byte{0xA, 0xB, 0xC, 0xD}, toNibbles([]byte{0xAB, 0xCD}))
}

// Secure paths of keys sharing long raw prefixes split after a few nibbles,
// 16 equal leading nibbles happen with 2^-64 probability.
func TestSecurePathDivergence(t *testing.T) {
	const maxCommon = 16

	properties := gopter.NewProperties(nil)
	properties.Property("shared raw prefix doesn't survive hashing", prop.ForAll(
		func(prefix, a, b []byte) bool {
			k1 := append(bytes.Clone(prefix), a...)
			k2 := append(bytes.Clone(prefix), b...)
			if bytes.Equal(k1, k2) {
				return true
			}
			plain := NewPathFromKey(k1, false).CommonPrefixLength(NewPathFromKey(k2, false).RemainingNibbles())
			secure := NewPathFromKey(k1, true).CommonPrefixLength(NewPathFromKey(k2, true).RemainingNibbles())
			return plain >= 2*len(prefix) && secure < maxCommon
		},
		gen.SliceOfN(32, gen.UInt8()).Map(func(p []uint8) []byte { return p }),
		gen.SliceOf(gen.UInt8()).Map(func(s []uint8) []byte { return s }),
		gen.SliceOf(gen.UInt8()).Map(func(s []uint8) []byte { return s }),
	))
	properties.TestingRun(t)
}
