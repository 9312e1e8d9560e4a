package random

import (
	"math/rand"

	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/util"
)

// String returns a random string with the n as its length.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int(65, 90))
	}

	return string(b)
}

// Bytes returns a random byte slice of the specified length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Fill fills buffer with random bytes.
func Fill(buf []byte) {
	// stdlib rand reader never returns an error
	_, _ = rand.Read(buf)
}

// Int returns a random integer in [minI,maxI).
func Int(minI, maxI int) int {
	return minI + rand.Intn(maxI-minI)
}

// Uint256 returns a random Uint256.
func Uint256() util.Uint256 {
	str := String(20)
	return hash.Sha256([]byte(str))
}

// Uint160 returns a random Uint160.
func Uint160() util.Uint160 {
	var u util.Uint160
	Fill(u[:])
	return u
}

// Nibbles returns a random nibble sequence of the specified length.
func Nibbles(n int) []byte {
	b := Bytes(n)
	for i := range b {
		b[i] &= 0x0f
	}
	return b
}
