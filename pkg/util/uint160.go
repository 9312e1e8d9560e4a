package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mptledger/mptledger/pkg/io"
)

// Uint160Size is the size of Uint160 in bytes.
const Uint160Size = 20

// Uint160 is a 20 byte long value, used for account addresses.
type Uint160 [Uint160Size]uint8

// Uint160DecodeStringBE attempts to decode the given hex string (with or
// without 0x prefix, any letter case) into a Uint160.
func Uint160DecodeStringBE(s string) (Uint160, error) {
	var u Uint160
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint160Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint160Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint160DecodeBytesBE(b)
}

// Uint160DecodeBytesBE attempts to decode the given bytes into a Uint160.
func Uint160DecodeBytesBE(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("expected byte size of %d got %d", Uint160Size, len(b))
	}
	copy(u[:], b)
	return
}

// BytesBE returns a fresh byte slice representation of u.
func (u Uint160) BytesBE() []byte {
	b := make([]byte, Uint160Size)
	copy(b, u[:])
	return b
}

// StringBE returns a lowercase hex representation of u without prefix.
func (u Uint160) StringBE() string {
	return hex.EncodeToString(u[:])
}

// String implements the stringer interface.
func (u Uint160) String() string {
	return u.StringBE()
}

// Equals returns true if both Uint160 values are the same.
func (u Uint160) Equals(other Uint160) bool {
	return u == other
}

// Less returns true if this value is less than the given Uint160 value. It's
// primarily intended to be used for sorting purposes.
func (u Uint160) Less(other Uint160) bool {
	return bytes.Compare(u[:], other[:]) < 0
}

// EncodeBinary implements the io.Serializable interface.
func (u *Uint160) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(u[:])
}

// DecodeBinary implements the io.Serializable interface.
func (u *Uint160) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(u[:])
}
