/*
Package address implements the textual form of account addresses: a 0x
prefixed hex string with EIP-55 mixed-case checksum.
*/
package address

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/util"
)

// Prefix is the prefix of every encoded address.
const Prefix = "0x"

// ErrChecksum is returned for mixed-case addresses with an invalid checksum.
var ErrChecksum = errors.New("invalid address checksum")

// EncodeUint160 returns the checksummed address string for the given Uint160.
func EncodeUint160(u util.Uint160) string {
	return Prefix + checksum(hex.EncodeToString(u[:]))
}

// DecodeUint160 attempts to decode the given address string into a Uint160.
// The prefix is optional. All-lowercase and all-uppercase strings are
// accepted as is, mixed-case ones must carry a valid checksum.
func DecodeUint160(s string) (util.Uint160, error) {
	s = strings.TrimPrefix(s, Prefix)
	u, err := util.Uint160DecodeStringBE(s)
	if err != nil {
		return u, err
	}
	if s != strings.ToLower(s) && s != strings.ToUpper(s) && checksum(strings.ToLower(s)) != s {
		return u, ErrChecksum
	}
	return u, nil
}

func checksum(lower string) string {
	var (
		h   = hash.Keccak256([]byte(lower))
		res = []byte(lower)
	)
	for i, c := range res {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := h[i/2] >> 4
		if i%2 == 1 {
			nibble = h[i/2] & 0x0f
		}
		if nibble >= 8 {
			res[i] = c - 'a' + 'A'
		}
	}
	return string(res)
}
