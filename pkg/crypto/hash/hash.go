/*
Package hash contains the digest functions used for node identities, key
hashing in secure tries, transaction ids and address derivation.
*/
package hash

import (
	"crypto/sha256"

	"github.com/mptledger/mptledger/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Hashable is a generic hashable interface.
type Hashable interface {
	Hash() util.Uint256
}

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return sha256.Sum256(data)
}

// Keccak256 hashes the incoming byte slice using the legacy (pre-NIST)
// Keccak-256 algorithm.
func Keccak256(data ...[]byte) util.Uint256 {
	var h util.Uint256
	d := sha3.NewLegacyKeccak256()
	for i := range data {
		_, _ = d.Write(data[i])
	}
	d.Sum(h[:0])
	return h
}
