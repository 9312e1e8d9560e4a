package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/util"
)

// PrivateKeySize is the length of a serialized private key.
const PrivateKeySize = 32

// ErrInvalidPrivateKey is returned for scalars outside of [1, N-1].
var ErrInvalidPrivateKey = errors.New("invalid private key")

// PrivateKey represents a secp256k1 private key and provides a high level
// API around secp256k1.PrivateKey.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random secp256k1 private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex
// string.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given big-endian
// 32-byte scalar.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", PrivateKeySize, len(b),
		)
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey()}
}

// Address derives the account address coupled with the private key.
func (p *PrivateKey) Address() util.Uint160 {
	return p.PublicKey().Address()
}

// Sign signs arbitrary length data using the private key. It uses SHA256 to
// calculate hash and then SignHash to create a signature (so you can save on
// hash calculation if you already have it).
func (p *PrivateKey) Sign(data []byte) []byte {
	return p.SignHash(hash.Sha256(data))
}

// SignHash signs the given digest with a deterministic (RFC 6979) nonce and
// returns a DER-encoded signature with canonical (low) S.
func (p *PrivateKey) SignHash(digest util.Uint256) []byte {
	return ecdsa.Sign(p.key, digest[:]).Serialize()
}

// Bytes returns the underlying private key as a 32-byte slice.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// String returns the hex representation of the private key. Beware of
// logging it.
func (p *PrivateKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Destroy wipes the contents of the private key from memory. Any operations
// with the key after call to Destroy have undefined behavior.
func (p *PrivateKey) Destroy() {
	p.key.Zero()
}
