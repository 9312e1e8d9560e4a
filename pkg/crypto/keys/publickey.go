package keys

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/util"
)

// PublicKeySize is the length of an uncompressed public key.
const PublicKeySize = 65

// ErrInvalidPublicKey is returned for bytes that are not a valid point
// encoding.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey represents a public key on the secp256k1 curve.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// NewPublicKeyFromBytes decodes a compressed (33 bytes) or uncompressed
// (65 bytes) public key.
func NewPublicKeyFromBytes(data []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return &PublicKey{key: k}, nil
}

// NewPublicKeyFromString returns a public key created from the
// given hex string.
func NewPublicKeyFromString(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(b)
}

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(key *PublicKey) bool {
	if p == nil || key == nil {
		return p == key
	}
	return p.key.IsEqual(key.key)
}

// Cmp compares two keys by their uncompressed encodings.
func (p *PublicKey) Cmp(key *PublicKey) int {
	return bytes.Compare(p.Bytes(), key.Bytes())
}

// Bytes returns the uncompressed encoding of the key (0x04 || X || Y). This
// is the form carried by transactions.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeUncompressed()
}

// BytesCompressed returns the 33-byte compressed encoding of the key.
func (p *PublicKey) BytesCompressed() []byte {
	return p.key.SerializeCompressed()
}

// Address returns the account address of the key: the last 20 bytes of the
// Keccak-256 digest of X || Y.
func (p *PublicKey) Address() util.Uint160 {
	var (
		u util.Uint160
		h = hash.Keccak256(p.Bytes()[1:])
	)
	copy(u[:], h[util.Uint256Size-util.Uint160Size:])
	return u
}

// Verify returns true if the DER-encoded signature is valid for the
// SHA-256 digest of data under this key.
func (p *PublicKey) Verify(signature []byte, data []byte) bool {
	return p.VerifyHash(signature, hash.Sha256(data))
}

// VerifyHash returns true if the DER-encoded signature is valid for the
// given digest under this key. Malformed signatures are reported as invalid.
func (p *PublicKey) VerifyHash(signature []byte, digest util.Uint256) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], p.key)
}

// String implements the Stringer interface.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// MarshalJSON implements the json.Marshaler interface.
func (p PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pk, err := NewPublicKeyFromString(s)
	if err != nil {
		return err
	}
	*p = *pk
	return nil
}
