/*
Package transaction implements signed ledger transactions. A transaction is
identified by the SHA-256 digest of its canonical Bencodex encoding and
signed with secp256k1 ECDSA over the same encoding without the signature.
*/
package transaction

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/crypto/keys"
	"github.com/mptledger/mptledger/pkg/encoding/address"
	"github.com/mptledger/mptledger/pkg/encoding/bencodex"
	"github.com/mptledger/mptledger/pkg/util"
)

// TimestampFormat is the only accepted timestamp representation: UTC with
// exactly six fraction digits.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Transaction is an immutable signed transaction.
type Transaction struct {
	signer    util.Uint160
	publicKey *keys.PublicKey
	recipient util.Uint160
	timestamp time.Time
	actions   []Action
	signature []byte

	// Canonical forms of actions, fixed at creation time.
	rawActions []bencodex.Dictionary
	id         util.Uint256
}

// Sign creates a new transaction signed with the given key. Signer and
// public key are derived from it. Timestamp is truncated to microseconds.
func Sign(priv *keys.PrivateKey, recipient util.Uint160, actions []Action, timestamp time.Time) (*Transaction, error) {
	if priv == nil {
		return nil, ErrMissingPrivateKey
	}
	if actions == nil {
		return nil, ErrMissingActions
	}
	pub := priv.PublicKey()
	t := newTransaction(pub.Address(), pub, recipient, timestamp, actions)
	t.signature = priv.Sign(t.Bytes(false))
	t.id = hash.Sha256(t.Bytes(true))
	return t, nil
}

// New creates a transaction from its fields and signature. The signature
// is checked against the fields right away, but the signer is not checked
// against the public key, Validate does that.
func New(signer util.Uint160, publicKey *keys.PublicKey, recipient util.Uint160,
	timestamp time.Time, actions []Action, signature []byte) (*Transaction, error) {
	if publicKey == nil {
		return nil, ErrMissingPublicKey
	}
	if actions == nil {
		return nil, ErrMissingActions
	}
	if signature == nil {
		return nil, ErrMissingSignature
	}
	t := newTransaction(signer, publicKey, recipient, timestamp, actions)
	t.signature = bytes.Clone(signature)
	if !t.verifySignature() {
		return nil, ErrInvalidSignature
	}
	t.id = hash.Sha256(t.Bytes(true))
	return t, nil
}

// NewFromRaw creates a transaction from its raw form performing the same
// checks as New does. Actions are created with the loader given,
// GenericAction is used if it's nil.
func NewFromRaw(raw RawTransaction, loader ActionLoader) (*Transaction, error) {
	pub, actions, ts, err := fromRaw(raw, loader)
	if err != nil {
		return nil, err
	}
	return New(raw.Signer, pub, raw.Recipient, ts, actions, raw.Signature)
}

// Decode creates a transaction from its Bencodex encoding. Legacy encodings
// are accepted too, but the transaction identifier is always computed over
// the canonical one. The signature is not verified, use Validate for that.
func Decode(data []byte, loader ActionLoader) (*Transaction, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	pub, actions, ts, err := fromRaw(raw, loader)
	if err != nil {
		return nil, err
	}
	if raw.Signature == nil {
		return nil, ErrMissingSignature
	}
	t := newTransaction(raw.Signer, pub, raw.Recipient, ts, actions)
	t.signature = raw.Signature
	t.id = hash.Sha256(t.Bytes(true))
	return t, nil
}

func fromRaw(raw RawTransaction, loader ActionLoader) (*keys.PublicKey, []Action, time.Time, error) {
	if loader == nil {
		loader = NewGenericAction
	}
	if raw.PublicKey == nil {
		return nil, nil, time.Time{}, ErrMissingPublicKey
	}
	if raw.Actions == nil {
		return nil, nil, time.Time{}, ErrMissingActions
	}
	pub, err := keys.NewPublicKeyFromBytes(raw.PublicKey)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	actions := make([]Action, len(raw.Actions))
	for i := range raw.Actions {
		actions[i], err = decodeAction(raw.Actions[i], loader)
		if err != nil {
			return nil, nil, time.Time{}, fmt.Errorf("%w: action %d: %w", ErrInvalidFormat, i, err)
		}
	}
	return pub, actions, ts, nil
}

func newTransaction(signer util.Uint160, pub *keys.PublicKey, recipient util.Uint160,
	timestamp time.Time, actions []Action) *Transaction {
	t := &Transaction{
		signer:     signer,
		publicKey:  pub,
		recipient:  recipient,
		timestamp:  timestamp.UTC().Truncate(time.Microsecond),
		actions:    make([]Action, len(actions)),
		rawActions: make([]bencodex.Dictionary, len(actions)),
	}
	copy(t.actions, actions)
	for i := range actions {
		t.rawActions[i] = encodeAction(actions[i])
	}
	return t
}

// ParseTimestamp parses a timestamp in TimestampFormat.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(TimestampFormat, s)
	if err != nil {
		return ts, err
	}
	return ts.UTC(), nil
}

// FormatTimestamp formats the time given in TimestampFormat.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampFormat)
}

// Signer returns the address of the transaction author.
func (t *Transaction) Signer() util.Uint160 {
	return t.signer
}

// PublicKey returns the public key of the transaction author.
func (t *Transaction) PublicKey() *keys.PublicKey {
	return t.publicKey
}

// Recipient returns the recipient address.
func (t *Transaction) Recipient() util.Uint160 {
	return t.recipient
}

// Timestamp returns transaction creation time.
func (t *Transaction) Timestamp() time.Time {
	return t.timestamp
}

// Actions returns transaction actions.
func (t *Transaction) Actions() []Action {
	res := make([]Action, len(t.actions))
	copy(res, t.actions)
	return res
}

// Signature returns a copy of the transaction signature.
func (t *Transaction) Signature() []byte {
	return bytes.Clone(t.signature)
}

// ID returns the transaction identifier, SHA-256 of its canonical encoding
// with the signature.
func (t *Transaction) ID() util.Uint256 {
	return t.id
}

// ToRaw returns the plain representation of the transaction, with or
// without the signature.
func (t *Transaction) ToRaw(includeSignature bool) RawTransaction {
	raw := RawTransaction{
		Signer:    t.signer,
		PublicKey: t.publicKey.Bytes(),
		Recipient: t.recipient,
		Timestamp: FormatTimestamp(t.timestamp),
		Actions:   make([]bencodex.Dictionary, len(t.rawActions)),
	}
	copy(raw.Actions, t.rawActions)
	if includeSignature {
		raw = raw.AddSignature(t.signature)
	}
	return raw
}

// Bytes returns the canonical encoding of the transaction.
func (t *Transaction) Bytes(includeSignature bool) []byte {
	return t.ToRaw(includeSignature).Bytes()
}

// Validate checks the signature and that the signer is the owner of the
// public key. Both checks are always performed, failed ones are reported
// as ErrInvalidSignature and ErrInvalidPublicKey.
func (t *Transaction) Validate() error {
	var errs []error
	if !t.verifySignature() {
		errs = append(errs, ErrInvalidSignature)
	}
	if t.publicKey.Address() != t.signer {
		errs = append(errs, ErrInvalidPublicKey)
	}
	if len(errs) != 0 {
		return fmt.Errorf("transaction %s: %w", t.id.StringBE(), errors.Join(errs...))
	}
	return nil
}

func (t *Transaction) verifySignature() bool {
	return t.publicKey.Verify(t.signature, t.Bytes(false))
}

type (
	transactionJSON struct {
		ID        util.Uint256 `json:"id"`
		Signer    string       `json:"signer"`
		PublicKey string       `json:"publickey"`
		Recipient string       `json:"recipient"`
		Timestamp string       `json:"timestamp"`
		Actions   []actionJSON `json:"actions"`
		Signature string       `json:"signature"`
	}
	actionJSON struct {
		TypeID string `json:"type"`
		Values any    `json:"values"`
	}
)

// MarshalJSON implements the json.Marshaler interface.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	tx := transactionJSON{
		ID:        t.id,
		Signer:    address.EncodeUint160(t.signer),
		PublicKey: hex.EncodeToString(t.publicKey.Bytes()),
		Recipient: address.EncodeUint160(t.recipient),
		Timestamp: FormatTimestamp(t.timestamp),
		Actions:   make([]actionJSON, len(t.actions)),
		Signature: hex.EncodeToString(t.signature),
	}
	for i, a := range t.actions {
		tx.Actions[i] = actionJSON{
			TypeID: a.TypeID(),
			Values: bencodex.ToPlain(t.rawActions[i][bencodex.TextKey(actionValuesKey)]),
		}
	}
	return json.Marshal(tx)
}
