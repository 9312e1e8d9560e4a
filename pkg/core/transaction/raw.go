package transaction

import (
	"bytes"
	"fmt"

	"github.com/mptledger/mptledger/pkg/encoding/bencodex"
	"github.com/mptledger/mptledger/pkg/util"
)

// Dictionary keys of an encoded transaction, they're byte strings in the
// canonical form.
const (
	actionsKey   = "actions"
	publicKeyKey = "public_key"
	recipientKey = "recipient"
	senderKey    = "sender"
	signatureKey = "signature"
	timestampKey = "timestamp"
)

// RawTransaction is a transaction in its plain encodable form with actions
// already converted into dictionaries. Signature is nil for unsigned
// transactions.
type RawTransaction struct {
	Signer    util.Uint160
	PublicKey []byte
	Recipient util.Uint160
	Timestamp string
	Actions   []bencodex.Dictionary
	Signature []byte
}

// AddSignature returns a copy of r with the given signature.
func (r RawTransaction) AddSignature(sig []byte) RawTransaction {
	r.Signature = bytes.Clone(sig)
	return r
}

// Dictionary returns canonical Bencodex representation of the transaction.
func (r RawTransaction) Dictionary() bencodex.Dictionary {
	actions := make(bencodex.List, len(r.Actions))
	for i := range r.Actions {
		actions[i] = r.Actions[i]
	}
	d := bencodex.Dictionary{
		bencodex.BinaryKey([]byte(actionsKey)):   actions,
		bencodex.BinaryKey([]byte(publicKeyKey)): bencodex.Binary(r.PublicKey),
		bencodex.BinaryKey([]byte(recipientKey)): bencodex.Binary(r.Recipient[:]),
		bencodex.BinaryKey([]byte(senderKey)):    bencodex.Binary(r.Signer[:]),
		bencodex.BinaryKey([]byte(timestampKey)): bencodex.Text(r.Timestamp),
	}
	if r.Signature != nil {
		d[bencodex.BinaryKey([]byte(signatureKey))] = bencodex.Binary(r.Signature)
	}
	return d
}

// Bytes returns the canonical encoding of the transaction.
func (r RawTransaction) Bytes() []byte {
	return bencodex.Encode(r.Dictionary())
}

// DecodeRaw parses an encoded transaction. Both byte string and text keys
// are accepted as well as byte string timestamps, so legacy encodings can
// be read. Missing signature is not an error here, it's left nil.
func DecodeRaw(data []byte) (RawTransaction, error) {
	var raw RawTransaction
	v, err := bencodex.Decode(data)
	if err != nil {
		return raw, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	d, ok := v.(bencodex.Dictionary)
	if !ok {
		return raw, fmt.Errorf("%w: dictionary expected", ErrInvalidFormat)
	}
	seen := make(map[string]bool, len(d))
	for k, v := range d {
		name := string(k.Bytes())
		if seen[name] {
			return raw, fmt.Errorf("%w: duplicate field %s", ErrInvalidFormat, name)
		}
		seen[name] = true
		if err := raw.setField(name, v); err != nil {
			return raw, fmt.Errorf("%w: %s: %w", ErrInvalidFormat, name, err)
		}
	}
	for _, name := range []string{actionsKey, publicKeyKey, recipientKey, senderKey, timestampKey} {
		if !seen[name] {
			return raw, fmt.Errorf("%w: missing field %s", ErrInvalidFormat, name)
		}
	}
	return raw, nil
}

func (r *RawTransaction) setField(name string, v bencodex.Value) error {
	switch name {
	case actionsKey:
		l, ok := v.(bencodex.List)
		if !ok {
			return fmt.Errorf("list expected")
		}
		r.Actions = make([]bencodex.Dictionary, len(l))
		for i := range l {
			if r.Actions[i], ok = l[i].(bencodex.Dictionary); !ok {
				return fmt.Errorf("action %d: dictionary expected", i)
			}
		}
	case publicKeyKey:
		b, ok := v.(bencodex.Binary)
		if !ok {
			return fmt.Errorf("byte string expected")
		}
		r.PublicKey = bytes.Clone(b)
	case recipientKey, senderKey:
		b, ok := v.(bencodex.Binary)
		if !ok {
			return fmt.Errorf("byte string expected")
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return err
		}
		if name == recipientKey {
			r.Recipient = u
		} else {
			r.Signer = u
		}
	case signatureKey:
		b, ok := v.(bencodex.Binary)
		if !ok {
			return fmt.Errorf("byte string expected")
		}
		r.Signature = bytes.Clone(b)
	case timestampKey:
		s, ok := stringOf(v)
		if !ok {
			return fmt.Errorf("string expected")
		}
		r.Timestamp = s
	default:
		return fmt.Errorf("unexpected field")
	}
	return nil
}
