/*
Package bencodex implements Bencodex, the canonical self-describing encoding
used for transactions. Every value has exactly one valid encoding: dictionary
keys are sorted (byte-string keys before text keys, bytewise within a kind),
integers and lengths have no leading zeros and the decoder rejects anything
else.
*/
package bencodex

import (
	"encoding/hex"
	"math/big"
	"sort"
	"strconv"

	"github.com/mptledger/mptledger/pkg/io"
)

// Kind identifies the type of a Value.
type Kind byte

// Value kinds.
const (
	NullKind Kind = iota
	BooleanKind
	IntegerKind
	BinaryKind
	TextKind
	ListKind
	DictionaryKind
)

// Value is a Bencodex value. The set of implementations is closed, it's
// exactly the types of this package.
type Value interface {
	Kind() Kind
	encode(w *io.BinWriter)
}

type (
	// Null is the Bencodex null value.
	Null struct{}
	// Boolean is a Bencodex boolean.
	Boolean bool
	// Integer is an arbitrary precision signed Bencodex integer.
	Integer struct {
		v *big.Int
	}
	// Binary is a Bencodex byte string.
	Binary []byte
	// Text is a Bencodex Unicode string.
	Text string
	// List is an ordered Bencodex list.
	List []Value
	// Dictionary is a Bencodex dictionary. Its encoding doesn't depend on Go
	// map iteration order.
	Dictionary map[Key]Value
	// Key is a dictionary key, either a byte string or a text.
	Key struct {
		text bool
		s    string
	}
)

// NewInteger creates an Integer from int64.
func NewInteger(i int64) Integer {
	return Integer{v: big.NewInt(i)}
}

// NewBigInteger creates an Integer holding a copy of b.
func NewBigInteger(b *big.Int) Integer {
	return Integer{v: new(big.Int).Set(b)}
}

// BinaryKey makes a byte-string dictionary key.
func BinaryKey(b []byte) Key {
	return Key{s: string(b)}
}

// TextKey makes a text dictionary key.
func TextKey(s string) Key {
	return Key{text: true, s: s}
}

// Kind implements Value.
func (Null) Kind() Kind { return NullKind }

// Kind implements Value.
func (Boolean) Kind() Kind { return BooleanKind }

// Kind implements Value.
func (Integer) Kind() Kind { return IntegerKind }

// Kind implements Value.
func (Binary) Kind() Kind { return BinaryKind }

// Kind implements Value.
func (Text) Kind() Kind { return TextKind }

// Kind implements Value.
func (List) Kind() Kind { return ListKind }

// Kind implements Value.
func (Dictionary) Kind() Kind { return DictionaryKind }

// Big returns a copy of the integer value.
func (i Integer) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

// Int64 returns the value as int64 and whether it fits.
func (i Integer) Int64() (int64, bool) {
	b := i.Big()
	return b.Int64(), b.IsInt64()
}

// IsText tells whether the key is a text key.
func (k Key) IsText() bool { return k.text }

// Bytes returns the raw bytes of the key (UTF-8 for text keys).
func (k Key) Bytes() []byte { return []byte(k.s) }

// String returns the key as a string, byte-string keys are hex-encoded with
// 0x prefix.
func (k Key) String() string {
	if k.text {
		return k.s
	}
	return "0x" + hex.EncodeToString([]byte(k.s))
}

func (k Key) value() Value {
	if k.text {
		return Text(k.s)
	}
	return Binary(k.s)
}

func (k Key) less(other Key) bool {
	if k.text != other.text {
		return !k.text
	}
	return k.s < other.s
}

// Keys returns dictionary keys in canonical order.
func (d Dictionary) Keys() []Key {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Equal checks whether two values are the same, that is whether their
// canonical encodings match.
func Equal(a, b Value) bool {
	return string(Encode(a)) == string(Encode(b))
}

// ToPlain converts a value into a JSON-friendly Go representation: nil,
// bool, decimal string for integers, 0x-prefixed hex for byte strings,
// string, []any and map[string]any.
func ToPlain(v Value) any {
	switch v := v.(type) {
	case Null:
		return nil
	case Boolean:
		return bool(v)
	case Integer:
		return v.Big().String()
	case Binary:
		return "0x" + hex.EncodeToString(v)
	case Text:
		return string(v)
	case List:
		res := make([]any, len(v))
		for i := range v {
			res[i] = ToPlain(v[i])
		}
		return res
	case Dictionary:
		res := make(map[string]any, len(v))
		for k, val := range v {
			res[k.String()] = ToPlain(val)
		}
		return res
	default:
		return nil
	}
}

func writeLength(w *io.BinWriter, n int) {
	w.WriteBytes(strconv.AppendInt(nil, int64(n), 10))
	w.WriteB(':')
}
