package bencodex

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"unicode/utf8"
)

// MaxDepth is the maximum nesting level of lists and dictionaries accepted
// by Decode.
const MaxDepth = 64

var (
	// ErrInvalidEncoding is returned for malformed input.
	ErrInvalidEncoding = errors.New("invalid bencodex encoding")
	// ErrNonCanonical is returned for well-formed input that isn't in the
	// canonical form (unsorted or duplicate keys, leading zeros).
	ErrNonCanonical = errors.New("non-canonical bencodex encoding")
)

// Decode parses exactly one value occupying the whole of data.
func Decode(data []byte) (Value, error) {
	d := decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEncoding, len(d.data)-d.pos)
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", kind, d.pos, fmt.Sprintf(format, args...))
}

func (d *decoder) peek() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, d.errorf(ErrInvalidEncoding, "unexpected end of input")
	}
	return d.data[d.pos], nil
}

func (d *decoder) value(depth int) (Value, error) {
	c, err := d.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case c == 'n':
		d.pos++
		return Null{}, nil
	case c == 't':
		d.pos++
		return Boolean(true), nil
	case c == 'f':
		d.pos++
		return Boolean(false), nil
	case c == 'i':
		d.pos++
		return d.integer()
	case c == 'u':
		d.pos++
		b, err := d.bytes()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, d.errorf(ErrInvalidEncoding, "text is not valid UTF-8")
		}
		return Text(b), nil
	case c >= '0' && c <= '9':
		b, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return Binary(b), nil
	case c == 'l':
		if depth >= MaxDepth {
			return nil, d.errorf(ErrInvalidEncoding, "nesting is too deep")
		}
		d.pos++
		return d.list(depth + 1)
	case c == 'd':
		if depth >= MaxDepth {
			return nil, d.errorf(ErrInvalidEncoding, "nesting is too deep")
		}
		d.pos++
		return d.dictionary(depth + 1)
	default:
		return nil, d.errorf(ErrInvalidEncoding, "unexpected byte 0x%02x", c)
	}
}

// readUntil returns bytes up to (not including) the terminator and skips
// the terminator.
func (d *decoder) readUntil(term byte) ([]byte, error) {
	for i := d.pos; i < len(d.data); i++ {
		if d.data[i] == term {
			res := d.data[d.pos:i]
			d.pos = i + 1
			return res, nil
		}
	}
	return nil, d.errorf(ErrInvalidEncoding, "missing %q", term)
}

func (d *decoder) integer() (Value, error) {
	digits, err := d.readUntil('e')
	if err != nil {
		return nil, err
	}
	s := string(digits)
	abs := s
	if len(abs) > 0 && abs[0] == '-' {
		abs = abs[1:]
	}
	if len(abs) == 0 {
		return nil, d.errorf(ErrInvalidEncoding, "empty integer")
	}
	for i := 0; i < len(abs); i++ {
		if abs[i] < '0' || abs[i] > '9' {
			return nil, d.errorf(ErrInvalidEncoding, "bad integer %q", s)
		}
	}
	if (len(abs) > 1 && abs[0] == '0') || s == "-0" {
		return nil, d.errorf(ErrNonCanonical, "integer %q", s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, d.errorf(ErrInvalidEncoding, "bad integer %q", s)
	}
	return Integer{v: v}, nil
}

func (d *decoder) bytes() ([]byte, error) {
	digits, err := d.readUntil(':')
	if err != nil {
		return nil, err
	}
	if len(digits) == 0 {
		return nil, d.errorf(ErrInvalidEncoding, "empty length")
	}
	if len(digits) > 1 && digits[0] == '0' {
		return nil, d.errorf(ErrNonCanonical, "length %q", digits)
	}
	n, err := strconv.ParseUint(string(digits), 10, 31)
	if err != nil {
		return nil, d.errorf(ErrInvalidEncoding, "bad length %q", digits)
	}
	if uint64(len(d.data)-d.pos) < n {
		return nil, d.errorf(ErrInvalidEncoding, "length %d exceeds input", n)
	}
	res := make([]byte, n)
	copy(res, d.data[d.pos:])
	d.pos += int(n)
	return res, nil
}

func (d *decoder) list(depth int) (Value, error) {
	l := List{}
	for {
		c, err := d.peek()
		if err != nil {
			return nil, err
		}
		if c == 'e' {
			d.pos++
			return l, nil
		}
		v, err := d.value(depth)
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
}

func (d *decoder) dictionary(depth int) (Value, error) {
	var (
		dict = Dictionary{}
		prev *Key
	)
	for {
		c, err := d.peek()
		if err != nil {
			return nil, err
		}
		if c == 'e' {
			d.pos++
			return dict, nil
		}
		kv, err := d.value(depth)
		if err != nil {
			return nil, err
		}
		var k Key
		switch kv := kv.(type) {
		case Binary:
			k = BinaryKey(kv)
		case Text:
			k = TextKey(string(kv))
		default:
			return nil, d.errorf(ErrInvalidEncoding, "dictionary key can't be of kind %d", kv.Kind())
		}
		if prev != nil && !prev.less(k) {
			return nil, d.errorf(ErrNonCanonical, "dictionary key %s is out of order", k)
		}
		prev = &k
		v, err := d.value(depth)
		if err != nil {
			return nil, err
		}
		dict[k] = v
	}
}
