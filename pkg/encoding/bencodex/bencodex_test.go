package bencodex

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null{}, "n"},
		{"true", Boolean(true), "t"},
		{"false", Boolean(false), "f"},
		{"zero", NewInteger(0), "i0e"},
		{"positive", NewInteger(10), "i10e"},
		{"negative", NewInteger(-123), "i-123e"},
		{"empty binary", Binary{}, "0:"},
		{"binary", Binary("spam"), "4:spam"},
		{"empty text", Text(""), "u0:"},
		{"text", Text("orc"), "u3:orc"},
		{"unicode text", Text("단팥"), "u6:단팥"},
		{"empty list", List{}, "le"},
		{"list", List{Text("a"), NewInteger(1), nil}, "lu1:ai1ene"},
		{"empty dictionary", Dictionary{}, "de"},
		{
			"dictionary order",
			Dictionary{
				TextKey("b"):           NewInteger(1),
				TextKey("a"):           NewInteger(2),
				BinaryKey([]byte("z")): NewInteger(3),
				BinaryKey([]byte("y")): NewInteger(4),
			},
			"d1:yi4e1:zi3eu1:ai2eu1:bi1ee",
		},
		{
			"action",
			Dictionary{
				TextKey("type_id"): Text("attack"),
				TextKey("values"): Dictionary{
					TextKey("weapon"): Text("wand"),
					TextKey("target"): Text("orc"),
				},
			},
			"du7:type_idu6:attacku6:valuesdu6:targetu3:orcu6:weaponu4:wandee",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := Encode(tc.value)
			require.Equal(t, tc.expected, string(data))

			actual, err := Decode(data)
			require.NoError(t, err)
			require.True(t, Equal(tc.value, actual))
		})
	}
}

func TestBigInteger(t *testing.T) {
	b, ok := new(big.Int).SetString("-123456789012345678901234567890", 10)
	require.True(t, ok)
	i := NewBigInteger(b)
	data := Encode(i)
	require.Equal(t, "i-123456789012345678901234567890e", string(data))

	v, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 0, b.Cmp(v.(Integer).Big()))
	_, fits := v.(Integer).Int64()
	require.False(t, fits)

	// Big returns a copy.
	i.Big().SetInt64(1)
	require.Equal(t, string(data), string(Encode(i)))

	small, fits := NewInteger(42).Int64()
	require.True(t, fits)
	require.Equal(t, int64(42), small)
	require.Equal(t, "i0e", string(Encode(Integer{})))
}

func TestDecodeErrors(t *testing.T) {
	testCases := map[string]struct {
		input string
		err   error
	}{
		"empty":              {"", ErrInvalidEncoding},
		"unknown prefix":     {"x", ErrInvalidEncoding},
		"trailing":           {"nn", ErrInvalidEncoding},
		"unterminated int":   {"i12", ErrInvalidEncoding},
		"empty int":          {"ie", ErrInvalidEncoding},
		"bad int":            {"i1a2e", ErrInvalidEncoding},
		"minus only":         {"i-e", ErrInvalidEncoding},
		"leading zero int":   {"i012e", ErrNonCanonical},
		"negative zero":      {"i-0e", ErrNonCanonical},
		"short binary":       {"5:abc", ErrInvalidEncoding},
		"no colon":           {"3abc", ErrInvalidEncoding},
		"leading zero len":   {"03:abc", ErrNonCanonical},
		"bad utf8":           {"u2:\xff\xfe", ErrInvalidEncoding},
		"unterminated list":  {"li1e", ErrInvalidEncoding},
		"unterminated dict":  {"d1:ai1e", ErrInvalidEncoding},
		"int key":            {"di1ei1ee", ErrInvalidEncoding},
		"unsorted keys":      {"d1:bi1e1:ai2ee", ErrNonCanonical},
		"text before binary": {"du1:ai1e1:bi2ee", ErrNonCanonical},
		"duplicate keys":     {"d1:ai1e1:ai2ee", ErrNonCanonical},
		"missing value":      {"d1:ae", ErrInvalidEncoding},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.input))
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDecodeDepth(t *testing.T) {
	deep := make([]byte, 0, 2*MaxDepth+2)
	for i := 0; i <= MaxDepth; i++ {
		deep = append(deep, 'l')
	}
	for i := 0; i <= MaxDepth; i++ {
		deep = append(deep, 'e')
	}
	_, err := Decode(deep)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = Decode(deep[1 : len(deep)-1])
	require.NoError(t, err)
}

func TestDecodeCopiesBytes(t *testing.T) {
	data := []byte("3:abc")
	v, err := Decode(data)
	require.NoError(t, err)
	data[2] = 'x'
	require.Equal(t, Binary("abc"), v)
}

func TestKeys(t *testing.T) {
	k := BinaryKey([]byte{0xab})
	require.False(t, k.IsText())
	require.Equal(t, "0xab", k.String())
	require.Equal(t, []byte{0xab}, k.Bytes())

	tk := TextKey("name")
	require.True(t, tk.IsText())
	require.Equal(t, "name", tk.String())
}

func TestToPlain(t *testing.T) {
	v := Dictionary{
		TextKey("list"):         List{Null{}, Boolean(true), NewInteger(-5)},
		BinaryKey([]byte{0x01}): Binary{0xff},
		TextKey("text"):         Text("x"),
	}
	require.Equal(t, map[string]any{
		"list": []any{nil, true, "-5"},
		"0x01": "0xff",
		"text": "x",
	}, ToPlain(v))
}
