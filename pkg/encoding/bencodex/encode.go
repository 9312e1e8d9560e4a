package bencodex

import (
	"github.com/mptledger/mptledger/pkg/io"
)

// Encode returns the canonical encoding of v.
func Encode(v Value) []byte {
	w := io.NewBufBinWriter()
	EncodeBinary(w.BinWriter, v)
	return w.Bytes()
}

// EncodeBinary writes the canonical encoding of v into w.
func EncodeBinary(w *io.BinWriter, v Value) {
	if v == nil {
		v = Null{}
	}
	v.encode(w)
}

func (Null) encode(w *io.BinWriter) {
	w.WriteB('n')
}

func (b Boolean) encode(w *io.BinWriter) {
	if b {
		w.WriteB('t')
	} else {
		w.WriteB('f')
	}
}

func (i Integer) encode(w *io.BinWriter) {
	w.WriteB('i')
	w.WriteBytes([]byte(i.Big().String()))
	w.WriteB('e')
}

func (b Binary) encode(w *io.BinWriter) {
	writeLength(w, len(b))
	w.WriteBytes(b)
}

func (t Text) encode(w *io.BinWriter) {
	w.WriteB('u')
	writeLength(w, len(t))
	w.WriteBytes([]byte(t))
}

func (l List) encode(w *io.BinWriter) {
	w.WriteB('l')
	for i := range l {
		EncodeBinary(w, l[i])
	}
	w.WriteB('e')
}

func (d Dictionary) encode(w *io.BinWriter) {
	w.WriteB('d')
	for _, k := range d.Keys() {
		k.value().encode(w)
		EncodeBinary(w, d[k])
	}
	w.WriteB('e')
}
