package mpt

import (
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// LeafNode represents MPT's leaf node. It holds the rest of the key path
// (possibly empty) and the value.
type LeafNode struct {
	BaseNode
	key   []byte
	value []byte
}

var _ Node = (*LeafNode)(nil)

// NewLeafNode returns leaf node with the specified key nibbles and value.
func NewLeafNode(key, value []byte) *LeafNode {
	if value == nil {
		value = []byte{}
	}
	n := &LeafNode{
		key:   slice.Copy(key),
		value: slice.Copy(value),
	}
	n.init(n)
	return n
}

// Type implements Node interface.
func (n *LeafNode) Type() NodeType { return LeafT }

// Key returns a copy of the leaf key nibbles.
func (n *LeafNode) Key() []byte {
	return slice.Copy(n.key)
}

// Value returns a copy of the leaf value.
func (n *LeafNode) Value() []byte {
	return slice.Copy(n.value)
}

// DecodeBinary implements io.Serializable.
func (n *LeafNode) DecodeBinary(r *io.BinReader) {
	n.key = decodeLabel(r)
	n.value = r.ReadVarBytes(MaxValueLength)
}

// EncodeBinary implements io.Serializable.
func (n *LeafNode) EncodeBinary(w *io.BinWriter) {
	encodeLabel(w, n.key)
	w.WriteVarBytes(n.value)
}
