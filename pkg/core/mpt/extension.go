package mpt

import (
	"errors"

	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// ExtensionNode represents MPT's extension node. Its label is never empty
// and its child is always a branch (or a reference to one).
type ExtensionNode struct {
	BaseNode
	key  []byte
	next Node
}

var _ Node = (*ExtensionNode)(nil)

// NewExtensionNode returns extension node with the specified key nibbles and
// the next node.
func NewExtensionNode(key []byte, next Node) *ExtensionNode {
	e := &ExtensionNode{
		key:  slice.Copy(key),
		next: next,
	}
	e.init(e)
	return e
}

// Type implements Node interface.
func (e *ExtensionNode) Type() NodeType { return ExtensionT }

// Key returns a copy of the extension key nibbles.
func (e *ExtensionNode) Key() []byte {
	return slice.Copy(e.key)
}

// Next returns the child node.
func (e *ExtensionNode) Next() Node {
	return e.next
}

// DecodeBinary implements io.Serializable.
func (e *ExtensionNode) DecodeBinary(r *io.BinReader) {
	e.key = decodeLabel(r)
	if r.Err == nil && len(e.key) == 0 {
		r.Err = errors.New("empty extension label")
		return
	}
	var h util.Uint256
	h.DecodeBinary(r)
	if r.Err == nil && h.IsZero() {
		r.Err = errors.New("empty extension child")
		return
	}
	e.next = NewHashNode(h)
}

// EncodeBinary implements io.Serializable.
func (e *ExtensionNode) EncodeBinary(w *io.BinWriter) {
	encodeLabel(w, e.key)
	h := e.next.Hash()
	h.EncodeBinary(w)
}
