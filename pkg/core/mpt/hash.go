package mpt

import (
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
)

// HashNode represents an unresolved reference to a node by its hash.
type HashNode struct {
	hash util.Uint256
}

var _ Node = (*HashNode)(nil)

// NewHashNode returns a hash node with the specified hash.
func NewHashNode(h util.Uint256) *HashNode {
	return &HashNode{hash: h}
}

// Type implements Node interface.
func (h *HashNode) Type() NodeType { return HashT }

// Hash implements Node interface.
func (h *HashNode) Hash() util.Uint256 {
	return h.hash
}

// Bytes implements Node interface.
func (h *HashNode) Bytes() []byte {
	buf := io.NewBufBinWriter()
	encodeNodeWithType(h, buf.BinWriter)
	return buf.Bytes()
}

// DecodeBinary implements io.Serializable.
func (h *HashNode) DecodeBinary(r *io.BinReader) {
	h.hash.DecodeBinary(r)
}

// EncodeBinary implements io.Serializable.
func (h *HashNode) EncodeBinary(w *io.BinWriter) {
	h.hash.EncodeBinary(w)
}
