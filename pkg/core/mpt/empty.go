package mpt

import (
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
)

// EmptyNode represents empty node.
type EmptyNode struct{}

var _ Node = EmptyNode{}

// DecodeBinary implements io.Serializable interface.
func (e EmptyNode) DecodeBinary(*io.BinReader) {
}

// EncodeBinary implements io.Serializable interface.
func (e EmptyNode) EncodeBinary(*io.BinWriter) {
}

// Hash implements Node interface. Empty node has zero hash and is never
// stored.
func (e EmptyNode) Hash() util.Uint256 {
	return util.Uint256{}
}

// Type implements Node interface.
func (e EmptyNode) Type() NodeType {
	return EmptyT
}

// Bytes implements Node interface.
func (e EmptyNode) Bytes() []byte {
	return []byte{byte(EmptyT)}
}
