package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

const (
	// MaxKeyLength is the max length of the key to put in the trie.
	MaxKeyLength = 1024
	// MaxValueLength is the max length of a value stored in the trie.
	MaxValueLength = 1 << 20

	// ChildrenCount is the number of children a branch node has, one per
	// nibble value.
	ChildrenCount = 16

	// maxLabelLength is the max number of nibbles in a leaf or extension
	// node label.
	maxLabelLength = 2 * MaxKeyLength
)

// NodeType represents node type.
type NodeType byte

// Node types definitions.
const (
	BranchT    NodeType = 0x00
	ExtensionT NodeType = 0x01
	HashT      NodeType = 0x02
	LeafT      NodeType = 0x03
	EmptyT     NodeType = 0x04
)

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case BranchT:
		return "branch"
	case ExtensionT:
		return "extension"
	case HashT:
		return "hash"
	case LeafT:
		return "leaf"
	case EmptyT:
		return "empty"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(t))
	}
}

// NodeObject represents Node together with it's type.
// It is used for serialization/deserialization where type info
// is also expected.
type NodeObject struct {
	Node
}

// Node represents common interface of all MPT nodes. Nodes are immutable,
// their encoding and hash are computed once on construction.
type Node interface {
	io.Serializable
	Hash() util.Uint256
	Type() NodeType
	Bytes() []byte
}

// EncodeBinary implements io.Serializable.
func (n NodeObject) EncodeBinary(w *io.BinWriter) {
	encodeNodeWithType(n.Node, w)
}

// DecodeBinary implements io.Serializable.
func (n *NodeObject) DecodeBinary(r *io.BinReader) {
	typ := NodeType(r.ReadB())
	if r.Err != nil {
		return
	}
	switch typ {
	case BranchT:
		n.Node = new(BranchNode)
	case ExtensionT:
		n.Node = new(ExtensionNode)
	case HashT:
		n.Node = new(HashNode)
	case LeafT:
		n.Node = new(LeafNode)
	case EmptyT:
		n.Node = EmptyNode{}
	default:
		r.Err = fmt.Errorf("invalid node type: %x", byte(typ))
		return
	}
	n.Node.DecodeBinary(r)
}

// DecodeNode decodes a node from its canonical encoding. Any other encoding
// of the same node (like non-minimal lengths) is rejected, so a node has
// exactly one digest. The result is considered flushed, i.e. already present
// in the store.
func DecodeNode(data []byte) (Node, error) {
	var no NodeObject
	r := io.NewBinReaderFromBuf(data)
	no.DecodeBinary(r)
	if r.Err == nil && r.Len() != 0 {
		r.Err = errors.New("trailing data")
	}
	if r.Err == nil {
		buf := io.NewBufBinWriter()
		no.EncodeBinary(buf.BinWriter)
		if buf.Err == nil && !bytes.Equal(buf.Bytes(), data) {
			r.Err = errors.New("non-canonical encoding")
		}
	}
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, r.Err)
	}
	if fn, ok := no.Node.(flushedNode); ok {
		fn.setCache(slice.Copy(data), hash.Sha256(data))
	}
	return no.Node, nil
}

// encodeNodeWithType encodes node together with it's type.
func encodeNodeWithType(n Node, w *io.BinWriter) {
	w.WriteB(byte(n.Type()))
	n.EncodeBinary(w)
}

// isEmpty checks whether n is an empty child reference.
func isEmpty(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(EmptyNode)
	return ok
}

// RootHash returns the digest identifying a trie rooted at n, zero for an
// empty trie.
func RootHash(n Node) util.Uint256 {
	if isEmpty(n) {
		return util.Uint256{}
	}
	return n.Hash()
}

// encodeLabel writes nibble count followed by packed nibbles.
func encodeLabel(w *io.BinWriter, nibbles []byte) {
	w.WriteVarUint(uint64(len(nibbles)))
	w.WriteBytes(packNibbles(nibbles))
}

func decodeLabel(r *io.BinReader) []byte {
	n := r.ReadVarUint()
	if r.Err != nil {
		return nil
	}
	if n > maxLabelLength {
		r.Err = fmt.Errorf("label is too long: %d", n)
		return nil
	}
	packed := make([]byte, (n+1)/2)
	r.ReadBytes(packed)
	if r.Err != nil {
		return nil
	}
	if n%2 == 1 && packed[len(packed)-1]&0x0f != 0 {
		r.Err = errors.New("non-zero label padding")
		return nil
	}
	return toNibbles(packed)[:n]
}
