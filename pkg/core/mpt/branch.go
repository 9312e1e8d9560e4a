package mpt

import (
	"fmt"

	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// BranchNode represents MPT's branch node. It has a child per nibble value
// and an optional value for the key ending at this node. A branch always
// has at least two entries.
type BranchNode struct {
	BaseNode
	children [ChildrenCount]Node
	value    []byte
	hasValue bool
}

var _ Node = (*BranchNode)(nil)

// NewBranchNode returns a new branch node. Nil children are treated as
// empty ones. value is only used if hasValue is set.
func NewBranchNode(children [ChildrenCount]Node, value []byte, hasValue bool) *BranchNode {
	b := &BranchNode{hasValue: hasValue}
	for i := range children {
		if isEmpty(children[i]) {
			b.children[i] = EmptyNode{}
		} else {
			b.children[i] = children[i]
		}
	}
	if hasValue {
		if value == nil {
			value = []byte{}
		}
		b.value = slice.Copy(value)
	}
	b.init(b)
	return b
}

// Type implements Node interface.
func (b *BranchNode) Type() NodeType { return BranchT }

// Child returns the child for the i-th nibble.
func (b *BranchNode) Child(i byte) Node {
	return b.children[i]
}

// Value returns a copy of the branch value and whether it's present.
func (b *BranchNode) Value() ([]byte, bool) {
	if !b.hasValue {
		return nil, false
	}
	return slice.Copy(b.value), true
}

// withChild returns a new branch with the i-th child replaced.
func (b *BranchNode) withChild(i byte, c Node) *BranchNode {
	children := b.children
	children[i] = c
	return NewBranchNode(children, b.value, b.hasValue)
}

// withValue returns a new branch with the value set.
func (b *BranchNode) withValue(v []byte) *BranchNode {
	return NewBranchNode(b.children, v, true)
}

// entries returns the number of non-empty children plus one for the value.
func (b *BranchNode) entries() int {
	return countEntries(b.children, b.hasValue)
}

func countEntries(children [ChildrenCount]Node, hasValue bool) int {
	var cnt int
	if hasValue {
		cnt++
	}
	for i := range children {
		if !isEmpty(children[i]) {
			cnt++
		}
	}
	return cnt
}

// DecodeBinary implements io.Serializable.
func (b *BranchNode) DecodeBinary(r *io.BinReader) {
	for i := range b.children {
		switch flag := r.ReadB(); flag {
		case 0:
			b.children[i] = EmptyNode{}
		case 1:
			var h util.Uint256
			h.DecodeBinary(r)
			if r.Err == nil && h.IsZero() {
				r.Err = fmt.Errorf("zero reference in child %d", i)
			}
			b.children[i] = NewHashNode(h)
		default:
			if r.Err == nil {
				r.Err = fmt.Errorf("invalid child %d flag: %d", i, flag)
			}
		}
		if r.Err != nil {
			return
		}
	}
	// Flags other than 0 and 1 are caught by DecodeNode canonicality check.
	b.hasValue = r.ReadBool()
	if b.hasValue {
		b.value = r.ReadVarBytes(MaxValueLength)
	}
	if r.Err == nil && b.entries() < 2 {
		r.Err = fmt.Errorf("branch with %d entries", b.entries())
	}
}

// EncodeBinary implements io.Serializable.
func (b *BranchNode) EncodeBinary(w *io.BinWriter) {
	for i := range b.children {
		if isEmpty(b.children[i]) {
			w.WriteB(0)
			continue
		}
		w.WriteB(1)
		h := b.children[i].Hash()
		h.EncodeBinary(w)
	}
	w.WriteBool(b.hasValue)
	if b.hasValue {
		w.WriteVarBytes(b.value)
	}
}
