package mpt

import (
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
)

// BaseNode implements basic things every node needs like caching hash and
// serialized representation. It's a basic node building block intended to be
// included into all node types.
type BaseNode struct {
	hash  util.Uint256
	bytes []byte

	isFlushed bool
}

type flushedNode interface {
	setCache([]byte, util.Uint256)
}

func (b *BaseNode) setCache(bs []byte, h util.Uint256) {
	b.bytes = bs
	b.hash = h
	b.isFlushed = true
}

// init computes encoding and hash of n, it must be called once from n's
// constructor.
func (b *BaseNode) init(n Node) {
	buf := io.NewBufBinWriter()
	encodeNodeWithType(n, buf.BinWriter)
	b.bytes = buf.Bytes()
	b.hash = hash.Sha256(b.bytes)
}

// Hash returns the hash of the node.
func (b *BaseNode) Hash() util.Uint256 {
	return b.hash
}

// Bytes returns the canonical encoding of the node. The slice must not be
// modified.
func (b *BaseNode) Bytes() []byte {
	return b.bytes
}

// IsFlushed checks whether the node was loaded from the store.
func (b *BaseNode) IsFlushed() bool {
	return b.isFlushed
}
