package mpt

import (
	"fmt"

	"github.com/mptledger/mptledger/pkg/core/storage"
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// GetProof returns a proof that the key belongs to the trie with the given
// root. The proof is a list of encoded nodes on the path from the root to
// the entry.
func (t *Trie) GetProof(root util.Uint256, key []byte) ([][]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrNotFound
	}
	var (
		proof [][]byte
		path  = NewPathFromKey(key, t.secure)
		curr  = rootNode(root)
	)
	for {
		switch n := curr.(type) {
		case EmptyNode:
			return nil, ErrNotFound
		case *HashNode:
			r, err := t.resolve(n.hash)
			if err != nil {
				return nil, err
			}
			curr = r
			continue
		case *LeafNode:
			if !path.RemainingEquals(n.key) {
				return nil, ErrNotFound
			}
			return append(proof, slice.Copy(n.Bytes())), nil
		case *ExtensionNode:
			if !path.StartsWith(n.key) {
				return nil, ErrNotFound
			}
			proof = append(proof, slice.Copy(n.Bytes()))
			path = path.Advance(len(n.key))
			curr = n.next
		case *BranchNode:
			proof = append(proof, slice.Copy(n.Bytes()))
			if !path.HasRemaining() {
				if !n.hasValue {
					return nil, ErrNotFound
				}
				return proof, nil
			}
			curr = n.children[path.NextNibble()]
			path = path.Advance(1)
		default:
			return nil, t.corrupted(fmt.Errorf("unexpected node type %T", curr))
		}
	}
}

// VerifyProof verifies that the key belongs to the trie with the given root
// using the proof and returns the value stored. The proof is checked with
// the same key mode as t has, t's store is not touched.
func (t *Trie) VerifyProof(root util.Uint256, key []byte, proof [][]byte) ([]byte, bool) {
	puts := make(map[string][]byte, len(proof))
	for i := range proof {
		h := hash.Sha256(proof[i])
		puts[string(makeStorageKey(h))] = slice.Copy(proof[i])
	}
	store := storage.NewMemoryStore()
	_ = store.PutChangeSet(puts) // Never fails for MemoryStore.
	tr := NewTrie(store, Config{Secure: t.secure, CacheSize: -1})
	v, ok, err := tr.Get(root, key)
	if err != nil {
		return nil, false
	}
	return v, ok
}
