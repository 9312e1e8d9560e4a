package mpt

import (
	"fmt"

	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// Batch is a list of changes to be applied to the trie at once. Changes are
// applied in the order they were added.
type Batch struct {
	kv []keyValue
}

type keyValue struct {
	key    []byte
	value  []byte
	delete bool
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return new(Batch)
}

// Put adds key-value pair to the batch.
func (b *Batch) Put(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	b.kv = append(b.kv, keyValue{key: slice.Copy(key), value: slice.Copy(value)})
}

// Delete adds key removal to the batch.
func (b *Batch) Delete(key []byte) {
	b.kv = append(b.kv, keyValue{key: slice.Copy(key), delete: true})
}

// Len returns the number of changes in the batch.
func (b *Batch) Len() int {
	return len(b.kv)
}

// PutBatch applies all changes from the batch to the trie with the given
// root and commits the result as a single change set. Either all changes
// are applied or none of them; the index of the failing change is reported
// in the error.
func (t *Trie) PutBatch(root util.Uint256, b *Batch) (util.Uint256, error) {
	var (
		curr    = rootNode(root)
		changed bool
	)
	for i, kv := range b.kv {
		var (
			n   Node
			ok  = true
			err error
		)
		if kv.delete {
			if len(kv.key) > MaxKeyLength {
				continue
			}
			n, ok, err = t.deleteFromNode(curr, NewPathFromKey(kv.key, t.secure))
		} else {
			if err = checkKV(kv.key, kv.value); err == nil {
				n, err = t.putIntoNode(curr, NewPathFromKey(kv.key, t.secure), kv.value)
			}
		}
		if err != nil {
			return root, fmt.Errorf("batch item %d: %w", i, err)
		}
		if ok {
			curr = n
			changed = true
		}
	}
	if !changed {
		return root, nil
	}
	return t.commit(curr)
}
