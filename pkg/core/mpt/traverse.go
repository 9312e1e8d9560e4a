package mpt

import (
	"fmt"

	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
)

// Traverse walks over all entries of the trie with the given root in key
// order calling f for each of them until it returns false. Keys passed are
// raw keys for plain tries and key digests for secure ones.
func (t *Trie) Traverse(root util.Uint256, f func(key, value []byte) bool) error {
	_, err := t.traverse(rootNode(root), nil, f)
	return err
}

// traverse returns false if the walk was stopped by f.
func (t *Trie) traverse(curr Node, prefix []byte, f func(key, value []byte) bool) (bool, error) {
	switch n := curr.(type) {
	case EmptyNode:
		return true, nil
	case *HashNode:
		r, err := t.resolve(n.hash)
		if err != nil {
			return false, err
		}
		return t.traverse(r, prefix, f)
	case *LeafNode:
		return t.yield(slice.Concat(prefix, n.key), n.value, f)
	case *ExtensionNode:
		return t.traverse(n.next, slice.Concat(prefix, n.key), f)
	case *BranchNode:
		if n.hasValue {
			if cont, err := t.yield(prefix, n.value, f); !cont || err != nil {
				return cont, err
			}
		}
		for i := range n.children {
			cont, err := t.traverse(n.children[i], slice.Concat(prefix, []byte{byte(i)}), f)
			if !cont || err != nil {
				return cont, err
			}
		}
		return true, nil
	default:
		return false, t.corrupted(fmt.Errorf("unexpected node type %T", curr))
	}
}

func (t *Trie) yield(nibbles, value []byte, f func(key, value []byte) bool) (bool, error) {
	if len(nibbles)%2 != 0 {
		return false, t.corrupted(fmt.Errorf("odd key path of %d nibbles", len(nibbles)))
	}
	return f(packNibbles(nibbles), slice.Copy(value)), nil
}

// Nodes calls f for every node of the trie with the given root passing its
// hash and encoding, each distinct node is visited once, parents before
// children. An empty trie has no nodes.
func (t *Trie) Nodes(root util.Uint256, f func(h util.Uint256, data []byte) error) error {
	if root.IsZero() {
		return nil
	}
	var (
		visited = make(map[util.Uint256]struct{})
		queue   = []util.Uint256{root}
	)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, ok := visited[h]; ok {
			continue
		}
		visited[h] = struct{}{}
		n, err := t.resolve(h)
		if err != nil {
			return err
		}
		if err := f(h, n.Bytes()); err != nil {
			return err
		}
		switch n := n.(type) {
		case *ExtensionNode:
			queue = append(queue, n.next.Hash())
		case *BranchNode:
			for i := range n.children {
				if !isEmpty(n.children[i]) {
					queue = append(queue, n.children[i].Hash())
				}
			}
		}
	}
	return nil
}
