package mpt

import (
	"bytes"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mptledger/mptledger/pkg/core/storage"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/mptledger/mptledger/pkg/util/slice"
	"go.uber.org/zap"
)

// DefaultCacheSize is the default number of decoded nodes kept in memory.
const DefaultCacheSize = 4096

// Config contains Trie settings.
type Config struct {
	// Secure enables key hashing, paths are derived from SHA-256 of keys
	// then.
	Secure bool
	// CacheSize is the number of decoded nodes cached, zero means
	// DefaultCacheSize and negative value disables the cache.
	CacheSize int
	// Logger is optional, no logging is performed if it's nil.
	Logger *zap.Logger
}

// Trie is an MPT trie storing all key-value pairs. It has no notion of the
// current root, every operation takes a root hash and mutating ones return
// a new root hash, all previous roots stay accessible. Trie is safe for
// concurrent use.
type Trie struct {
	store  storage.Store
	secure bool
	cache  *lru.Cache
	log    *zap.Logger
}

// NewTrie returns new MPT trie working on top of the given store.
func NewTrie(store storage.Store, cfg Config) *Trie {
	t := &Trie{
		store:  store,
		secure: cfg.Secure,
		log:    cfg.Logger,
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		t.cache, _ = lru.New(size) // Never errors for positive size.
	}
	return t
}

// Secure returns whether keys are hashed before use.
func (t *Trie) Secure() bool {
	return t.secure
}

// Get returns value for the provided key under the given root. The second
// result is false if there is no such key, it's not an error. Keys longer
// than MaxKeyLength are never present.
func (t *Trie) Get(root util.Uint256, key []byte) ([]byte, bool, error) {
	if len(key) > MaxKeyLength {
		return nil, false, nil
	}
	path := NewPathFromKey(key, t.secure)
	curr := rootNode(root)
	for {
		switch n := curr.(type) {
		case EmptyNode:
			return nil, false, nil
		case *HashNode:
			r, err := t.resolve(n.hash)
			if err != nil {
				return nil, false, err
			}
			curr = r
		case *LeafNode:
			if path.RemainingEquals(n.key) {
				return slice.Copy(n.value), true, nil
			}
			return nil, false, nil
		case *ExtensionNode:
			if !path.StartsWith(n.key) {
				return nil, false, nil
			}
			path = path.Advance(len(n.key))
			curr = n.next
		case *BranchNode:
			if !path.HasRemaining() {
				v, ok := n.Value()
				return v, ok, nil
			}
			curr = n.children[path.NextNibble()]
			path = path.Advance(1)
		default:
			return nil, false, t.corrupted(fmt.Errorf("unexpected node type %T", curr))
		}
	}
}

// Has checks whether the key is present under the given root.
func (t *Trie) Has(root util.Uint256, key []byte) (bool, error) {
	_, ok, err := t.Get(root, key)
	return ok, err
}

// Put puts key-value pair into the trie with the given root and returns
// the new root. Empty value is a legitimate value distinct from the key
// absence.
func (t *Trie) Put(root util.Uint256, key, value []byte) (util.Uint256, error) {
	if err := checkKV(key, value); err != nil {
		return root, err
	}
	n, err := t.putIntoNode(rootNode(root), NewPathFromKey(key, t.secure), value)
	if err != nil {
		return root, err
	}
	return t.commit(n)
}

// Delete removes the key from the trie with the given root and returns the
// new root. Deleting a missing key is a no-op returning the same root.
func (t *Trie) Delete(root util.Uint256, key []byte) (util.Uint256, error) {
	if len(key) > MaxKeyLength {
		return root, nil
	}
	n, changed, err := t.deleteFromNode(rootNode(root), NewPathFromKey(key, t.secure))
	if err != nil {
		return root, err
	}
	if !changed {
		return root, nil
	}
	return t.commit(n)
}

func checkKV(key, value []byte) error {
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes", ErrKeyTooBig, len(key))
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("%w: %d bytes", ErrValueTooBig, len(value))
	}
	return nil
}

func rootNode(root util.Uint256) Node {
	if root.IsZero() {
		return EmptyNode{}
	}
	return NewHashNode(root)
}

// putIntoNode puts value to the subtrie rooted in curr and returns the new
// subtrie root.
func (t *Trie) putIntoNode(curr Node, path Path, value []byte) (Node, error) {
	switch n := curr.(type) {
	case EmptyNode:
		return NewLeafNode(path.RemainingNibbles(), value), nil
	case *HashNode:
		r, err := t.resolve(n.hash)
		if err != nil {
			return nil, err
		}
		return t.putIntoNode(r, path, value)
	case *LeafNode:
		return t.putIntoLeaf(n, path, value), nil
	case *ExtensionNode:
		return t.putIntoExtension(n, path, value)
	case *BranchNode:
		return t.putIntoBranch(n, path, value)
	default:
		return nil, t.corrupted(fmt.Errorf("unexpected node type %T", curr))
	}
}

// putIntoLeaf either replaces the leaf value or splits the leaf into a
// branch (behind an extension for the common part if there is any).
func (t *Trie) putIntoLeaf(curr *LeafNode, path Path, value []byte) Node {
	if path.RemainingEquals(curr.key) {
		if bytes.Equal(curr.value, value) {
			return curr
		}
		return NewLeafNode(curr.key, value)
	}
	cp := path.CommonPrefixLength(curr.key)

	var (
		children [ChildrenCount]Node
		bval     []byte
		hasVal   bool
	)
	if cp == len(curr.key) {
		bval, hasVal = curr.value, true
	} else {
		children[curr.key[cp]] = NewLeafNode(curr.key[cp+1:], curr.value)
	}
	bval, hasVal = placeNew(&children, path.Advance(cp), value, bval, hasVal)
	return wrapExtension(curr.key[:cp], NewBranchNode(children, bval, hasVal))
}

// putIntoExtension descends into the extension child if the whole label
// matches, otherwise the extension is split.
func (t *Trie) putIntoExtension(curr *ExtensionNode, path Path, value []byte) (Node, error) {
	cp := path.CommonPrefixLength(curr.key)
	if cp == len(curr.key) {
		r, err := t.putIntoNode(curr.next, path.Advance(cp), value)
		if err != nil {
			return nil, err
		}
		return NewExtensionNode(curr.key, r), nil
	}

	var children [ChildrenCount]Node
	if rest := curr.key[cp+1:]; len(rest) == 0 {
		children[curr.key[cp]] = curr.next
	} else {
		children[curr.key[cp]] = NewExtensionNode(rest, curr.next)
	}
	bval, hasVal := placeNew(&children, path.Advance(cp), value, nil, false)
	return wrapExtension(curr.key[:cp], NewBranchNode(children, bval, hasVal)), nil
}

func (t *Trie) putIntoBranch(curr *BranchNode, path Path, value []byte) (Node, error) {
	if !path.HasRemaining() {
		if curr.hasValue && bytes.Equal(curr.value, value) {
			return curr, nil
		}
		return curr.withValue(value), nil
	}
	i := path.NextNibble()
	r, err := t.putIntoNode(curr.children[i], path.Advance(1), value)
	if err != nil {
		return nil, err
	}
	if r == curr.children[i] {
		return curr, nil
	}
	return curr.withChild(i, r), nil
}

// placeNew puts the new value into a branch being built during split: as a
// branch value if the path is over, or as a leaf child otherwise.
func placeNew(children *[ChildrenCount]Node, path Path, value []byte, bval []byte, hasVal bool) ([]byte, bool) {
	if !path.HasRemaining() {
		return value, true
	}
	children[path.NextNibble()] = NewLeafNode(path.Advance(1).RemainingNibbles(), value)
	return bval, hasVal
}

// wrapExtension returns n behind an extension with the given prefix, or n
// itself for an empty prefix.
func wrapExtension(prefix []byte, n Node) Node {
	if len(prefix) == 0 {
		return n
	}
	return NewExtensionNode(prefix, n)
}

// deleteFromNode removes the path from the subtrie rooted in curr. It
// returns the new subtrie root and whether anything was changed.
func (t *Trie) deleteFromNode(curr Node, path Path) (Node, bool, error) {
	switch n := curr.(type) {
	case EmptyNode:
		return n, false, nil
	case *HashNode:
		r, err := t.resolve(n.hash)
		if err != nil {
			return nil, false, err
		}
		nn, changed, err := t.deleteFromNode(r, path)
		if err != nil || !changed {
			return n, false, err
		}
		return nn, true, nil
	case *LeafNode:
		if path.RemainingEquals(n.key) {
			return EmptyNode{}, true, nil
		}
		return n, false, nil
	case *ExtensionNode:
		if !path.StartsWith(n.key) {
			return n, false, nil
		}
		r, changed, err := t.deleteFromNode(n.next, path.Advance(len(n.key)))
		if err != nil || !changed {
			return n, false, err
		}
		nn, err := t.normalizeExtension(n.key, r)
		return nn, true, err
	case *BranchNode:
		return t.deleteFromBranch(n, path)
	default:
		return nil, false, t.corrupted(fmt.Errorf("unexpected node type %T", curr))
	}
}

func (t *Trie) deleteFromBranch(b *BranchNode, path Path) (Node, bool, error) {
	if !path.HasRemaining() {
		if !b.hasValue {
			return b, false, nil
		}
		n, err := t.normalizeBranch(b.children, nil, false)
		return n, true, err
	}
	i := path.NextNibble()
	r, changed, err := t.deleteFromNode(b.children[i], path.Advance(1))
	if err != nil || !changed {
		return b, false, err
	}
	children := b.children
	children[i] = r
	n, err := t.normalizeBranch(children, b.value, b.hasValue)
	return n, true, err
}

// normalizeBranch builds a branch from the given entries, collapsing it if
// there are less than two of them left.
func (t *Trie) normalizeBranch(children [ChildrenCount]Node, value []byte, hasValue bool) (Node, error) {
	switch countEntries(children, hasValue) {
	case 0:
		return EmptyNode{}, nil
	case 1:
	default:
		return NewBranchNode(children, value, hasValue), nil
	}
	if hasValue {
		return NewLeafNode([]byte{}, value), nil
	}
	for i := range children {
		if isEmpty(children[i]) {
			continue
		}
		c, err := t.resolveNode(children[i])
		if err != nil {
			return nil, err
		}
		return t.normalizeExtension([]byte{byte(i)}, c)
	}
	panic("unreachable")
}

// normalizeExtension puts prefix in front of the child merging labels
// whenever possible, so that an extension always points to a branch.
func (t *Trie) normalizeExtension(prefix []byte, child Node) (Node, error) {
	c, err := t.resolveNode(child)
	if err != nil {
		return nil, err
	}
	switch n := c.(type) {
	case EmptyNode:
		return n, nil
	case *LeafNode:
		return NewLeafNode(slice.Concat(prefix, n.key), n.value), nil
	case *ExtensionNode:
		return NewExtensionNode(slice.Concat(prefix, n.key), n.next), nil
	case *BranchNode:
		return wrapExtension(prefix, n), nil
	default:
		return nil, t.corrupted(fmt.Errorf("unexpected node type %T", c))
	}
}

// RootHash returns the digest of the node, zero for the empty one.
func (t *Trie) RootHash(n Node) util.Uint256 {
	return RootHash(n)
}

// commit stores all new nodes reachable from n in one change set and
// returns the new root hash.
func (t *Trie) commit(n Node) (util.Uint256, error) {
	if isEmpty(n) {
		return util.Uint256{}, nil
	}
	puts := make(map[string][]byte)
	collectNew(n, puts)
	if len(puts) != 0 {
		if err := t.store.PutChangeSet(puts); err != nil {
			return util.Uint256{}, fmt.Errorf("failed to store trie nodes: %w", err)
		}
		updateCommitMetrics(len(puts))
	}
	h := n.Hash()
	t.log.Debug("trie change set committed",
		zap.Stringer("root", h),
		zap.Int("nodes", len(puts)))
	return h, nil
}

// collectNew adds every node not yet flushed to puts. Hash nodes and
// flushed ones are already stored along with their subtries.
func collectNew(n Node, puts map[string][]byte) {
	switch n := n.(type) {
	case *LeafNode:
		if n.isFlushed {
			return
		}
	case *ExtensionNode:
		if n.isFlushed {
			return
		}
		collectNew(n.next, puts)
	case *BranchNode:
		if n.isFlushed {
			return
		}
		for i := range n.children {
			collectNew(n.children[i], puts)
		}
	default:
		return
	}
	puts[string(makeStorageKey(n.Hash()))] = n.Bytes()
}

func makeStorageKey(h util.Uint256) []byte {
	return storage.AppendPrefix(storage.DataMPT, h[:])
}

// resolveNode returns n itself unless it's a hash node which is loaded.
func (t *Trie) resolveNode(n Node) (Node, error) {
	if hn, ok := n.(*HashNode); ok {
		return t.resolve(hn.hash)
	}
	return n, nil
}

// resolve loads the node by its hash either from cache or from the store.
func (t *Trie) resolve(h util.Uint256) (Node, error) {
	if t.cache != nil {
		if n, ok := t.cache.Get(h); ok {
			cacheHits.Inc()
			return n.(Node), nil
		}
	}
	data, err := t.store.Get(makeStorageKey(h))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w %s: %w", ErrMissingNode, h.StringBE(), err)
		}
		return nil, fmt.Errorf("failed to load node %s: %w", h.StringBE(), err)
	}
	nodeReads.Inc()
	n, err := DecodeNode(data)
	if err != nil {
		return nil, t.corrupted(fmt.Errorf("node %s: %w", h.StringBE(), err))
	}
	switch n.(type) {
	case *LeafNode, *ExtensionNode, *BranchNode:
	default:
		return nil, t.corrupted(fmt.Errorf("%w: node %s has type %s", ErrCorrupted, h.StringBE(), n.Type()))
	}
	if !n.Hash().Equals(h) {
		return nil, t.corrupted(fmt.Errorf("%w: node %s has hash %s", ErrCorrupted, h.StringBE(), n.Hash().StringBE()))
	}
	if t.cache != nil {
		t.cache.Add(h, n)
	}
	return n, nil
}

// corrupted logs the corruption error and returns it.
func (t *Trie) corrupted(err error) error {
	if !errors.Is(err, ErrCorrupted) {
		err = fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	t.log.Error("trie corruption detected", zap.Error(err))
	return err
}
