package mpt

import (
	"testing"

	"github.com/mptledger/mptledger/internal/random"
	"github.com/mptledger/mptledger/pkg/core/storage"
	"github.com/mptledger/mptledger/pkg/util"
)

func benchmarkDecode(b *testing.B, n Node) {
	data := n.Bytes()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := DecodeNode(data)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	b.Run("extension", func(b *testing.B) {
		n := NewExtensionNode(random.Nibbles(10), NewHashNode(random.Uint256()))
		benchmarkDecode(b, n)
	})
	b.Run("leaf", func(b *testing.B) {
		n := NewLeafNode(random.Nibbles(10), make([]byte, 15))
		benchmarkDecode(b, n)
	})
	b.Run("branch", func(b *testing.B) {
		var children [ChildrenCount]Node
		children[0] = NewLeafNode(random.Nibbles(10), random.Bytes(10))
		children[4] = NewLeafNode(random.Nibbles(10), random.Bytes(10))
		children[7] = NewHashNode(random.Uint256())
		children[8] = NewHashNode(random.Uint256())
		benchmarkDecode(b, NewBranchNode(children, nil, false))
	})
}

func BenchmarkTrie_Put(b *testing.B) {
	tr := NewTrie(storage.NewMemoryStore(), Config{Secure: true})
	keys := make([][]byte, b.N)
	for i := range keys {
		keys[i] = random.Bytes(20)
	}
	var (
		root util.Uint256
		err  error
	)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root, err = tr.Put(root, keys[i], keys[i])
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTrie_Get(b *testing.B) {
	tr := NewTrie(storage.NewMemoryStore(), Config{Secure: true})
	b2 := NewBatch()
	keys := make([][]byte, 1000)
	for i := range keys {
		keys[i] = random.Bytes(20)
		b2.Put(keys[i], keys[i])
	}
	root, err := tr.PutBatch(util.Uint256{}, b2)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err = tr.Get(root, keys[i%len(keys)])
		if err != nil {
			b.Fatal(err)
		}
	}
}
