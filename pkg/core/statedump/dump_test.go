package statedump

import (
	"bytes"
	"testing"

	"github.com/mptledger/mptledger/internal/random"
	"github.com/mptledger/mptledger/pkg/core/mpt"
	"github.com/mptledger/mptledger/pkg/core/storage"
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestTrie(t *testing.T, n int) (*mpt.Trie, util.Uint256, map[string][]byte) {
	tr := mpt.NewTrie(storage.NewMemoryStore(), mpt.Config{Secure: true})
	b := mpt.NewBatch()
	kv := make(map[string][]byte, n)
	for i := 0; i < n; i++ {
		k := random.Bytes(10)
		// Repetitive values compress, random ones don't.
		v := bytes.Repeat([]byte{byte(i)}, 100)
		if i%2 == 0 {
			v = random.Bytes(40)
		}
		kv[string(k)] = v
		b.Put(k, v)
	}
	root, err := tr.PutBatch(util.Uint256{}, b)
	require.NoError(t, err)
	return tr, root, kv
}

const headerSize = 4 + util.Uint256Size + 1

func dump(t *testing.T, tr *mpt.Trie, root util.Uint256) []byte {
	buf := io.NewBufBinWriter()
	require.NoError(t, Dump(tr, root, buf.BinWriter))
	return buf.Bytes()
}

func TestDumpRestore(t *testing.T) {
	tr, root, kv := newTestTrie(t, 300)
	data := dump(t, tr, root)

	store := storage.NewMemoryStore()
	var restored int
	actual, err := Restore(store, io.NewBinReaderFromBuf(data), true, func(util.Uint256) error {
		restored++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, root, actual)
	require.Equal(t, restored, store.Len())

	newTr := mpt.NewTrie(store, mpt.Config{Secure: true})
	for k, v := range kv {
		actual, ok, err := newTr.Get(root, []byte(k))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, v, actual)
	}
}

func TestDumpEmpty(t *testing.T) {
	tr := mpt.NewTrie(storage.NewMemoryStore(), mpt.Config{})
	data := dump(t, tr, util.Uint256{})
	require.Equal(t, make([]byte, headerSize), data)

	store := storage.NewMemoryStore()
	root, err := Restore(store, io.NewBinReaderFromBuf(data), false, nil)
	require.NoError(t, err)
	require.True(t, root.IsZero())
	require.Equal(t, 0, store.Len())
}

func TestRestoreInvalid(t *testing.T) {
	tr, root, _ := newTestTrie(t, 20)
	data := dump(t, tr, root)

	check := func(t *testing.T, data []byte) {
		store := storage.NewMemoryStore()
		_, err := Restore(store, io.NewBinReaderFromBuf(data), true, nil)
		require.ErrorIs(t, err, ErrInvalidDump)
		require.Equal(t, 0, store.Len())
	}
	t.Run("truncated header", func(t *testing.T) {
		check(t, data[:10])
	})
	t.Run("truncated", func(t *testing.T) {
		check(t, data[:len(data)-1])
	})
	t.Run("wrong root", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[4] ^= 0xFF
		check(t, bad)
	})
	t.Run("missing node", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0]--
		check(t, bad)
	})
	t.Run("bad record format", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[headerSize+4] = 0x42
		check(t, bad)
	})
	t.Run("record too big", func(t *testing.T) {
		bad := bytes.Clone(data)
		copy(bad[headerSize:], []byte{0xFF, 0xFF, 0xFF, 0xFF})
		check(t, bad)
	})
	t.Run("unknown flags", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[headerSize-1] |= 0x80
		check(t, bad)
	})
	t.Run("last node broken", func(t *testing.T) {
		// Nodes read before the broken one are not stored either.
		bad := bytes.Clone(data)
		bad[len(bad)-1] ^= 0xFF
		check(t, bad)
	})
}

func TestRestoreMode(t *testing.T) {
	tr, root, _ := newTestTrie(t, 20)
	data := dump(t, tr, root)
	require.Equal(t, byte(flagSecure), data[headerSize-1])

	store := storage.NewMemoryStore()
	_, err := Restore(store, io.NewBinReaderFromBuf(data), false, nil)
	require.ErrorIs(t, err, ErrModeMismatch)
	require.Equal(t, 0, store.Len())

	plain := mpt.NewTrie(storage.NewMemoryStore(), mpt.Config{})
	plainRoot, err := plain.Put(util.Uint256{}, []byte{1}, []byte{2})
	require.NoError(t, err)
	data = dump(t, plain, plainRoot)
	require.Equal(t, byte(0), data[headerSize-1])
	_, err = Restore(store, io.NewBinReaderFromBuf(data), true, nil)
	require.ErrorIs(t, err, ErrModeMismatch)
	actual, err := Restore(store, io.NewBinReaderFromBuf(data), false, nil)
	require.NoError(t, err)
	require.Equal(t, plainRoot, actual)
}

func TestRestoreNonCanonicalNode(t *testing.T) {
	// Leaf for key 0x12 with the label length in a 3-byte form, it has
	// a valid digest but differs from the canonical encoding.
	node := []byte{byte(mpt.LeafT), 0xfd, 0x02, 0x00, 0x12, 1, 'v'}
	root := hash.Sha256(node)
	rec, err := encodeRecord(node)
	require.NoError(t, err)

	buf := io.NewBufBinWriter()
	buf.WriteU32LE(1)
	buf.WriteBytes(root[:])
	buf.WriteB(0)
	buf.WriteU32LE(uint32(len(rec)))
	buf.WriteBytes(rec)
	require.NoError(t, buf.Err)

	store := storage.NewMemoryStore()
	_, err = Restore(store, io.NewBinReaderFromBuf(buf.Bytes()), false, nil)
	require.ErrorIs(t, err, ErrInvalidDump)
	require.ErrorIs(t, err, mpt.ErrCorrupted)
	require.Equal(t, 0, store.Len())
}

func TestRecord(t *testing.T) {
	for _, data := range [][]byte{
		{0x04},
		random.Bytes(100),
		bytes.Repeat([]byte{0x42}, 1000),
	} {
		rec, err := encodeRecord(data)
		require.NoError(t, err)
		actual, err := decodeRecord(rec)
		require.NoError(t, err)
		require.Equal(t, data, actual)
	}

	rec, err := encodeRecord(bytes.Repeat([]byte{0x42}, 1000))
	require.NoError(t, err)
	require.Equal(t, formatLZ4, rec[0])
	require.Less(t, len(rec), 100)

	_, err = decodeRecord(append([]byte{formatRaw, 5}, 1, 2, 3))
	require.Error(t, err)
}
