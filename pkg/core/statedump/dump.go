package statedump

import (
	"errors"
	"fmt"

	"github.com/mptledger/mptledger/pkg/core/mpt"
	"github.com/mptledger/mptledger/pkg/core/storage"
	"github.com/mptledger/mptledger/pkg/crypto/hash"
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/pierrec/lz4"
)

// MaxNodeSize is the maximum size of a node encoding accepted on restore.
const MaxNodeSize = mpt.MaxValueLength + 2*mpt.MaxKeyLength + 64

// maxRecordSize also accounts for the format byte and the length prefix,
// compressed payload is only used when it's smaller than the node.
var maxRecordSize = 1 + io.GetVarSize(MaxNodeSize) + MaxNodeSize

// restoreBatchSize is the number of nodes written to the store at once.
const restoreBatchSize = 1024

const (
	formatRaw byte = iota
	formatLZ4
)

// Header flags.
const (
	flagSecure byte = 1 << iota
)

var (
	// ErrInvalidDump is returned for dumps that can't be restored.
	ErrInvalidDump = errors.New("invalid state dump")
	// ErrModeMismatch is returned when the dump trie mode is not the one
	// expected.
	ErrModeMismatch = errors.New("state dump trie mode mismatch")
)

// Dump writes all nodes reachable from root to the provided writer. Node
// count, root hash and flags byte (trie mode) go first, every node is
// written as u32 LE length followed by the record itself.
func Dump(tr *mpt.Trie, root util.Uint256, w *io.BinWriter) error {
	var count uint32
	err := tr.Nodes(root, func(util.Uint256, []byte) error {
		count++
		return nil
	})
	if err != nil {
		return err
	}
	var flags byte
	if tr.Secure() {
		flags |= flagSecure
	}
	w.WriteU32LE(count)
	w.WriteBytes(root[:])
	w.WriteB(flags)
	err = tr.Nodes(root, func(_ util.Uint256, data []byte) error {
		rec, err := encodeRecord(data)
		if err != nil {
			return err
		}
		w.WriteU32LE(uint32(len(rec)))
		w.WriteBytes(rec)
		return w.Err
	})
	if err != nil {
		return err
	}
	return w.Err
}

// Restore reads a dump made in the given trie mode from r putting every
// node into store. It returns the root hash of the restored trie after
// checking that the whole trie is reachable from it. Nothing is written to
// store unless the dump is valid. f (if not nil) is called after every node
// read.
func Restore(store storage.Store, r *io.BinReader, secure bool, f func(h util.Uint256) error) (util.Uint256, error) {
	var root util.Uint256
	count := r.ReadU32LE()
	r.ReadBytes(root[:])
	flags := r.ReadB()
	if r.Err != nil {
		return root, fmt.Errorf("%w: header: %w", ErrInvalidDump, r.Err)
	}
	if flags&^flagSecure != 0 {
		return root, fmt.Errorf("%w: unknown flags %#x", ErrInvalidDump, flags)
	}
	if (flags&flagSecure != 0) != secure {
		return root, fmt.Errorf("%w: secure %t expected", ErrModeMismatch, secure)
	}

	staged := storage.NewMemCachedStore(store)
	batch := make(map[string][]byte, restoreBatchSize)
	for i := uint32(0); i < count; i++ {
		size := r.ReadU32LE()
		if r.Err == nil && size > uint32(maxRecordSize) {
			return root, fmt.Errorf("%w: node %d: record is too big (%d)", ErrInvalidDump, i, size)
		}
		rec := make([]byte, size)
		r.ReadBytes(rec)
		if r.Err != nil {
			return root, fmt.Errorf("%w: node %d: %w", ErrInvalidDump, i, r.Err)
		}
		data, err := decodeRecord(rec)
		if err != nil {
			return root, fmt.Errorf("%w: node %d: %w", ErrInvalidDump, i, err)
		}
		if _, err := mpt.DecodeNode(data); err != nil {
			return root, fmt.Errorf("%w: node %d: %w", ErrInvalidDump, i, err)
		}
		h := hash.Sha256(data)
		batch[string(storage.AppendPrefix(storage.DataMPT, h[:]))] = data
		if len(batch) == restoreBatchSize {
			if err := staged.PutChangeSet(batch); err != nil {
				return root, err
			}
			batch = make(map[string][]byte, restoreBatchSize)
		}
		if f != nil {
			if err := f(h); err != nil {
				return root, err
			}
		}
	}
	if len(batch) != 0 {
		if err := staged.PutChangeSet(batch); err != nil {
			return root, err
		}
	}

	tr := mpt.NewTrie(staged, mpt.Config{Secure: secure, CacheSize: -1})
	var seen uint32
	err := tr.Nodes(root, func(util.Uint256, []byte) error {
		seen++
		return nil
	})
	if err != nil {
		return root, fmt.Errorf("%w: root %s: %w", ErrInvalidDump, root.StringBE(), err)
	}
	if seen != count {
		return root, fmt.Errorf("%w: %d nodes restored, %d reachable from root", ErrInvalidDump, count, seen)
	}
	if _, err := staged.Persist(); err != nil {
		return root, fmt.Errorf("failed to store nodes: %w", err)
	}
	return root, nil
}

// encodeRecord returns format byte, original length and the node data,
// compressed with lz4 if that makes it smaller.
func encodeRecord(data []byte) ([]byte, error) {
	buf := io.NewBufBinWriter()
	dest := make([]byte, lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, dest, nil)
	if err != nil {
		return nil, err
	}
	if size > 0 && size < len(data) {
		buf.WriteB(formatLZ4)
		buf.WriteVarUint(uint64(len(data)))
		buf.WriteBytes(dest[:size])
	} else {
		buf.WriteB(formatRaw)
		buf.WriteVarUint(uint64(len(data)))
		buf.WriteBytes(data)
	}
	if buf.Err != nil {
		return nil, buf.Err
	}
	return buf.Bytes(), nil
}

func decodeRecord(rec []byte) ([]byte, error) {
	r := io.NewBinReaderFromBuf(rec)
	format := r.ReadB()
	size := r.ReadVarUint()
	if r.Err != nil {
		return nil, r.Err
	}
	if size > MaxNodeSize {
		return nil, fmt.Errorf("node is too big (%d)", size)
	}
	payload := make([]byte, r.Len())
	r.ReadBytes(payload)
	if r.Err != nil {
		return nil, r.Err
	}
	switch format {
	case formatRaw:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("length mismatch: %d instead of %d", len(payload), size)
		}
		return payload, nil
	case formatLZ4:
		dest := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, dest)
		if err != nil {
			return nil, err
		}
		if uint64(n) != size {
			return nil, fmt.Errorf("length mismatch: %d instead of %d", n, size)
		}
		return dest, nil
	default:
		return nil, fmt.Errorf("unknown record format %d", format)
	}
}
