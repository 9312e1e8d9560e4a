package io

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mocks io.Reader and io.Writer, always fails to Write() or Read().
type badRW struct{}

func (w *badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func (w *badRW) Read(p []byte) (int, error) {
	return w.Write(p)
}

func TestWriteU32LE(t *testing.T) {
	var (
		val     uint32 = 0xdeadbeef
		readval uint32
		bin     = []byte{0xef, 0xbe, 0xad, 0xde}
	)
	bw := NewBufBinWriter()
	bw.WriteU32LE(val)
	assert.Nil(t, bw.Err)
	wrotebin := bw.Bytes()
	assert.Equal(t, wrotebin, bin)
	br := NewBinReaderFromBuf(bin)
	readval = br.ReadU32LE()
	assert.Nil(t, br.Err)
	assert.Equal(t, val, readval)
}

func TestWriteBool(t *testing.T) {
	var (
		bin = []byte{0x01, 0x00}
	)
	bw := NewBufBinWriter()
	bw.WriteBool(true)
	bw.WriteBool(false)
	assert.Nil(t, bw.Err)
	wrotebin := bw.Bytes()
	assert.Equal(t, wrotebin, bin)
	br := NewBinReaderFromBuf(bin)
	assert.Equal(t, true, br.ReadBool())
	assert.Equal(t, false, br.ReadBool())
	assert.Nil(t, br.Err)
}

func TestReadLEErrors(t *testing.T) {
	bin := []byte{0xad, 0xde, 0xef, 0xbe, 0xad, 0xde, 0xef, 0xbe}
	br := NewBinReaderFromBuf(bin)
	// Prime the buffers with something.
	var u64 = br.ReadU64LE()
	assert.Nil(t, br.Err)
	assert.NotEqual(t, u64, 0)

	assert.Equal(t, uint32(0), br.ReadU32LE())
	assert.Equal(t, uint16(0), br.ReadU16LE())
	assert.Equal(t, byte(0), br.ReadB())
	assert.Equal(t, false, br.ReadBool())
	assert.NotNil(t, br.Err)
}

func TestBufBinWriter_Len(t *testing.T) {
	val := []byte{0xde}
	bw := NewBufBinWriter()
	bw.WriteBytes(val)
	require.Equal(t, 1, bw.Len())
}

func TestBufBinWriterErr(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteU32LE(1)
	require.NotNil(t, bw.Bytes())
	require.ErrorIs(t, bw.Err, ErrDrained)
	require.Nil(t, bw.Bytes())

	bw.Reset()
	require.NoError(t, bw.Err)
	bw.WriteB(7)
	require.Equal(t, []byte{7}, bw.Bytes())
}

func TestWriterErrHandling(t *testing.T) {
	var badio = &badRW{}
	bw := NewBinWriterFromIO(badio)
	bw.WriteU32LE(uint32(0))
	assert.NotNil(t, bw.Err)
	// these should work (without panic), preserving the Err
	bw.WriteU32LE(uint32(0))
	bw.WriteB(0)
	bw.WriteBool(false)
	bw.WriteVarBytes([]byte{0x55, 0xaa})
	assert.NotNil(t, bw.Err)
}

func TestReaderErrHandling(t *testing.T) {
	var (
		badio = &badRW{}
	)
	br := NewBinReaderFromIO(badio)
	br.ReadU32LE()
	assert.NotNil(t, br.Err)
	// these should work (without panic), preserving the Err
	br.ReadU32LE()
	br.ReadB()
	br.ReadBool()
	val := br.ReadVarUint()
	assert.Equal(t, val, uint64(0))
	b := br.ReadVarBytes()
	assert.Empty(t, b)
	assert.NotNil(t, br.Err)
}

func TestBufBinWriter_VarUint(t *testing.T) {
	testCases := []struct {
		val  uint64
		size int
	}{
		{0, 1},
		{0xfc, 1},
		{0xfd, 3},
		{0xffff, 3},
		{0x10000, 5},
		{0xffffffff, 5},
		{0x100000000, 9},
		{0xffffffffffffffff, 9},
	}
	for _, tc := range testCases {
		bw := NewBufBinWriter()
		bw.WriteVarUint(tc.val)
		require.NoError(t, bw.Err)
		require.Equal(t, tc.size, bw.Len())
		require.Equal(t, tc.size, GetVarSize(int(tc.val&0x7fffffffffffffff)))
		buf := bw.Bytes()

		br := NewBinReaderFromBuf(buf)
		require.Equal(t, tc.val, br.ReadVarUint())
		require.NoError(t, br.Err)
	}
}

func TestWriteVarBytes(t *testing.T) {
	var (
		val = []byte{0xde, 0xad, 0xbe, 0xef}
	)
	bw := NewBufBinWriter()
	bw.WriteVarBytes(val)
	assert.Nil(t, bw.Err)
	buf := bw.Bytes()
	assert.Equal(t, len(val)+1, len(buf))
	assert.Equal(t, byte(len(val)), buf[0])
	br := NewBinReaderFromBuf(buf)
	result := br.ReadVarBytes()
	assert.Nil(t, br.Err)
	assert.Equal(t, val, result)

	t.Run("too big", func(t *testing.T) {
		br := NewBinReaderFromBuf(buf)
		br.ReadVarBytes(3)
		require.ErrorIs(t, br.Err, ErrTooBig)
	})
	t.Run("truncated", func(t *testing.T) {
		br := NewBinReaderFromBuf(buf[:3])
		br.ReadVarBytes()
		require.ErrorIs(t, br.Err, io.ErrUnexpectedEOF)
	})
}

func TestMakeDirForFile(t *testing.T) {
	tmp := t.TempDir()
	f := filepath.Join(tmp, "a", "b", "file.log")
	require.NoError(t, MakeDirForFile(f, "test"))
	require.DirExists(t, filepath.Join(tmp, "a", "b"))
}
