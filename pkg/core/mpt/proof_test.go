package mpt

import (
	"testing"

	"github.com/mptledger/mptledger/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestTrie_GetProof(t *testing.T) {
	for _, secure := range []bool{false, true} {
		tr, _ := newTestTrie(t, secure)
		root := tr.putAll(t, util.Uint256{}, testPairs())

		t.Run("MissingKey", func(t *testing.T) {
			_, err := tr.GetProof(root, []byte{0x12})
			require.ErrorIs(t, err, ErrNotFound)
			_, err = tr.GetProof(util.Uint256{}, []byte{0x12})
			require.ErrorIs(t, err, ErrNotFound)
			_, err = tr.GetProof(root, make([]byte, MaxKeyLength+1))
			require.ErrorIs(t, err, ErrNotFound)
		})

		t.Run("Valid", func(t *testing.T) {
			for _, p := range testPairs() {
				proof, err := tr.GetProof(root, p[0])
				require.NoError(t, err)
				require.NotEmpty(t, proof)
				require.Equal(t, root, hashOf(proof[0]))

				v, ok := tr.VerifyProof(root, p[0], proof)
				require.True(t, ok, "key %x", p[0])
				require.Equal(t, p[1], v)
			}
		})
	}
}

func TestTrie_VerifyProof(t *testing.T) {
	tr, _ := newTestTrie(t, false)
	root := tr.putAll(t, util.Uint256{}, testPairs())
	key := []byte{0xAC, 0x01}
	proof, err := tr.GetProof(root, key)
	require.NoError(t, err)

	t.Run("WrongRoot", func(t *testing.T) {
		_, ok := tr.VerifyProof(hashOf([]byte{1}), key, proof)
		require.False(t, ok)
	})
	t.Run("WrongKey", func(t *testing.T) {
		_, ok := tr.VerifyProof(root, []byte{0xAC, 0x02}, proof)
		require.False(t, ok)
	})
	t.Run("Truncated", func(t *testing.T) {
		_, ok := tr.VerifyProof(root, key, proof[:len(proof)-1])
		require.False(t, ok)
	})
	t.Run("Tampered", func(t *testing.T) {
		bad := make([][]byte, len(proof))
		copy(bad, proof)
		last := append([]byte{}, proof[len(proof)-1]...)
		last[len(last)-1] ^= 0xFF
		bad[len(bad)-1] = last
		_, ok := tr.VerifyProof(root, key, bad)
		require.False(t, ok)
	})
	t.Run("OtherTrieMode", func(t *testing.T) {
		secure, _ := newTestTrie(t, true)
		_, ok := secure.VerifyProof(root, key, proof)
		require.False(t, ok)
	})
}
