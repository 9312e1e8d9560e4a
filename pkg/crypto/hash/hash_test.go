package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	input := []byte("hello")
	data := Sha256(input)

	expected := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	actual := hex.EncodeToString(data.BytesBE())

	assert.Equal(t, expected, actual)
}

func TestSha256Empty(t *testing.T) {
	expected := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	assert.Equal(t, expected, Sha256(nil).StringBE())
}

func TestKeccak256(t *testing.T) {
	expected := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	assert.Equal(t, expected, Keccak256().StringBE())
	assert.Equal(t, expected, Keccak256(nil).StringBE())

	whole := Keccak256([]byte("hello world"))
	parts := Keccak256([]byte("hello "), []byte("world"))
	require.Equal(t, whole, parts)
	assert.Equal(t, "47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad", whole.StringBE())
}
