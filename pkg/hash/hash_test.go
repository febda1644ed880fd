package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	// sha256("abc")
	expected := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	whole := Sum([]byte("abc"))
	assert.Equal(t, expected, hex.EncodeToString(whole[:]))

	split := Sum([]byte("a"), nil, []byte("bc"))
	assert.Equal(t, whole, split)
}
