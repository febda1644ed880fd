package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmidem/near-handshake/pkg/borsh"
)

func TestSecretKey(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sk := GetTestSecretKey(1)
	assert.True(sk.PublicKey().Equal(GetTestSecretKey(1).PublicKey()))
	assert.False(sk.PublicKey().Equal(GetTestSecretKey(2).PublicKey()))
	assert.NotContains(sk.String(), sk.PublicKey().String())
	assert.Equal(NewPeerID(sk.PublicKey()), sk.PeerID())

	sig, err := sk.Sign([]byte("msg"))
	require.NoError(err)
	assert.Equal(KeyTypeED25519, sig.Type())
	assert.Len(sig.Data(), 64)

	ok, err := sk.PublicKey().Verify([]byte("msg"), sig)
	require.NoError(err)
	assert.True(ok)

	ok, err = sk.PublicKey().Verify([]byte("other"), sig)
	require.NoError(err)
	assert.False(ok)

	text, err := sk.Text()
	require.NoError(err)
	parsed, err := SecretKeyFromString(text)
	require.NoError(err)
	assert.True(parsed.PublicKey().Equal(sk.PublicKey()))
}

func TestSecretKeyFromStringErrors(t *testing.T) {
	for _, s := range []string{
		"ed25519:0OIl",
		"ed25519:" + "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
		"secp256k1:4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
		"rsa:4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
	} {
		_, err := SecretKeyFromString(s)
		assert.Error(t, err, s)
	}
}

func TestNewSignature(t *testing.T) {
	cases := []struct {
		name      string
		keyType   KeyType
		size      int
		expectErr bool
	}{
		{"ed25519", KeyTypeED25519, 64, false},
		{"secp256k1", KeyTypeSECP256K1, 65, false},
		{"short ed25519", KeyTypeED25519, 63, true},
		{"secp256k1 with ed25519 size", KeyTypeSECP256K1, 64, true},
		{"unknown type", KeyType(7), 64, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{9}, c.size)
			sig, err := NewSignature(c.keyType, data)
			if c.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			data[0] = 0
			assert.Equal(t, byte(9), sig.Data()[0], "signature should own its bytes")

			encoded := borsh.Marshal(sig)
			assert.Len(t, encoded, 1+c.size)
			assert.Equal(t, byte(c.keyType), encoded[0])

			var decoded Signature
			require.NoError(t, borsh.Unmarshal(encoded, &decoded))
			assert.Equal(t, sig, decoded)
		})
	}
}

func TestSignatureString(t *testing.T) {
	sig, err := NewSignature(KeyTypeED25519, make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, "ed25519:"+CryptoHash{}.String()+CryptoHash{}.String(), sig.String())
}
