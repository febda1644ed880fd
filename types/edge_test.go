package types

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmidem/near-handshake/pkg/borsh"
)

func TestEdgeHashCanonicalOrder(t *testing.T) {
	a, b := GetTestPeerID(1), GetTestPeerID(2)

	// sha256(borsh(a) || borsh(b) || u64le(1))
	expected := "68c492a225688e17a9615c67923474dbd501577f12217717e1500d3c8827cc70"

	ab := EdgeHash(a, b, 1)
	ba := EdgeHash(b, a, 1)
	assert.Equal(t, expected, hex.EncodeToString(ab[:]))
	assert.Equal(t, ab, ba)
	assert.NotEqual(t, ab, EdgeHash(a, b, 2))
}

func TestNewPartialEdgeInfoOrderIndependent(t *testing.T) {
	sk := GetTestSecretKey(3)
	cases := []struct {
		name string
		a, b PeerID
	}{
		{"signer is lower", sk.PeerID(), GetTestPeerID(0xff)},
		{"signer is higher", sk.PeerID(), GetTestPeerID(0x00)},
		{"unrelated peers", GetTestPeerID(4), GetTestPeerID(5)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)

			ab, err := NewPartialEdgeInfo(c.a, c.b, 1, sk)
			require.NoError(err)
			ba, err := NewPartialEdgeInfo(c.b, c.a, 1, sk)
			require.NoError(err)

			require.Equal(ab, ba)
			require.NoError(ab.Verify(c.a, c.b, sk.PublicKey()))
			require.NoError(ab.Verify(c.b, c.a, sk.PublicKey()))
		})
	}
}

func TestPartialEdgeInfoVerifyDetectsTampering(t *testing.T) {
	sk := GetTestSecretKey(1)
	peer1, peer2 := sk.PeerID(), GetTestPeerID(2)

	edge, err := NewPartialEdgeInfo(peer1, peer2, 1, sk)
	require.NoError(t, err)
	require.NoError(t, edge.Verify(peer1, peer2, sk.PublicKey()))

	for i := range edge.Signature.Data() {
		sig := edge.Signature.Data()
		sig[i] ^= 0x01
		tampered, err := NewSignature(KeyTypeED25519, sig)
		require.NoError(t, err)
		e := PartialEdgeInfo{Nonce: edge.Nonce, Signature: tampered}
		assert.ErrorIs(t, e.Verify(peer1, peer2, sk.PublicKey()), ErrInvalidSignature, "byte %d", i)
	}

	wrongNonce := PartialEdgeInfo{Nonce: 2, Signature: edge.Signature}
	assert.ErrorIs(t, wrongNonce.Verify(peer1, peer2, sk.PublicKey()), ErrInvalidSignature)

	assert.ErrorIs(t, edge.Verify(peer1, GetTestPeerID(3), sk.PublicKey()), ErrInvalidSignature)
	assert.ErrorIs(t, edge.Verify(peer1, peer2, GetTestSecretKey(2).PublicKey()), ErrInvalidSignature)
}

func TestPartialEdgeInfoBorshLayout(t *testing.T) {
	edge, err := NewPartialEdgeInfo(GetTestPeerID(1), GetTestPeerID(2), 0x0102, GetTestSecretKey(1))
	require.NoError(t, err)

	data := borsh.Marshal(edge)
	require.Len(t, data, 8+1+64)
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, data[:8])
	assert.Equal(t, byte(KeyTypeED25519), data[8])
	assert.Equal(t, edge.Signature.Data(), data[9:])

	var decoded PartialEdgeInfo
	require.NoError(t, borsh.Unmarshal(data, &decoded))
	assert.Equal(t, edge, decoded)
}
