package types

import (
	"bytes"
	"fmt"
)

// GetTestSecretKey returns a deterministic ed25519 key derived from seed.
func GetTestSecretKey(seed byte) SecretKey {
	sk, err := GenerateSecretKey(bytes.NewReader(bytes.Repeat([]byte{seed}, 32)))
	if err != nil {
		panic(fmt.Sprintf("failed to generate test key: %v", err))
	}
	return sk
}

// GetTestPeerID returns an ed25519 peer id whose key bytes are all b.
func GetTestPeerID(b byte) PeerID {
	key, err := NewPublicKey(KeyTypeED25519, bytes.Repeat([]byte{b}, 32))
	if err != nil {
		panic(err)
	}
	return NewPeerID(key)
}

// GetRandomHandshake returns a fully populated handshake signed by sk.
func GetRandomHandshake(sk SecretKey, target PeerID) *Handshake {
	sender := sk.PeerID()
	edge, err := NewPartialEdgeInfo(sender, target, 1, sk)
	if err != nil {
		panic(err)
	}
	var hash CryptoHash
	for i := range hash {
		hash[i] = byte(i)
	}
	return &Handshake{
		ProtocolVersion:        63,
		OldestSupportedVersion: 61,
		SenderPeerID:           sender,
		TargetPeerID:           target,
		SenderListenPort:       24567,
		SenderChainInfo: PeerChainInfo{
			GenesisID:     GenesisID{ChainID: "localnet", Hash: hash},
			Height:        100,
			TrackedShards: []uint64{0, 3},
			Archival:      true,
		},
		PartialEdgeInfo: edge,
	}
}
