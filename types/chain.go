package types

import "fmt"

// GenesisID identifies a chain instance. The zero value is the sentinel sent
// when the peer's genesis is not known yet.
type GenesisID struct {
	ChainID string
	Hash    CryptoHash
}

func (g GenesisID) IsZero() bool {
	return g.ChainID == "" && g.Hash.IsZero()
}

func (g GenesisID) String() string {
	return fmt.Sprintf("%s/%s", g.ChainID, g.Hash)
}

// PeerChainInfo describes the sender's chain state at handshake time.
type PeerChainInfo struct {
	GenesisID     GenesisID
	Height        uint64
	TrackedShards []uint64
	Archival      bool
}
