// Package network holds the structural wire schema exchanged between peers
// (see proto/network/network.proto) and its protobuf wire-format codec.
package network

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// HandshakeFailure_Reason enumerates why a peer rejected a handshake.
type HandshakeFailure_Reason int32 //nolint:revive

const (
	HandshakeFailure_UNKNOWN                 HandshakeFailure_Reason = 0 //nolint:revive
	HandshakeFailure_ProtocolVersionMismatch HandshakeFailure_Reason = 1 //nolint:revive
	HandshakeFailure_GenesisMismatch         HandshakeFailure_Reason = 2 //nolint:revive
	HandshakeFailure_InvalidTarget           HandshakeFailure_Reason = 3 //nolint:revive
)

var handshakeFailureReasonNames = map[HandshakeFailure_Reason]string{
	HandshakeFailure_UNKNOWN:                 "UNKNOWN",
	HandshakeFailure_ProtocolVersionMismatch: "ProtocolVersionMismatch",
	HandshakeFailure_GenesisMismatch:         "GenesisMismatch",
	HandshakeFailure_InvalidTarget:           "InvalidTarget",
}

func (r HandshakeFailure_Reason) String() string {
	if name, ok := handshakeFailureReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reason(%d)", int32(r))
}

// Field numbers of the PeerMessage oneof.
const (
	FieldHandshake        protowire.Number = 4
	FieldHandshakeFailure protowire.Number = 5
	FieldDisconnect       protowire.Number = 18

	// firstOtherField..lastOtherField are the remaining oneof cases; they are
	// never decoded by this client.
	firstOtherField protowire.Number = 6
	lastOtherField  protowire.Number = 25
)

var otherMessageNames = map[protowire.Number]string{
	6:  "LastEdge",
	7:  "SyncRoutingTable",
	8:  "UpdateNonceRequest",
	9:  "UpdateNonceResponse",
	10: "PeersRequest",
	11: "PeersResponse",
	12: "BlockHeadersRequest",
	13: "BlockHeadersResponse",
	14: "BlockRequest",
	15: "BlockResponse",
	16: "Transaction",
	17: "Routed",
	18: "Disconnect",
	19: "Challenge",
}

// CryptoHash is a 32-byte digest.
type CryptoHash struct {
	Hash []byte
}

// PublicKey carries a Borsh-encoded public key.
type PublicKey struct {
	Borsh []byte
}

// PartialEdgeInfo carries a Borsh-encoded nonce and signature.
type PartialEdgeInfo struct {
	Borsh []byte
}

type GenesisId struct { //nolint:revive
	ChainId string //nolint:revive
	Hash    *CryptoHash
}

type PeerChainInfo struct {
	GenesisId     *GenesisId //nolint:revive
	Height        uint64
	TrackedShards []uint64
	Archival      bool
}

type Handshake struct {
	ProtocolVersion        uint32
	OldestSupportedVersion uint32
	SenderPeerId           *PublicKey //nolint:revive
	TargetPeerId           *PublicKey //nolint:revive
	SenderListenPort       uint32
	SenderChainInfo        *PeerChainInfo
	PartialEdgeInfo        *PartialEdgeInfo
}

type HandshakeFailure struct {
	Reason HandshakeFailure_Reason
	// PeerInfo is kept as the raw encoded message.
	PeerInfo               []byte
	GenesisId              *GenesisId //nolint:revive
	Version                uint32
	OldestSupportedVersion uint32
}

// PeerMessage is the envelope of every message exchanged between peers.
// Exactly one case of MessageType is set on a well-formed message.
type PeerMessage struct {
	MessageType isPeerMessage_MessageType
}

type isPeerMessage_MessageType interface { //nolint:revive
	isPeerMessage_MessageType()
}

type PeerMessage_Handshake struct { //nolint:revive
	Handshake *Handshake
}

type PeerMessage_HandshakeFailure struct { //nolint:revive
	HandshakeFailure *HandshakeFailure
}

// PeerMessage_Other is any oneof case this client does not interpret, for
// example a post-handshake routing or block message.
type PeerMessage_Other struct { //nolint:revive
	Field   protowire.Number
	Payload []byte
}

func (*PeerMessage_Handshake) isPeerMessage_MessageType()        {}
func (*PeerMessage_HandshakeFailure) isPeerMessage_MessageType() {}
func (*PeerMessage_Other) isPeerMessage_MessageType()            {}

// Name returns a readable name of the carried message kind.
func (o *PeerMessage_Other) Name() string {
	if name, ok := otherMessageNames[o.Field]; ok {
		return name
	}
	return fmt.Sprintf("Field%d", int32(o.Field))
}

func (m *PeerMessage) GetHandshake() *Handshake {
	if x, ok := m.MessageType.(*PeerMessage_Handshake); ok {
		return x.Handshake
	}
	return nil
}

func (m *PeerMessage) GetHandshakeFailure() *HandshakeFailure {
	if x, ok := m.MessageType.(*PeerMessage_HandshakeFailure); ok {
		return x.HandshakeFailure
	}
	return nil
}
