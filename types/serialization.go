package types

import (
	"bytes"
	"fmt"
	"math"

	"github.com/dmidem/near-handshake/pkg/borsh"
	pb "github.com/dmidem/near-handshake/types/pb/network"
)

// Structural fields map field by field onto the wire schema. Peer identities
// and edge proposals are Borsh-encoded and embedded as opaque byte blobs, so
// their byte layout does not depend on the wire schema.

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

func unmarshalEmbedded(data []byte, v borsh.Unmarshaler) error {
	if err := borsh.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEmbeddedEncoding, err)
	}
	return nil
}

// ToProto converts CryptoHash into protobuf representation and returns it.
func (h CryptoHash) ToProto() *pb.CryptoHash {
	return &pb.CryptoHash{Hash: bytes.Clone(h[:])}
}

// FromProto fills CryptoHash with data from protobuf representation.
func (h *CryptoHash) FromProto(other *pb.CryptoHash) error {
	if other == nil {
		return missing("hash")
	}
	v, err := CryptoHashFromBytes(other.Hash)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// ToProto converts PeerID into its embedded Borsh representation.
func (id PeerID) ToProto() *pb.PublicKey {
	return &pb.PublicKey{Borsh: borsh.Marshal(id)}
}

// FromProto decodes the embedded Borsh representation of a PeerID.
func (id *PeerID) FromProto(other *pb.PublicKey) error {
	if other == nil {
		return missing("peer_id")
	}
	var v PeerID
	if err := unmarshalEmbedded(other.Borsh, &v); err != nil {
		return err
	}
	*id = v
	return nil
}

// ToProto converts PartialEdgeInfo into its embedded Borsh representation.
func (e PartialEdgeInfo) ToProto() *pb.PartialEdgeInfo {
	return &pb.PartialEdgeInfo{Borsh: borsh.Marshal(e)}
}

// FromProto decodes the embedded Borsh representation of a PartialEdgeInfo.
func (e *PartialEdgeInfo) FromProto(other *pb.PartialEdgeInfo) error {
	if other == nil {
		return missing("partial_edge_info")
	}
	var v PartialEdgeInfo
	if err := unmarshalEmbedded(other.Borsh, &v); err != nil {
		return err
	}
	*e = v
	return nil
}

// ToProto converts GenesisID into protobuf representation and returns it.
func (g GenesisID) ToProto() *pb.GenesisId {
	return &pb.GenesisId{
		ChainId: g.ChainID,
		Hash:    g.Hash.ToProto(),
	}
}

// FromProto fills GenesisID with data from protobuf representation.
func (g *GenesisID) FromProto(other *pb.GenesisId) error {
	if other == nil {
		return missing("genesis_id")
	}
	var h CryptoHash
	if err := h.FromProto(other.Hash); err != nil {
		return fmt.Errorf("genesis_id: %w", err)
	}
	g.ChainID = other.ChainId
	g.Hash = h
	return nil
}

// ToProto converts PeerChainInfo into protobuf representation and returns it.
func (c *PeerChainInfo) ToProto() *pb.PeerChainInfo {
	var shards []uint64
	if len(c.TrackedShards) > 0 {
		shards = make([]uint64, len(c.TrackedShards))
		copy(shards, c.TrackedShards)
	}
	return &pb.PeerChainInfo{
		GenesisId:     c.GenesisID.ToProto(),
		Height:        c.Height,
		TrackedShards: shards,
		Archival:      c.Archival,
	}
}

// FromProto fills PeerChainInfo with data from protobuf representation.
func (c *PeerChainInfo) FromProto(other *pb.PeerChainInfo) error {
	if other == nil {
		return missing("sender_chain_info")
	}
	var g GenesisID
	if err := g.FromProto(other.GenesisId); err != nil {
		return fmt.Errorf("sender_chain_info: %w", err)
	}
	c.GenesisID = g
	c.Height = other.Height
	c.TrackedShards = nil
	if len(other.TrackedShards) > 0 {
		c.TrackedShards = make([]uint64, len(other.TrackedShards))
		copy(c.TrackedShards, other.TrackedShards)
	}
	c.Archival = other.Archival
	return nil
}

// ToProto converts Handshake into protobuf representation and returns it.
func (h *Handshake) ToProto() *pb.Handshake {
	return &pb.Handshake{
		ProtocolVersion:        h.ProtocolVersion,
		OldestSupportedVersion: h.OldestSupportedVersion,
		SenderPeerId:           h.SenderPeerID.ToProto(),
		TargetPeerId:           h.TargetPeerID.ToProto(),
		// the field is mandatory on the wire, 0 stands for "no port"
		SenderListenPort: uint32(h.SenderListenPort),
		SenderChainInfo:  h.SenderChainInfo.ToProto(),
		PartialEdgeInfo:  h.PartialEdgeInfo.ToProto(),
	}
}

// FromProto fills Handshake with data from protobuf representation.
func (h *Handshake) FromProto(other *pb.Handshake) error {
	if other == nil {
		return missing("handshake")
	}
	var v Handshake
	v.ProtocolVersion = other.ProtocolVersion
	v.OldestSupportedVersion = other.OldestSupportedVersion
	if other.SenderPeerId == nil {
		return missing("sender_peer_id")
	}
	if err := v.SenderPeerID.FromProto(other.SenderPeerId); err != nil {
		return fmt.Errorf("sender_peer_id: %w", err)
	}
	if other.TargetPeerId == nil {
		return missing("target_peer_id")
	}
	if err := v.TargetPeerID.FromProto(other.TargetPeerId); err != nil {
		return fmt.Errorf("target_peer_id: %w", err)
	}
	if other.SenderListenPort > math.MaxUint16 {
		return fmt.Errorf("%w: sender_listen_port %d", ErrOutOfRange, other.SenderListenPort)
	}
	v.SenderListenPort = uint16(other.SenderListenPort)
	if err := v.SenderChainInfo.FromProto(other.SenderChainInfo); err != nil {
		return err
	}
	if err := v.PartialEdgeInfo.FromProto(other.PartialEdgeInfo); err != nil {
		return fmt.Errorf("partial_edge_info: %w", err)
	}
	*h = v
	return nil
}

// MarshalBinary encodes Handshake into binary form and returns it.
func (h *Handshake) MarshalBinary() ([]byte, error) {
	return h.ToProto().Marshal()
}

// UnmarshalBinary decodes binary form of Handshake into object.
func (h *Handshake) UnmarshalBinary(data []byte) error {
	var pHandshake pb.Handshake
	if err := pHandshake.Unmarshal(data); err != nil {
		return err
	}
	return h.FromProto(&pHandshake)
}

// ToProto converts HandshakeFailure into protobuf representation.
//
// UnknownReason and ParseError have no wire representation: converting them
// is a programming error and panics.
func (f *HandshakeFailure) ToProto() *pb.HandshakeFailure {
	switch f.Reason {
	case ProtocolVersionMismatch:
		return &pb.HandshakeFailure{
			Reason:                 pb.HandshakeFailure_ProtocolVersionMismatch,
			Version:                f.Version,
			OldestSupportedVersion: f.OldestSupportedVersion,
		}
	case GenesisMismatch:
		return &pb.HandshakeFailure{
			Reason:    pb.HandshakeFailure_GenesisMismatch,
			GenesisId: f.GenesisID.ToProto(),
		}
	case InvalidTarget:
		return &pb.HandshakeFailure{
			Reason: pb.HandshakeFailure_InvalidTarget,
		}
	default:
		panic(fmt.Sprintf("handshake failure %s has no wire representation", f.Reason))
	}
}

// FromProto fills HandshakeFailure with data from protobuf representation.
// Reasons unknown to this client decode as UnknownReason.
func (f *HandshakeFailure) FromProto(other *pb.HandshakeFailure) error {
	if other == nil {
		return missing("handshake_failure")
	}
	switch other.Reason {
	case pb.HandshakeFailure_ProtocolVersionMismatch:
		*f = *NewProtocolVersionMismatch(other.Version, other.OldestSupportedVersion)
	case pb.HandshakeFailure_GenesisMismatch:
		var g GenesisID
		if err := g.FromProto(other.GenesisId); err != nil {
			return err
		}
		*f = *NewGenesisMismatch(g)
	case pb.HandshakeFailure_InvalidTarget:
		*f = *NewInvalidTarget()
	default:
		*f = *NewUnknownReason()
	}
	return nil
}

// ToPeerMessage wraps the handshake into an envelope.
func (h *Handshake) ToPeerMessage() *pb.PeerMessage {
	return &pb.PeerMessage{MessageType: &pb.PeerMessage_Handshake{Handshake: h.ToProto()}}
}

// ToPeerMessage wraps the failure into an envelope. It panics for the
// decode-only reasons, see ToProto.
func (f *HandshakeFailure) ToPeerMessage() *pb.PeerMessage {
	return &pb.PeerMessage{MessageType: &pb.PeerMessage_HandshakeFailure{HandshakeFailure: f.ToProto()}}
}

// HandshakeResponseFromPeerMessage interprets the peer's reply to a handshake.
//
// A handshake is returned as a response. A handshake failure is returned as
// a *HandshakeFailure error, and a handshake that does not parse as a
// ParseError failure. Envelopes with no case fail with ErrInvalidResponse,
// envelopes with any other case with ErrUnexpectedResponse.
func HandshakeResponseFromPeerMessage(msg *pb.PeerMessage) (*HandshakeResponse, error) {
	switch x := msg.MessageType.(type) {
	case nil:
		return nil, ErrInvalidResponse
	case *pb.PeerMessage_Handshake:
		var h Handshake
		if err := h.FromProto(x.Handshake); err != nil {
			return nil, NewParseError(err)
		}
		return &HandshakeResponse{Handshake: h}, nil
	case *pb.PeerMessage_HandshakeFailure:
		var f HandshakeFailure
		if err := f.FromProto(x.HandshakeFailure); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		return nil, &f
	case *pb.PeerMessage_Other:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, x.Name())
	default:
		return nil, ErrUnexpectedResponse
	}
}
