package types

import (
	"fmt"
)

// Handshake is one side's proposal to open a connection.
type Handshake struct {
	ProtocolVersion        uint32
	OldestSupportedVersion uint32
	SenderPeerID           PeerID
	TargetPeerID           PeerID
	// SenderListenPort is zero when the sender does not advertise a port.
	SenderListenPort uint16
	SenderChainInfo  PeerChainInfo
	PartialEdgeInfo  PartialEdgeInfo
}

// HasListenPort reports whether the sender advertised a listen port.
func (h *Handshake) HasListenPort() bool {
	return h.SenderListenPort != 0
}

// FailureReason tags the variant held by a HandshakeFailure.
type FailureReason int

const (
	ProtocolVersionMismatch FailureReason = iota + 1
	GenesisMismatch
	InvalidTarget
	// UnknownReason and ParseError only result from decoding a peer's
	// response; they have no wire representation.
	UnknownReason
	ParseError
)

func (r FailureReason) String() string {
	switch r {
	case ProtocolVersionMismatch:
		return "ProtocolVersionMismatch"
	case GenesisMismatch:
		return "GenesisMismatch"
	case InvalidTarget:
		return "InvalidTarget"
	case UnknownReason:
		return "UnknownReason"
	case ParseError:
		return "ParseError"
	default:
		return fmt.Sprintf("FailureReason(%d)", int(r))
	}
}

// HandshakeFailure is a handshake rejected by the peer, or a peer handshake
// that could not be parsed. Only the fields of the active Reason are set.
type HandshakeFailure struct {
	Reason FailureReason

	// ProtocolVersionMismatch
	Version                uint32
	OldestSupportedVersion uint32

	// GenesisMismatch: the genesis the peer is on.
	GenesisID GenesisID

	// ParseError
	Err error
}

func NewProtocolVersionMismatch(version, oldestSupportedVersion uint32) *HandshakeFailure {
	return &HandshakeFailure{
		Reason:                 ProtocolVersionMismatch,
		Version:                version,
		OldestSupportedVersion: oldestSupportedVersion,
	}
}

func NewGenesisMismatch(genesisID GenesisID) *HandshakeFailure {
	return &HandshakeFailure{Reason: GenesisMismatch, GenesisID: genesisID}
}

func NewInvalidTarget() *HandshakeFailure {
	return &HandshakeFailure{Reason: InvalidTarget}
}

func NewUnknownReason() *HandshakeFailure {
	return &HandshakeFailure{Reason: UnknownReason}
}

func NewParseError(err error) *HandshakeFailure {
	return &HandshakeFailure{Reason: ParseError, Err: err}
}

func (f *HandshakeFailure) Error() string {
	switch f.Reason {
	case ProtocolVersionMismatch:
		return fmt.Sprintf("handshake failure: protocol version mismatch (peer version %d, oldest supported %d)",
			f.Version, f.OldestSupportedVersion)
	case GenesisMismatch:
		return fmt.Sprintf("handshake failure: genesis mismatch (peer genesis %s)", f.GenesisID)
	case ParseError:
		return fmt.Sprintf("handshake failure: failed to parse peer handshake: %v", f.Err)
	default:
		return "handshake failure: " + f.Reason.String()
	}
}

func (f *HandshakeFailure) Unwrap() error {
	return f.Err
}

// HandshakeResponse is a handshake successfully received from the peer.
type HandshakeResponse struct {
	Handshake Handshake
}
