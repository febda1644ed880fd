package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/dmidem/near-handshake/types/pb/network"
)

func TestHandshakeSerializationRoundTrip(t *testing.T) {
	sk := GetTestSecretKey(1)
	full := GetRandomHandshake(sk, GetTestPeerID(2))

	noPort := GetRandomHandshake(sk, GetTestPeerID(2))
	noPort.SenderListenPort = 0

	sentinel := GetRandomHandshake(sk, GetTestPeerID(2))
	sentinel.SenderChainInfo = PeerChainInfo{}

	cases := []struct {
		name      string
		handshake *Handshake
	}{
		{"full", full},
		{"no listen port", noPort},
		{"sentinel genesis", sentinel},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)

			blob, err := c.handshake.MarshalBinary()
			require.NoError(err)
			require.NotEmpty(blob)

			decoded := &Handshake{}
			require.NoError(decoded.UnmarshalBinary(blob))
			require.Equal(c.handshake, decoded)
			require.Equal(c.handshake.HasListenPort(), decoded.HasListenPort())
			require.NoError(decoded.PartialEdgeInfo.Verify(decoded.SenderPeerID, decoded.TargetPeerID, sk.PublicKey()))
		})
	}
}

func TestHandshakeFromProtoErrors(t *testing.T) {
	valid := func() *pb.Handshake {
		return GetRandomHandshake(GetTestSecretKey(1), GetTestPeerID(2)).ToProto()
	}

	cases := []struct {
		name     string
		mutate   func(h *pb.Handshake)
		expected error
	}{
		{"missing sender", func(h *pb.Handshake) { h.SenderPeerId = nil }, ErrMissingField},
		{"missing target", func(h *pb.Handshake) { h.TargetPeerId = nil }, ErrMissingField},
		{"missing chain info", func(h *pb.Handshake) { h.SenderChainInfo = nil }, ErrMissingField},
		{"missing genesis", func(h *pb.Handshake) { h.SenderChainInfo.GenesisId = nil }, ErrMissingField},
		{"missing genesis hash", func(h *pb.Handshake) { h.SenderChainInfo.GenesisId.Hash = nil }, ErrMissingField},
		{"short genesis hash", func(h *pb.Handshake) { h.SenderChainInfo.GenesisId.Hash.Hash = []byte{1} }, ErrInvalidHashLength},
		{"missing edge", func(h *pb.Handshake) { h.PartialEdgeInfo = nil }, ErrMissingField},
		{"port out of range", func(h *pb.Handshake) { h.SenderListenPort = math.MaxUint16 + 1 }, ErrOutOfRange},
		{"truncated sender blob", func(h *pb.Handshake) { h.SenderPeerId.Borsh = h.SenderPeerId.Borsh[:10] }, ErrMalformedEmbeddedEncoding},
		{"trailing bytes in target blob", func(h *pb.Handshake) {
			h.TargetPeerId.Borsh = append(h.TargetPeerId.Borsh, 0)
		}, ErrMalformedEmbeddedEncoding},
		{"invalid key type in blob", func(h *pb.Handshake) { h.SenderPeerId.Borsh[0] = 9 }, ErrMalformedEmbeddedEncoding},
		{"truncated edge blob", func(h *pb.Handshake) {
			h.PartialEdgeInfo.Borsh = h.PartialEdgeInfo.Borsh[:8]
		}, ErrMalformedEmbeddedEncoding},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := valid()
			c.mutate(h)
			var decoded Handshake
			assert.ErrorIs(t, decoded.FromProto(h), c.expected)
		})
	}

	t.Run("max port", func(t *testing.T) {
		h := valid()
		h.SenderListenPort = math.MaxUint16
		var decoded Handshake
		require.NoError(t, decoded.FromProto(h))
		assert.Equal(t, uint16(math.MaxUint16), decoded.SenderListenPort)
	})
}

func TestHandshakeFailureRoundTrip(t *testing.T) {
	cases := []*HandshakeFailure{
		NewProtocolVersionMismatch(63, 61),
		NewGenesisMismatch(GenesisID{ChainID: "testnet", Hash: CryptoHash{1, 2, 3}}),
		NewGenesisMismatch(GenesisID{}),
		NewInvalidTarget(),
	}

	for _, failure := range cases {
		t.Run(failure.Reason.String(), func(t *testing.T) {
			msg := failure.ToPeerMessage()
			data, err := msg.Marshal()
			require.NoError(t, err)

			var decodedMsg pb.PeerMessage
			require.NoError(t, decodedMsg.Unmarshal(data))

			resp, err := HandshakeResponseFromPeerMessage(&decodedMsg)
			assert.Nil(t, resp)
			var decoded *HandshakeFailure
			require.ErrorAs(t, err, &decoded)
			assert.Equal(t, failure, decoded)
		})
	}
}

func TestHandshakeFailureToProtoPanicsForDecodeOnlyReasons(t *testing.T) {
	assert.Panics(t, func() { NewUnknownReason().ToProto() })
	assert.Panics(t, func() { NewParseError(ErrMissingField).ToPeerMessage() })
}

func TestHandshakeFailureFromProto(t *testing.T) {
	var f HandshakeFailure
	require.NoError(t, f.FromProto(&pb.HandshakeFailure{Reason: pb.HandshakeFailure_UNKNOWN}))
	assert.Equal(t, UnknownReason, f.Reason)

	require.NoError(t, f.FromProto(&pb.HandshakeFailure{Reason: 42}))
	assert.Equal(t, UnknownReason, f.Reason)

	err := f.FromProto(&pb.HandshakeFailure{Reason: pb.HandshakeFailure_GenesisMismatch})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestHandshakeResponseFromPeerMessage(t *testing.T) {
	h := GetRandomHandshake(GetTestSecretKey(1), GetTestPeerID(2))

	t.Run("handshake", func(t *testing.T) {
		resp, err := HandshakeResponseFromPeerMessage(h.ToPeerMessage())
		require.NoError(t, err)
		assert.Equal(t, *h, resp.Handshake)
	})

	t.Run("no case", func(t *testing.T) {
		_, err := HandshakeResponseFromPeerMessage(&pb.PeerMessage{})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("out of scope case", func(t *testing.T) {
		msg := &pb.PeerMessage{MessageType: &pb.PeerMessage_Other{Field: pb.FieldDisconnect}}
		_, err := HandshakeResponseFromPeerMessage(msg)
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})

	t.Run("unparsable handshake", func(t *testing.T) {
		p := h.ToProto()
		p.PartialEdgeInfo = nil
		msg := &pb.PeerMessage{MessageType: &pb.PeerMessage_Handshake{Handshake: p}}
		_, err := HandshakeResponseFromPeerMessage(msg)

		var failure *HandshakeFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, ParseError, failure.Reason)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("unparsable failure", func(t *testing.T) {
		msg := &pb.PeerMessage{MessageType: &pb.PeerMessage_HandshakeFailure{
			HandshakeFailure: &pb.HandshakeFailure{Reason: pb.HandshakeFailure_GenesisMismatch},
		}}
		_, err := HandshakeResponseFromPeerMessage(msg)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}
