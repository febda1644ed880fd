package p2p

import (
	"errors"
	"time"

	"github.com/dmidem/near-handshake/types"
)

const (
	// ProtocolVersion is the protocol version proposed by default.
	ProtocolVersion uint32 = 63

	// supportedVersionWindow is how many versions below the proposed one are
	// still advertised as supported.
	supportedVersionWindow = 2

	// edgeNonce is the nonce of the edge proposed by a fresh identity.
	edgeNonce = 1
)

// CreateHandshake builds a signed handshake request from this connection to
// its target.
func (c *Connection) CreateHandshake(
	protocolVersion uint32,
	genesisID types.GenesisID,
	headHeight uint64,
) (*types.Handshake, error) {
	if protocolVersion < supportedVersionWindow {
		return nil, ErrInvalidProtocolVersion
	}

	edge, err := types.NewPartialEdgeInfo(c.localID, c.targetID, edgeNonce, c.secretKey)
	if err != nil {
		return nil, err
	}

	return &types.Handshake{
		ProtocolVersion:        protocolVersion,
		OldestSupportedVersion: protocolVersion - supportedVersionWindow,
		SenderPeerID:           c.localID,
		TargetPeerID:           c.targetID,
		SenderListenPort:       c.listenPort,
		SenderChainInfo: types.PeerChainInfo{
			GenesisID: genesisID,
			Height:    headHeight,
		},
		PartialEdgeInfo: edge,
	}, nil
}

// Handshake sends a single handshake request and interprets the reply.
//
// A rejection by the peer is returned as a *types.HandshakeFailure error.
// A peer handshake that cannot be parsed is a ParseError failure. Replies
// with no message are ErrInvalidResponse and replies with any other message
// are ErrUnexpectedResponse. Stream failures break the connection.
func (c *Connection) Handshake(
	protocolVersion uint32,
	genesisID types.GenesisID,
	headHeight uint64,
) (*types.HandshakeResponse, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}

	req, err := c.CreateHandshake(protocolVersion, genesisID, headHeight)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending handshake",
		"version", protocolVersion,
		"genesis", genesisID.String(),
		"height", headHeight,
		"local", c.localID.String())

	start := time.Now()
	c.metrics.Attempts.Add(1)

	if err := c.WriteMessage(req.ToPeerMessage()); err != nil {
		c.observeFailure(err)
		return nil, err
	}
	c.state = StateAwaitingResponse

	msg, err := c.ReadMessage()
	if err != nil {
		c.observeFailure(err)
		return nil, err
	}
	c.metrics.Duration.Observe(time.Since(start).Seconds())

	resp, err := types.HandshakeResponseFromPeerMessage(msg)
	if err != nil {
		c.state = StateFailed
		c.observeFailure(err)
		return nil, err
	}

	c.state = StateSucceeded
	c.logger.Info("handshake succeeded",
		"version", resp.Handshake.ProtocolVersion,
		"genesis", resp.Handshake.SenderChainInfo.GenesisID.String(),
		"height", resp.Handshake.SenderChainInfo.Height)
	return resp, nil
}

// HandshakeWithOptionalGenesis performs a handshake, learning the genesis
// from the peer when genesisID is nil.
//
// Without a genesis the first request carries the zero genesis. If the peer
// rejects it with GenesisMismatch, exactly one more request is sent with the
// genesis the peer reported and its outcome is final. Any other outcome of
// the first request, including success, is returned as is.
func (c *Connection) HandshakeWithOptionalGenesis(
	protocolVersion uint32,
	genesisID *types.GenesisID,
	headHeight uint64,
) (*types.HandshakeResponse, error) {
	if genesisID != nil {
		return c.Handshake(protocolVersion, *genesisID, headHeight)
	}

	resp, err := c.Handshake(protocolVersion, types.GenesisID{}, headHeight)

	var failure *types.HandshakeFailure
	if errors.As(err, &failure) && failure.Reason == types.GenesisMismatch {
		c.logger.Info("retrying handshake with peer genesis", "genesis", failure.GenesisID.String())
		c.metrics.GenesisRetries.Add(1)
		return c.Handshake(protocolVersion, failure.GenesisID, headHeight)
	}
	return resp, err
}

func (c *Connection) observeFailure(err error) {
	reason := failureLabel(err)
	c.metrics.Failures.With("reason", reason).Add(1)
	c.logger.Debug("handshake failed", "reason", reason, "error", err)
}

func failureLabel(err error) string {
	var failure *types.HandshakeFailure
	switch {
	case errors.As(err, &failure):
		return failure.Reason.String()
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnexpectedEndOfStream):
		return "end_of_stream"
	case errors.Is(err, ErrMalformedMessage):
		return "malformed_message"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrUnexpectedResponse):
		return "unexpected_response"
	default:
		return "io"
	}
}
