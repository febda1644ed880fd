package p2p

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dmidem/near-handshake/pkg/log"
	"github.com/dmidem/near-handshake/types"
	pb "github.com/dmidem/near-handshake/types/pb/network"
)

const (
	// DefaultTimeout bounds dialing and every wait for a peer message.
	DefaultTimeout = time.Second
	// DefaultListenPort is the port advertised by a node with default settings.
	DefaultListenPort uint16 = 24567
)

// State is the position of a Connection in the handshake exchange.
type State int

const (
	// StateIdle: no request has been sent yet.
	StateIdle State = iota
	// StateAwaitingResponse: a request was written and its response is pending.
	StateAwaitingResponse
	// StateSucceeded: the peer accepted the handshake.
	StateSucceeded
	// StateFailed: the peer rejected the handshake or replied with something
	// other than a handshake. A GenesisMismatch failure may still be retried.
	StateFailed
	// StateBroken: the stream failed and the connection cannot be used again.
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateBroken:
		return "broken"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Connection is a client-side handshake session over one bidirectional
// stream. It owns the stream exclusively and is not safe for concurrent use.
type Connection struct {
	stream     io.ReadWriter
	targetID   types.PeerID
	listenPort uint16
	timeout    time.Duration

	// secretKey is the ephemeral identity generated for this connection.
	secretKey types.SecretKey
	localID   types.PeerID

	logger  log.Logger
	metrics *Metrics
	entropy io.Reader

	protocolVersion uint32

	state State
	// err is the stream failure that broke the connection.
	err error
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the connection logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithMetrics sets the connection metrics. Defaults to NopMetrics.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Connection) {
		c.metrics = metrics
	}
}

// WithEntropy replaces crypto/rand as the source of the ephemeral identity.
func WithEntropy(r io.Reader) Option {
	return func(c *Connection) {
		c.entropy = r
	}
}

// WithProtocolVersion sets the protocol version Connect proposes.
// Defaults to ProtocolVersion.
func WithProtocolVersion(version uint32) Option {
	return func(c *Connection) {
		c.protocolVersion = version
	}
}

// NewConnection wraps stream into a handshake session with targetID.
//
// A fresh ed25519 identity is generated for every connection; it is used to
// identify this side and sign the edge proposal, and is never persisted.
// A listenPort of zero means no port is advertised.
func NewConnection(
	stream io.ReadWriter,
	targetID types.PeerID,
	listenPort uint16,
	timeout time.Duration,
	opts ...Option,
) (*Connection, error) {
	if stream == nil {
		return nil, errors.New("stream is required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	c := &Connection{
		stream:          stream,
		targetID:        targetID,
		listenPort:      listenPort,
		timeout:         timeout,
		logger:          log.NewNopLogger(),
		metrics:         NopMetrics(),
		entropy:         rand.Reader,
		protocolVersion: ProtocolVersion,
	}
	for _, opt := range opts {
		opt(c)
	}

	sk, err := types.GenerateSecretKey(c.entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate connection key: %w", err)
	}
	c.secretKey = sk
	c.localID = sk.PeerID()
	c.logger = c.logger.With("peer", targetID.String())

	return c, nil
}

// Connect dials addr, which is either host:port or a multiaddr, and performs
// a handshake with the peer identified by targetID. When genesisID is nil
// the genesis is learned from the peer, see HandshakeWithOptionalGenesis.
//
// The stream is closed if the handshake fails. On success the caller owns
// the returned connection and its stream.
func Connect(
	ctx context.Context,
	addr string,
	targetID types.PeerID,
	listenPort uint16,
	timeout time.Duration,
	genesisID *types.GenesisID,
	headHeight uint64,
	opts ...Option,
) (*Connection, *types.HandshakeResponse, error) {
	network, address, err := DialArgs(addr)
	if err != nil {
		return nil, nil, err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		if isTimeout(err) {
			return nil, nil, fmt.Errorf("%w: dial %s: %w", ErrTimeout, addr, err)
		}
		return nil, nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	c, err := NewConnection(conn, targetID, listenPort, timeout, opts...)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, nil, err
	}

	resp, err := c.HandshakeWithOptionalGenesis(c.protocolVersion, genesisID, headHeight)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, nil, err
	}
	return c, resp, nil
}

// LocalID returns the ephemeral identity of this side of the connection.
func (c *Connection) LocalID() types.PeerID {
	return c.localID
}

// TargetID returns the identity expected on the other side.
func (c *Connection) TargetID() types.PeerID {
	return c.targetID
}

// State returns the current handshake state.
func (c *Connection) State() State {
	return c.state
}

// Close closes the underlying stream if it supports closing.
func (c *Connection) Close() error {
	if closer, ok := c.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WriteMessage writes one framed message to the stream.
func (c *Connection) WriteMessage(msg *pb.PeerMessage) error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := WriteMessage(c.stream, msg); err != nil {
		c.broke(err)
		return err
	}
	return nil
}

// ReadMessage waits up to the connection timeout for one framed message.
func (c *Connection) ReadMessage() (*pb.PeerMessage, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	msg, err := ReadMessageWithTimeout(c.stream, c.timeout)
	if err != nil {
		c.broke(err)
		return nil, err
	}
	return msg, nil
}

func (c *Connection) usable() error {
	if c.state == StateBroken {
		return fmt.Errorf("%w: %w", ErrConnectionBroken, c.err)
	}
	return nil
}

// broke marks the stream as unusable. A failed write may have sent a partial
// frame and a failed read may have consumed one, so framing is lost either way.
func (c *Connection) broke(err error) {
	c.state = StateBroken
	c.err = err
	c.logger.Debug("connection broken", "error", err)
}
