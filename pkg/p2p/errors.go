package p2p

import (
	"errors"
	"fmt"

	"github.com/dmidem/near-handshake/types"
)

var (
	// ErrUnexpectedEndOfStream is returned when the stream ends before a full
	// length prefix or a full payload could be read.
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")
	// ErrMalformedMessage matches every *MalformedMessageError.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrTimeout is returned when no message arrives within the connection timeout.
	ErrTimeout = errors.New("timeout")
	// ErrConnectionBroken is returned by every operation on a connection whose
	// stream failed earlier. The connection must be discarded.
	ErrConnectionBroken = errors.New("connection broken")
	// ErrInvalidProtocolVersion is returned when no oldest supported version
	// can be derived from the requested protocol version.
	ErrInvalidProtocolVersion = errors.New("invalid protocol version")

	ErrInvalidResponse    = types.ErrInvalidResponse
	ErrUnexpectedResponse = types.ErrUnexpectedResponse
)

// MalformedMessageError reports a complete frame whose payload could not be
// decoded, or a length prefix above MaxMessageSize.
type MalformedMessageError struct {
	Length uint32
	Err    error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("error parsing message (length: %d): %v", e.Length, e.Err)
}

func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformedMessage
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}
