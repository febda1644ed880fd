package p2p

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	pb "github.com/dmidem/near-handshake/types/pb/network"
)

const (
	// prefixSize is the size of the little-endian payload length preceding
	// every message on the stream.
	prefixSize = 4

	// MaxMessageSize is the largest payload accepted from or sent to a peer.
	MaxMessageSize = 512 << 20

	// initialReadBuffer caps the allocation made up front for a payload, so a
	// hostile length prefix alone cannot force a large allocation.
	initialReadBuffer = 64 << 10
)

var errMessageTooLarge = errors.New("message exceeds maximum size")

// WriteMessage frames msg with its length prefix and writes it to w in a
// single call.
func WriteMessage(w io.Writer, msg *pb.PeerMessage) error {
	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", errMessageTooLarge, len(payload))
	}

	frame := make([]byte, prefixSize+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[prefixSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// ReadMessage reads exactly one framed message from r. Bytes following the
// frame are left unread.
func ReadMessage(r io.Reader) (*pb.PeerMessage, error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, readError(err)
	}

	length := binary.LittleEndian.Uint32(prefix[:])
	if length > MaxMessageSize {
		return nil, &MalformedMessageError{Length: length, Err: errMessageTooLarge}
	}

	buf := bytes.NewBuffer(make([]byte, 0, min(int(length), initialReadBuffer)))
	if _, err := io.CopyN(buf, r, int64(length)); err != nil {
		return nil, readError(err)
	}

	msg := &pb.PeerMessage{}
	if err := msg.Unmarshal(buf.Bytes()); err != nil {
		return nil, &MalformedMessageError{Length: length, Err: err}
	}
	return msg, nil
}

// deadlineReader is implemented by streams such as net.Conn that can bound
// a blocking read themselves.
type deadlineReader interface {
	SetReadDeadline(t time.Time) error
}

// ReadMessageWithTimeout is ReadMessage bounded by timeout.
//
// Streams that implement SetReadDeadline are bounded through a read
// deadline. Any other stream is read on a separate goroutine; if the timeout
// fires first that goroutine stays blocked until the stream is closed, and
// the stream must not be read again.
func ReadMessageWithTimeout(r io.Reader, timeout time.Duration) (*pb.PeerMessage, error) {
	if d, ok := r.(deadlineReader); ok {
		if err := d.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
		defer d.SetReadDeadline(time.Time{}) //nolint:errcheck

		msg, err := ReadMessage(r)
		if err != nil && isTimeout(err) {
			return nil, fmt.Errorf("%w: no message within %s: %w", ErrTimeout, timeout, err)
		}
		return msg, err
	}

	type result struct {
		msg *pb.PeerMessage
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := ReadMessage(r)
		done <- result{msg: msg, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.msg, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%w: no message within %s", ErrTimeout, timeout)
	}
}

func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrUnexpectedEndOfStream, err)
	}
	return fmt.Errorf("failed to read message: %w", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
