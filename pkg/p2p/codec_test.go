package p2p

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmidem/near-handshake/types"
	pb "github.com/dmidem/near-handshake/types/pb/network"
)

func frame(length uint32, payload []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, length)
	return append(b, payload...)
}

func TestWriteMessageFraming(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	msg := &pb.PeerMessage{MessageType: &pb.PeerMessage_Handshake{Handshake: &pb.Handshake{
		ProtocolVersion:        63,
		OldestSupportedVersion: 61,
		SenderListenPort:       24567,
	}}}

	var buf bytes.Buffer
	require.NoError(WriteMessage(&buf, msg))

	payload := []byte{0x22, 0x08, 0x08, 0x3f, 0x10, 0x3d, 0x28, 0xf7, 0xbf, 0x01}
	require.Equal(frame(uint32(len(payload)), payload), buf.Bytes())
}

func TestMessageRoundTrip(t *testing.T) {
	t.Parallel()

	sk := types.GetTestSecretKey(1)
	handshake := types.GetRandomHandshake(sk, types.GetTestPeerID(2))
	failure := types.NewProtocolVersionMismatch(64, 62)

	cases := []struct {
		name string
		msg  *pb.PeerMessage
	}{
		{"handshake", handshake.ToPeerMessage()},
		{"handshake failure", failure.ToPeerMessage()},
		{"other", &pb.PeerMessage{MessageType: &pb.PeerMessage_Other{Field: pb.FieldDisconnect, Payload: []byte{1, 2}}}},
		{"empty", &pb.PeerMessage{}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, WriteMessage(&buf, c.msg))

			decoded, err := ReadMessage(&buf)
			require.NoError(t, err)
			assert.Equal(t, c.msg, decoded)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestReadMessageLeavesFollowingBytes(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	first := types.NewInvalidTarget().ToPeerMessage()
	second := types.GetRandomHandshake(types.GetTestSecretKey(3), types.GetTestPeerID(4)).ToPeerMessage()

	var buf bytes.Buffer
	require.NoError(WriteMessage(&buf, first))
	require.NoError(WriteMessage(&buf, second))

	msg, err := ReadMessage(&buf)
	require.NoError(err)
	require.Equal(first, msg)

	msg, err = ReadMessage(&buf)
	require.NoError(err)
	require.Equal(second, msg)
}

func TestReadMessageErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		input     []byte
		err       error
		length    uint32
		malformed bool
	}{
		{"empty stream", nil, ErrUnexpectedEndOfStream, 0, false},
		{"partial prefix", []byte{1, 2}, ErrUnexpectedEndOfStream, 0, false},
		{"truncated payload", frame(10, []byte{0x22, 0x08, 0x08, 0x3f}), ErrUnexpectedEndOfStream, 0, false},
		{"invalid payload", frame(2, []byte{0xff, 0xff}), ErrMalformedMessage, 2, true},
		{"wrong wire type for handshake", frame(2, []byte{0x20, 0x01}), ErrMalformedMessage, 2, true},
		{"oversized prefix", frame(MaxMessageSize+1, nil), ErrMalformedMessage, MaxMessageSize + 1, true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := bytes.NewReader(c.input)

			msg, err := ReadMessage(r)
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, c.err)

			var malformed *MalformedMessageError
			assert.Equal(t, c.malformed, errors.As(err, &malformed))
			if c.malformed {
				assert.Equal(t, c.length, malformed.Length)
			}
		})
	}
}

func TestReadMessageConsumesDeliveredBytes(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader(frame(100, bytes.Repeat([]byte{0x01}, 40)))
	_, err := ReadMessage(r)
	require.ErrorIs(t, err, ErrUnexpectedEndOfStream)
	assert.Zero(t, r.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestWriteMessageErrors(t *testing.T) {
	t.Parallel()

	err := WriteMessage(failingWriter{}, types.NewInvalidTarget().ToPeerMessage())
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	err = WriteMessage(&bytes.Buffer{}, &pb.PeerMessage{MessageType: &pb.PeerMessage_Other{Field: 99}})
	assert.Error(t, err)
}

// blockingReader never returns.
type blockingReader struct {
	release chan struct{}
}

func (r blockingReader) Read([]byte) (int, error) {
	<-r.release
	return 0, io.EOF
}

func TestReadMessageWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("message available", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, WriteMessage(&buf, types.NewInvalidTarget().ToPeerMessage()))

		msg, err := ReadMessageWithTimeout(&buf, time.Second)
		require.NoError(t, err)
		assert.NotNil(t, msg.GetHandshakeFailure())
	})

	t.Run("no message", func(t *testing.T) {
		t.Parallel()
		r := blockingReader{release: make(chan struct{})}
		defer close(r.release)

		start := time.Now()
		msg, err := ReadMessageWithTimeout(r, 20*time.Millisecond)
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Less(t, time.Since(start), time.Second)
	})
}
