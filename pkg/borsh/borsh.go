// Package borsh implements the subset of the Borsh binary format needed to
// carry peer identities and signatures byte-for-byte as the rest of the
// network encodes them.
//
// The format is schema-less: integers are little-endian with fixed width,
// fixed-size arrays are written verbatim and dynamic byte strings carry a u32
// length prefix. Decoding is strict and rejects both truncated input and
// trailing bytes.
package borsh

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the input ends before a value is complete.
	ErrUnexpectedEOF = errors.New("borsh: unexpected end of input")
	// ErrTrailingBytes is returned when input remains after the top-level value.
	ErrTrailingBytes = errors.New("borsh: trailing bytes after value")
)

// Marshaler is implemented by types with a deterministic Borsh layout.
type Marshaler interface {
	MarshalBorsh(w *Writer)
}

// Unmarshaler is implemented by types that can be read back from their Borsh layout.
type Unmarshaler interface {
	UnmarshalBorsh(r *Reader) error
}

// Marshal returns the Borsh encoding of v.
func Marshal(v Marshaler) []byte {
	w := NewWriter(0)
	v.MarshalBorsh(w)
	return w.Bytes()
}

// Unmarshal decodes data into v. The whole input must be consumed.
func Unmarshal(data []byte, v Unmarshaler) error {
	r := NewReader(data)
	if err := v.UnmarshalBorsh(r); err != nil {
		return err
	}
	return r.Finish()
}

// Writer accumulates Borsh-encoded values.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
		return
	}
	w.WriteU8(0)
}

func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteFixed writes b verbatim, as a fixed-size array is encoded.
func (w *Writer) WriteFixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBytes writes b prefixed with its u32 length.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteU32(uint32(len(b)))
	w.WriteFixed(b)
}

func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteValue appends the encoding of a nested value.
func (w *Writer) WriteValue(v Marshaler) {
	v.MarshalBorsh(w)
}

// Bytes returns the encoded bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes Borsh-encoded values from a byte slice.
type Reader struct {
	data []byte
	off  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining reports how many bytes have not been consumed yet.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrUnexpectedEOF, n, r.Remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("borsh: invalid bool value %d", v)
	}
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadFixed reads exactly n bytes and returns a copy of them.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytes reads a u32 length-prefixed byte string.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d", ErrUnexpectedEOF, n, r.Remaining())
	}
	return r.ReadFixed(int(n))
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadValue decodes a nested value.
func (r *Reader) ReadValue(v Unmarshaler) error {
	return v.UnmarshalBorsh(r)
}

// Finish returns ErrTrailingBytes if any input is left unread.
func (r *Reader) Finish() error {
	if n := r.Remaining(); n != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, n)
	}
	return nil
}
