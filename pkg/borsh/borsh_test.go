package borsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	A uint64
	B []byte
}

func (p *pair) MarshalBorsh(w *Writer) {
	w.WriteU64(p.A)
	w.WriteBytes(p.B)
}

func (p *pair) UnmarshalBorsh(r *Reader) error {
	var err error
	if p.A, err = r.ReadU64(); err != nil {
		return err
	}
	p.B, err = r.ReadBytes()
	return err
}

func TestWriterLayout(t *testing.T) {
	w := NewWriter(0)
	w.WriteU8(7)
	w.WriteU32(0x01020304)
	w.WriteU64(1)
	w.WriteBool(true)
	w.WriteString("ab")
	w.WriteFixed([]byte{9, 9})

	expected := []byte{
		7,
		4, 3, 2, 1,
		1, 0, 0, 0, 0, 0, 0, 0,
		1,
		2, 0, 0, 0, 'a', 'b',
		9, 9,
	}
	assert.Equal(t, expected, w.Bytes())
}

func TestUnmarshal(t *testing.T) {
	require := require.New(t)

	in := &pair{A: 42, B: []byte{1, 2, 3}}
	data := Marshal(in)

	out := &pair{}
	require.NoError(Unmarshal(data, out))
	require.Equal(in, out)

	cases := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"empty", nil, ErrUnexpectedEOF},
		{"truncated integer", data[:5], ErrUnexpectedEOF},
		{"truncated bytes", data[:len(data)-1], ErrUnexpectedEOF},
		{"trailing byte", append(append([]byte{}, data...), 0), ErrTrailingBytes},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Unmarshal(c.data, &pair{})
			assert.ErrorIs(t, err, c.expected)
		})
	}
}

func TestReadBoolRejectsInvalidValue(t *testing.T) {
	_, err := NewReader([]byte{2}).ReadBool()
	assert.Error(t, err)
}

func TestReadBytesHugeLengthPrefix(t *testing.T) {
	r := NewReader([]byte{0xff, 0xff, 0xff, 0xff, 1})
	_, err := r.ReadBytes()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}
