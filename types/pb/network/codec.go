package network

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// message is implemented by every schema type.
type message interface {
	appendTo(b []byte) []byte
	Unmarshal(data []byte) error
}

func marshal(m message) ([]byte, error) {
	return m.appendTo(nil), nil
}

// appendVarintField omits zero values, as proto3 does for scalars.
func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendMessageField writes m even when it encodes to zero bytes so that
// presence survives the round trip.
func appendMessageField(b []byte, num protowire.Number, m message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendTo(nil))
}

func boolToVarint(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// fieldFunc decodes the value of one field and returns the number of bytes
// consumed. Unknown fields are handed to skipField.
type fieldFunc func(num protowire.Number, typ protowire.Type, data []byte) (int, error)

func unmarshalFields(data []byte, fn fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		m, err := fn(num, typ, data)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		data = data[m:]
	}
	return nil
}

func skipField(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func consumeVarint(typ protowire.Type, data []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("unexpected wire type %d, want varint", typ)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeBytes(typ protowire.Type, data []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("unexpected wire type %d, want bytes", typ)
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

func consumeMessage(typ protowire.Type, data []byte, m message) (int, error) {
	v, n, err := consumeBytes(typ, data)
	if err != nil {
		return 0, err
	}
	if err := m.Unmarshal(v); err != nil {
		return 0, err
	}
	return n, nil
}

// CryptoHash

func (m *CryptoHash) Marshal() ([]byte, error) { return marshal(m) }

func (m *CryptoHash) appendTo(b []byte) []byte {
	return appendBytesField(b, 1, m.Hash)
}

func (m *CryptoHash) Unmarshal(data []byte) error {
	*m = CryptoHash{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeBytes(typ, data)
			m.Hash = v
			return n, err
		}
		return skipField(num, typ, data)
	})
}

// PublicKey

func (m *PublicKey) Marshal() ([]byte, error) { return marshal(m) }

func (m *PublicKey) appendTo(b []byte) []byte {
	return appendBytesField(b, 1, m.Borsh)
}

func (m *PublicKey) Unmarshal(data []byte) error {
	*m = PublicKey{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeBytes(typ, data)
			m.Borsh = v
			return n, err
		}
		return skipField(num, typ, data)
	})
}

// PartialEdgeInfo

func (m *PartialEdgeInfo) Marshal() ([]byte, error) { return marshal(m) }

func (m *PartialEdgeInfo) appendTo(b []byte) []byte {
	return appendBytesField(b, 1, m.Borsh)
}

func (m *PartialEdgeInfo) Unmarshal(data []byte) error {
	*m = PartialEdgeInfo{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeBytes(typ, data)
			m.Borsh = v
			return n, err
		}
		return skipField(num, typ, data)
	})
}

// GenesisId

func (m *GenesisId) Marshal() ([]byte, error) { return marshal(m) }

func (m *GenesisId) appendTo(b []byte) []byte {
	b = appendBytesField(b, 1, []byte(m.ChainId))
	if m.Hash != nil {
		b = appendMessageField(b, 2, m.Hash)
	}
	return b
}

func (m *GenesisId) Unmarshal(data []byte) error {
	*m = GenesisId{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, data)
			m.ChainId = string(v)
			return n, err
		case 2:
			m.Hash = &CryptoHash{}
			return consumeMessage(typ, data, m.Hash)
		}
		return skipField(num, typ, data)
	})
}

// PeerChainInfo

func (m *PeerChainInfo) Marshal() ([]byte, error) { return marshal(m) }

func (m *PeerChainInfo) appendTo(b []byte) []byte {
	if m.GenesisId != nil {
		b = appendMessageField(b, 1, m.GenesisId)
	}
	b = appendVarintField(b, 2, m.Height)
	if len(m.TrackedShards) > 0 {
		var packed []byte
		for _, shard := range m.TrackedShards {
			packed = protowire.AppendVarint(packed, shard)
		}
		b = appendBytesField(b, 3, packed)
	}
	return appendVarintField(b, 4, boolToVarint(m.Archival))
}

func (m *PeerChainInfo) Unmarshal(data []byte) error {
	*m = PeerChainInfo{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			m.GenesisId = &GenesisId{}
			return consumeMessage(typ, data, m.GenesisId)
		case 2:
			v, n, err := consumeVarint(typ, data)
			m.Height = v
			return n, err
		case 3:
			return m.consumeTrackedShards(typ, data)
		case 4:
			v, n, err := consumeVarint(typ, data)
			m.Archival = v != 0
			return n, err
		}
		return skipField(num, typ, data)
	})
}

// consumeTrackedShards accepts both the packed and the unpacked encoding.
func (m *PeerChainInfo) consumeTrackedShards(typ protowire.Type, data []byte) (int, error) {
	if typ == protowire.VarintType {
		v, n, err := consumeVarint(typ, data)
		if err == nil {
			m.TrackedShards = append(m.TrackedShards, v)
		}
		return n, err
	}
	packed, n, err := consumeBytes(typ, data)
	if err != nil {
		return 0, err
	}
	for len(packed) > 0 {
		v, k := protowire.ConsumeVarint(packed)
		if k < 0 {
			return 0, protowire.ParseError(k)
		}
		m.TrackedShards = append(m.TrackedShards, v)
		packed = packed[k:]
	}
	return n, nil
}

// Handshake

func (m *Handshake) Marshal() ([]byte, error) { return marshal(m) }

func (m *Handshake) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(m.ProtocolVersion))
	b = appendVarintField(b, 2, uint64(m.OldestSupportedVersion))
	if m.SenderPeerId != nil {
		b = appendMessageField(b, 3, m.SenderPeerId)
	}
	if m.TargetPeerId != nil {
		b = appendMessageField(b, 4, m.TargetPeerId)
	}
	b = appendVarintField(b, 5, uint64(m.SenderListenPort))
	if m.SenderChainInfo != nil {
		b = appendMessageField(b, 6, m.SenderChainInfo)
	}
	if m.PartialEdgeInfo != nil {
		b = appendMessageField(b, 7, m.PartialEdgeInfo)
	}
	return b
}

func (m *Handshake) Unmarshal(data []byte) error {
	*m = Handshake{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, data)
			m.ProtocolVersion = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, data)
			m.OldestSupportedVersion = uint32(v)
			return n, err
		case 3:
			m.SenderPeerId = &PublicKey{}
			return consumeMessage(typ, data, m.SenderPeerId)
		case 4:
			m.TargetPeerId = &PublicKey{}
			return consumeMessage(typ, data, m.TargetPeerId)
		case 5:
			v, n, err := consumeVarint(typ, data)
			m.SenderListenPort = uint32(v)
			return n, err
		case 6:
			m.SenderChainInfo = &PeerChainInfo{}
			return consumeMessage(typ, data, m.SenderChainInfo)
		case 7:
			m.PartialEdgeInfo = &PartialEdgeInfo{}
			return consumeMessage(typ, data, m.PartialEdgeInfo)
		}
		return skipField(num, typ, data)
	})
}

// HandshakeFailure

func (m *HandshakeFailure) Marshal() ([]byte, error) { return marshal(m) }

func (m *HandshakeFailure) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(m.Reason))
	b = appendBytesField(b, 2, m.PeerInfo)
	if m.GenesisId != nil {
		b = appendMessageField(b, 3, m.GenesisId)
	}
	b = appendVarintField(b, 4, uint64(m.Version))
	return appendVarintField(b, 5, uint64(m.OldestSupportedVersion))
}

func (m *HandshakeFailure) Unmarshal(data []byte) error {
	*m = HandshakeFailure{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, data)
			m.Reason = HandshakeFailure_Reason(int32(v))
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, data)
			m.PeerInfo = v
			return n, err
		case 3:
			m.GenesisId = &GenesisId{}
			return consumeMessage(typ, data, m.GenesisId)
		case 4:
			v, n, err := consumeVarint(typ, data)
			m.Version = uint32(v)
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, data)
			m.OldestSupportedVersion = uint32(v)
			return n, err
		}
		return skipField(num, typ, data)
	})
}

// PeerMessage

func (m *PeerMessage) Marshal() ([]byte, error) {
	if o, ok := m.MessageType.(*PeerMessage_Other); ok && !isOtherField(o.Field) {
		return nil, fmt.Errorf("field %d is not a message_type case", o.Field)
	}
	return marshal(m)
}

func (m *PeerMessage) appendTo(b []byte) []byte {
	switch x := m.MessageType.(type) {
	case *PeerMessage_Handshake:
		b = appendMessageField(b, FieldHandshake, x.Handshake)
	case *PeerMessage_HandshakeFailure:
		b = appendMessageField(b, FieldHandshakeFailure, x.HandshakeFailure)
	case *PeerMessage_Other:
		b = protowire.AppendTag(b, x.Field, protowire.BytesType)
		b = protowire.AppendBytes(b, x.Payload)
	}
	return b
}

// Unmarshal decodes a PeerMessage. As with any oneof, when several cases are
// present the last one wins; MessageType stays nil when none is present.
func (m *PeerMessage) Unmarshal(data []byte) error {
	*m = PeerMessage{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch {
		case num == FieldHandshake:
			x := &PeerMessage_Handshake{Handshake: &Handshake{}}
			n, err := consumeMessage(typ, data, x.Handshake)
			m.MessageType = x
			return n, err
		case num == FieldHandshakeFailure:
			x := &PeerMessage_HandshakeFailure{HandshakeFailure: &HandshakeFailure{}}
			n, err := consumeMessage(typ, data, x.HandshakeFailure)
			m.MessageType = x
			return n, err
		case isOtherField(num):
			v, n, err := consumeBytes(typ, data)
			m.MessageType = &PeerMessage_Other{Field: num, Payload: v}
			return n, err
		}
		return skipField(num, typ, data)
	})
}

func isOtherField(num protowire.Number) bool {
	return num >= firstOtherField && num <= lastOtherField
}
