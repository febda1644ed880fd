package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/mr-tron/base58"

	"github.com/dmidem/near-handshake/pkg/borsh"
)

// KeyType is the curve a key or signature belongs to. Its numeric value is
// the Borsh enum discriminant.
type KeyType uint8

const (
	KeyTypeED25519   KeyType = 0
	KeyTypeSECP256K1 KeyType = 1
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeED25519:
		return "ed25519"
	case KeyTypeSECP256K1:
		return "secp256k1"
	default:
		return fmt.Sprintf("KeyType(%d)", uint8(t))
	}
}

func (t KeyType) publicKeySize() (int, error) {
	switch t {
	case KeyTypeED25519:
		return 32, nil
	case KeyTypeSECP256K1:
		return 64, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidKeyType, uint8(t))
}

func (t KeyType) signatureSize() (int, error) {
	switch t {
	case KeyTypeED25519:
		return 64, nil
	case KeyTypeSECP256K1:
		return 65, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidKeyType, uint8(t))
}

func parseKeyType(s string) (KeyType, error) {
	switch s {
	case "ed25519":
		return KeyTypeED25519, nil
	case "secp256k1":
		return KeyTypeSECP256K1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKeyType, s)
}

// PublicKey is a public key as known to the network.
// The zero value is not a valid key.
type PublicKey struct {
	keyType KeyType
	data    []byte
}

// NewPublicKey creates a PublicKey, checking the key length for keyType.
func NewPublicKey(keyType KeyType, data []byte) (PublicKey, error) {
	size, err := keyType.publicKeySize()
	if err != nil {
		return PublicKey{}, err
	}
	if len(data) != size {
		return PublicKey{}, fmt.Errorf("%w: %s key must be %d bytes, got %d", ErrInvalidKeyLength, keyType, size, len(data))
	}
	return PublicKey{keyType: keyType, data: bytes.Clone(data)}, nil
}

// PublicKeyFromString parses the "ed25519:<base58>" text form.
func PublicKeyFromString(s string) (PublicKey, error) {
	keyType := KeyTypeED25519
	encoded := s
	if prefix, rest, found := strings.Cut(s, ":"); found {
		t, err := parseKeyType(prefix)
		if err != nil {
			return PublicKey{}, err
		}
		keyType, encoded = t, rest
	}
	if encoded == "" {
		return PublicKey{}, ErrInvalidKeyTextFormat
	}
	data, err := base58.Decode(encoded)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKeyTextFormat, err)
	}
	return NewPublicKey(keyType, data)
}

func (pk PublicKey) Type() KeyType {
	return pk.keyType
}

// Data returns a copy of the raw key bytes.
func (pk PublicKey) Data() []byte {
	return bytes.Clone(pk.data)
}

func (pk PublicKey) String() string {
	return pk.keyType.String() + ":" + base58.Encode(pk.data)
}

// Compare orders keys by type first, then by key bytes.
func (pk PublicKey) Compare(other PublicKey) int {
	if pk.keyType != other.keyType {
		if pk.keyType < other.keyType {
			return -1
		}
		return 1
	}
	return bytes.Compare(pk.data, other.data)
}

func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.Compare(other) == 0
}

// Verify checks sig over msg. Only ed25519 keys can be verified.
func (pk PublicKey) Verify(msg []byte, sig Signature) (bool, error) {
	if pk.keyType != KeyTypeED25519 {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, pk.keyType)
	}
	if sig.keyType != pk.keyType {
		return false, nil
	}
	pub, err := crypto.UnmarshalEd25519PublicKey(pk.data)
	if err != nil {
		return false, err
	}
	return pub.Verify(msg, sig.data)
}

func (pk PublicKey) MarshalBorsh(w *borsh.Writer) {
	w.WriteU8(uint8(pk.keyType))
	w.WriteFixed(pk.data)
}

func (pk *PublicKey) UnmarshalBorsh(r *borsh.Reader) error {
	t, err := r.ReadU8()
	if err != nil {
		return err
	}
	size, err := KeyType(t).publicKeySize()
	if err != nil {
		return err
	}
	data, err := r.ReadFixed(size)
	if err != nil {
		return err
	}
	*pk = PublicKey{keyType: KeyType(t), data: data}
	return nil
}

// PeerID identifies a peer by its public key.
type PeerID struct {
	key PublicKey
}

func NewPeerID(key PublicKey) PeerID {
	return PeerID{key: key}
}

// PeerIDFromString parses the text form of the peer's public key.
func PeerIDFromString(s string) (PeerID, error) {
	key, err := PublicKeyFromString(s)
	if err != nil {
		return PeerID{}, err
	}
	return NewPeerID(key), nil
}

func (id PeerID) PublicKey() PublicKey {
	return id.key
}

func (id PeerID) String() string {
	return id.key.String()
}

// Compare is the total order used to canonicalize edges.
func (id PeerID) Compare(other PeerID) int {
	return id.key.Compare(other.key)
}

func (id PeerID) Less(other PeerID) bool {
	return id.Compare(other) < 0
}

func (id PeerID) Equal(other PeerID) bool {
	return id.Compare(other) == 0
}

func (id PeerID) MarshalBorsh(w *borsh.Writer) {
	id.key.MarshalBorsh(w)
}

func (id *PeerID) UnmarshalBorsh(r *borsh.Reader) error {
	return id.key.UnmarshalBorsh(r)
}
