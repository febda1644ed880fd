package types

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/mr-tron/base58"

	"github.com/dmidem/near-handshake/pkg/borsh"
)

// Signature is a signature tagged with the curve that produced it.
type Signature struct {
	keyType KeyType
	data    []byte
}

// NewSignature creates a Signature, checking its length for keyType.
func NewSignature(keyType KeyType, data []byte) (Signature, error) {
	size, err := keyType.signatureSize()
	if err != nil {
		return Signature{}, err
	}
	if len(data) != size {
		return Signature{}, fmt.Errorf("%w: %s signature must be %d bytes, got %d", ErrInvalidSignature, keyType, size, len(data))
	}
	return Signature{keyType: keyType, data: bytes.Clone(data)}, nil
}

func (s Signature) Type() KeyType {
	return s.keyType
}

// Data returns a copy of the raw signature bytes.
func (s Signature) Data() []byte {
	return bytes.Clone(s.data)
}

func (s Signature) String() string {
	return s.keyType.String() + ":" + base58.Encode(s.data)
}

func (s Signature) MarshalBorsh(w *borsh.Writer) {
	w.WriteU8(uint8(s.keyType))
	w.WriteFixed(s.data)
}

func (s *Signature) UnmarshalBorsh(r *borsh.Reader) error {
	t, err := r.ReadU8()
	if err != nil {
		return err
	}
	size, err := KeyType(t).signatureSize()
	if err != nil {
		return err
	}
	data, err := r.ReadFixed(size)
	if err != nil {
		return err
	}
	*s = Signature{keyType: KeyType(t), data: data}
	return nil
}

// SecretKey is an ed25519 signing key.
type SecretKey struct {
	priv crypto.PrivKey
}

// GenerateSecretKey creates a new ed25519 key using entropy from src.
func GenerateSecretKey(src io.Reader) (SecretKey, error) {
	priv, _, err := crypto.GenerateEd25519Key(src)
	if err != nil {
		return SecretKey{}, err
	}
	return SecretKey{priv: priv}, nil
}

// SecretKeyFromString parses the "ed25519:<base58>" text form of a 64-byte
// ed25519 private key (seed followed by public key).
func SecretKeyFromString(s string) (SecretKey, error) {
	prefix, encoded, found := strings.Cut(s, ":")
	if !found {
		prefix, encoded = KeyTypeED25519.String(), s
	}
	keyType, err := parseKeyType(prefix)
	if err != nil {
		return SecretKey{}, err
	}
	if keyType != KeyTypeED25519 {
		return SecretKey{}, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, keyType)
	}
	raw, err := base58.Decode(encoded)
	if err != nil {
		return SecretKey{}, fmt.Errorf("%w: %v", ErrInvalidKeyTextFormat, err)
	}
	priv, err := crypto.UnmarshalEd25519PrivateKey(raw)
	if err != nil {
		return SecretKey{}, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}
	return SecretKey{priv: priv}, nil
}

// PublicKey returns the public half of the key.
func (sk SecretKey) PublicKey() PublicKey {
	raw, err := sk.priv.GetPublic().Raw()
	if err != nil {
		panic(fmt.Sprintf("ed25519 public key has no raw form: %v", err))
	}
	return PublicKey{keyType: KeyTypeED25519, data: raw}
}

// PeerID returns the identity derived from the key.
func (sk SecretKey) PeerID() PeerID {
	return NewPeerID(sk.PublicKey())
}

// Sign signs msg with the key.
func (sk SecretKey) Sign(msg []byte) (Signature, error) {
	sig, err := sk.priv.Sign(msg)
	if err != nil {
		return Signature{}, err
	}
	return NewSignature(KeyTypeED25519, sig)
}

func (sk SecretKey) String() string {
	return "SecretKey{REDACTED}"
}

// Text returns the "ed25519:<base58>" form accepted by SecretKeyFromString.
// The result exposes the secret and must only be written to key files.
func (sk SecretKey) Text() (string, error) {
	raw, err := sk.priv.Raw()
	if err != nil {
		return "", err
	}
	return KeyTypeED25519.String() + ":" + base58.Encode(raw), nil
}
