package types

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/dmidem/near-handshake/pkg/hash"
)

// CryptoHash is a SHA256 digest.
type CryptoHash [hash.Size]byte

// CryptoHashFromBytes copies b into a CryptoHash.
func CryptoHashFromBytes(b []byte) (CryptoHash, error) {
	var h CryptoHash
	if len(b) != len(h) {
		return h, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHashLength, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// CryptoHashFromString parses a base58 encoded hash.
func CryptoHashFromString(s string) (CryptoHash, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return CryptoHash{}, fmt.Errorf("invalid base58 hash %q: %w", s, err)
	}
	return CryptoHashFromBytes(b)
}

// HashBytes returns the digest of the concatenation of parts.
func HashBytes(parts ...[]byte) CryptoHash {
	return CryptoHash(hash.Sum(parts...))
}

func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

func (h CryptoHash) IsZero() bool {
	return h == CryptoHash{}
}
