package hash

import (
	sha256 "github.com/minio/sha256-simd"
)

const (
	// Size is the size of a digest in bytes.
	Size = sha256.Size
)

// Sum returns the SHA256 digest of the concatenation of parts.
func Sum(parts ...[]byte) [Size]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck
	}
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
