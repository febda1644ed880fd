package types

import (
	"fmt"

	"github.com/dmidem/near-handshake/pkg/borsh"
)

// PartialEdgeInfo is one side's signed proposal of an edge between two peers.
type PartialEdgeInfo struct {
	Nonce     uint64
	Signature Signature
}

// EdgeHash returns the digest both ends of the edge (a, b) sign. Peers are put
// in canonical order first, so EdgeHash(a, b, n) == EdgeHash(b, a, n).
func EdgeHash(a, b PeerID, nonce uint64) CryptoHash {
	low, high := a, b
	if !a.Less(b) {
		low, high = b, a
	}
	w := borsh.NewWriter(2*33 + 8)
	w.WriteValue(low)
	w.WriteValue(high)
	w.WriteU64(nonce)
	return HashBytes(w.Bytes())
}

// NewPartialEdgeInfo proposes an edge between a and b signed with sk.
func NewPartialEdgeInfo(a, b PeerID, nonce uint64, sk SecretKey) (PartialEdgeInfo, error) {
	digest := EdgeHash(a, b, nonce)
	sig, err := sk.Sign(digest[:])
	if err != nil {
		return PartialEdgeInfo{}, fmt.Errorf("failed to sign edge: %w", err)
	}
	return PartialEdgeInfo{Nonce: nonce, Signature: sig}, nil
}

// Verify checks that the edge between a and b was signed by signer.
func (e PartialEdgeInfo) Verify(a, b PeerID, signer PublicKey) error {
	digest := EdgeHash(a, b, e.Nonce)
	ok, err := signer.Verify(digest[:], e.Signature)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

func (e PartialEdgeInfo) MarshalBorsh(w *borsh.Writer) {
	w.WriteU64(e.Nonce)
	w.WriteValue(e.Signature)
}

func (e *PartialEdgeInfo) UnmarshalBorsh(r *borsh.Reader) error {
	nonce, err := r.ReadU64()
	if err != nil {
		return err
	}
	var sig Signature
	if err := r.ReadValue(&sig); err != nil {
		return err
	}
	*e = PartialEdgeInfo{Nonce: nonce, Signature: sig}
	return nil
}
