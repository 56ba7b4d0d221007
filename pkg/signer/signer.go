// Package signer abstracts the distributed threshold-signing capability.
// The executor only depends on this contract; the protocol that actually
// produces the combined signature is opaque to it.
package signer

import (
	"context"
	"fmt"
)

// Signature is the combined (r, s, recovery id) triple returned by the
// signing capability.
type Signature struct {
	R          []byte `json:"r"`
	S          []byte `json:"s"`
	RecoveryID byte   `json:"v"`
}

// Bytes65 assembles the r || s || v layout go-ethereum expects when
// attaching a signature to a transaction. RecoveryID must be 0 or 1;
// 27/28 style values are normalized.
func (s *Signature) Bytes65() ([]byte, error) {
	if len(s.R) != 32 || len(s.S) != 32 {
		return nil, fmt.Errorf("signer: malformed signature components (r=%d bytes, s=%d bytes)", len(s.R), len(s.S))
	}
	v := s.RecoveryID
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, fmt.Errorf("signer: invalid recovery id %d", s.RecoveryID)
	}
	out := make([]byte, 65)
	copy(out[:32], s.R)
	copy(out[32:64], s.S)
	out[64] = v
	return out, nil
}

// Signer produces a single combined signature over a 32-byte digest.
// publicKey is the hex-encoded uncompressed public key of the identity the
// signature must verify against; sigName labels the signing session.
type Signer interface {
	Sign(ctx context.Context, digest []byte, publicKey string, sigName string) (*Signature, error)
}
