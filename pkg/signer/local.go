package signer

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner signs with a single in-memory secp256k1 key. It stands in for
// the threshold protocol in dev mode and in tests; production deployments
// inject the real distributed capability instead.
type LocalSigner struct {
	key *ecdsa.PrivateKey
}

func NewLocalSigner(key *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key}
}

// NewLocalSignerFromHex builds a LocalSigner from a hex-encoded private key.
func NewLocalSignerFromHex(keyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer: parse private key: %w", err)
	}
	return &LocalSigner{key: key}, nil
}

// PublicKeyHex returns the uncompressed public key, the descriptor callers
// pass back into Sign.
func (s *LocalSigner) PublicKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSAPub(&s.key.PublicKey))
}

func (s *LocalSigner) Sign(ctx context.Context, digest []byte, publicKey string, sigName string) (*Signature, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("signer: digest must be 32 bytes, got %d", len(digest))
	}
	if publicKey != "" {
		want := strings.TrimPrefix(strings.ToLower(publicKey), "0x")
		if want != s.PublicKeyHex() {
			return nil, fmt.Errorf("signer: key descriptor %s… does not match local key", publicKey[:min(10, len(publicKey))])
		}
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, err
	}
	return &Signature{
		R:          sig[:32],
		S:          sig[32:64],
		RecoveryID: sig[64],
	}, nil
}
