package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DirectoryClient resolves external addresses to PKP identities.
// Implemented by registry.Directory.
type DirectoryClient interface {
	// ResolveID maps an eth address to its PKP token id (zero if unknown).
	ResolveID(ctx context.Context, ethAddress common.Address) (*big.Int, error)
	// PublicKey returns the identity's public key bytes (empty if unknown).
	PublicKey(ctx context.Context, tokenID *big.Int) ([]byte, error)
}

// PolicyRegistryClient reads delegatee membership and tool policies.
// Implemented by registry.ToolRegistry.
type PolicyRegistryClient interface {
	IsDelegatee(ctx context.Context, tokenID *big.Int, delegatee common.Address) (bool, error)
	// ToolPolicy returns the raw policy blob; empty means unrestricted.
	ToolPolicy(ctx context.Context, tokenID *big.Int, toolCid string) ([]byte, string, error)
}
