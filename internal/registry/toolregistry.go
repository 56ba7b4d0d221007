package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
)

// ToolRegistry reads the PKP tool registry: delegatee membership and raw
// per-tool policy blobs. The admin surface that writes these lives outside
// this service.
type ToolRegistry struct {
	caller chain.Client
	addr   common.Address
}

func NewToolRegistry(caller chain.Client, addr common.Address) *ToolRegistry {
	return &ToolRegistry{caller: caller, addr: addr}
}

func (r *ToolRegistry) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := toolRegistryABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("registry: pack %s: %w", method, err)
	}
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: call %s: %w", method, err)
	}
	vals, err := toolRegistryABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("registry: unpack %s: %w", method, err)
	}
	return vals, nil
}

// IsDelegatee reports whether delegatee may request operations for the PKP.
func (r *ToolRegistry) IsDelegatee(ctx context.Context, tokenID *big.Int, delegatee common.Address) (bool, error) {
	vals, err := r.call(ctx, "isDelegateeOf", tokenID, delegatee)
	if err != nil {
		return false, err
	}
	ok, valid := vals[0].(bool)
	if !valid {
		return false, fmt.Errorf("registry: unexpected isDelegateeOf result type %T", vals[0])
	}
	return ok, nil
}

// ToolPolicy returns the raw policy blob and version for (PKP, tool cid).
// An empty blob is a valid state meaning "unrestricted".
func (r *ToolRegistry) ToolPolicy(ctx context.Context, tokenID *big.Int, toolCid string) ([]byte, string, error) {
	vals, err := r.call(ctx, "getToolPolicy", tokenID, toolCid)
	if err != nil {
		return nil, "", err
	}
	raw, okRaw := vals[0].([]byte)
	version, okVer := vals[1].(string)
	if !okRaw || !okVer {
		return nil, "", fmt.Errorf("registry: unexpected getToolPolicy result types (%T, %T)", vals[0], vals[1])
	}
	return raw, version, nil
}
