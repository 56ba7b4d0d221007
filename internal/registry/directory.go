package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
)

// Directory reads the PubkeyRouter: external address -> PKP token id ->
// public key.
type Directory struct {
	caller chain.Client
	addr   common.Address
}

func NewDirectory(caller chain.Client, addr common.Address) *Directory {
	return &Directory{caller: caller, addr: addr}
}

func (d *Directory) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := pubkeyRouterABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("registry: pack %s: %w", method, err)
	}
	out, err := d.caller.CallContract(ctx, ethereum.CallMsg{To: &d.addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: call %s: %w", method, err)
	}
	vals, err := pubkeyRouterABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("registry: unpack %s: %w", method, err)
	}
	return vals, nil
}

// ResolveID returns the PKP token id registered for an eth address.
// A zero id means the address is unknown to the router.
func (d *Directory) ResolveID(ctx context.Context, ethAddress common.Address) (*big.Int, error) {
	vals, err := d.call(ctx, "ethAddressToPkpId", ethAddress)
	if err != nil {
		return nil, err
	}
	id, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("registry: unexpected ethAddressToPkpId result type %T", vals[0])
	}
	return id, nil
}

// PublicKey returns the uncompressed public key bytes for a PKP token id.
func (d *Directory) PublicKey(ctx context.Context, tokenID *big.Int) ([]byte, error) {
	vals, err := d.call(ctx, "getPubkey", tokenID)
	if err != nil {
		return nil, err
	}
	key, ok := vals[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("registry: unexpected getPubkey result type %T", vals[0])
	}
	return key, nil
}
