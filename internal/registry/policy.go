package registry

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
)

// The policy blob is a single ABI-encoded tuple. The layout is fixed by the
// tool registry's admin surface.
var policyArgs = abi.Arguments{{Type: mustPolicyType()}}

func mustPolicyType() abi.Type {
	t, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "erc20Decimals", Type: "uint8"},
		{Name: "maxAmount", Type: "uint256"},
		{Name: "allowedTokens", Type: "address[]"},
		{Name: "allowedRecipients", Type: "address[]"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

type policyTuple struct {
	Erc20Decimals     uint8
	MaxAmount         *big.Int
	AllowedTokens     []common.Address
	AllowedRecipients []common.Address
}

// DecodePolicy decodes a raw policy blob. Callers must treat an empty blob
// as "unrestricted" before calling this.
func DecodePolicy(raw []byte) (*model.Policy, error) {
	vals, err := policyArgs.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("registry: decode policy: %w", err)
	}
	tuple := abi.ConvertType(vals[0], new(policyTuple)).(*policyTuple)
	return &model.Policy{
		DecimalsHint:      tuple.Erc20Decimals,
		MaxAmount:         tuple.MaxAmount,
		AllowedTokens:     tuple.AllowedTokens,
		AllowedRecipients: tuple.AllowedRecipients,
	}, nil
}

// EncodePolicy packs a policy into the registry's blob layout. The executor
// never writes policies; this mirrors what the admin surface stores and is
// used to build fixtures.
func EncodePolicy(p *model.Policy) ([]byte, error) {
	return policyArgs.Pack(policyTuple{
		Erc20Decimals:     p.DecimalsHint,
		MaxAmount:         p.MaxAmount,
		AllowedTokens:     p.AllowedTokens,
		AllowedRecipients: p.AllowedRecipients,
	})
}
