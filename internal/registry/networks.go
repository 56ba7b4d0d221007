package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

// PubkeyRouter deployments per Lit network.
var routerAddresses = map[string]common.Address{
	"datil-dev":  common.HexToAddress("0xbc01f21C58Ca83f25b09338401D53D4c2344D1d9"),
	"datil-test": common.HexToAddress("0x65C3d057aef28175AfaC61a74cc6b27E88405583"),
	"datil":      common.HexToAddress("0xF182d6bEf16Ba77e69372dD096D8B70Bc3d5B475"),
}

// RouterAddress maps a Lit network name to its PubkeyRouter contract.
func RouterAddress(network string) (common.Address, error) {
	addr, ok := routerAddresses[network]
	if !ok {
		return common.Address{}, errno.ErrUnsupportedNetwork.WithMessage("unsupported Lit network: %s", network)
	}
	return addr, nil
}
