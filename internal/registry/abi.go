// Package registry wraps the on-chain collaborators the pipeline reads:
// the PubkeyRouter identity directory and the PKP tool registry that holds
// delegatee lists and tool policies.
package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const pubkeyRouterABIJSON = `[
	{"type":"function","name":"ethAddressToPkpId","stateMutability":"view","inputs":[{"name":"ethAddress","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getPubkey","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]}
]`

const toolRegistryABIJSON = `[
	{"type":"function","name":"isDelegateeOf","stateMutability":"view","inputs":[{"name":"pkpTokenId","type":"uint256"},{"name":"delegatee","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getToolPolicy","stateMutability":"view","inputs":[{"name":"pkpTokenId","type":"uint256"},{"name":"ipfsCid","type":"string"}],"outputs":[{"name":"policy","type":"bytes"},{"name":"version","type":"string"}]}
]`

var (
	pubkeyRouterABI = mustParseABI(pubkeyRouterABIJSON)
	toolRegistryABI = mustParseABI(toolRegistryABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
