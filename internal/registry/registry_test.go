package registry

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

// fakeCaller answers eth_call by routing the selector through the contract
// ABI; everything else is unused by the registry readers.
type fakeCaller struct {
	contract abi.ABI
	answers  map[string][]interface{} // method name -> return values

	lastTo common.Address
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lastTo = *call.To
	method, err := f.contract.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(f.answers[method.Name]...)
}

func (f *fakeCaller) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}
func (f *fakeCaller) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return 0, nil
}
func (f *fakeCaller) FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error) {
	return nil, nil
}
func (f *fakeCaller) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 0, nil
}
func (f *fakeCaller) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return nil
}
func (f *fakeCaller) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, nil
}

func TestRouterAddress(t *testing.T) {
	for _, network := range []string{"datil-dev", "datil-test", "datil"} {
		addr, err := RouterAddress(network)
		require.NoError(t, err, network)
		assert.NotEqual(t, common.Address{}, addr, network)
	}

	_, err := RouterAddress("cayenne")
	assert.ErrorIs(t, err, errno.ErrUnsupportedNetwork)
}

func TestDirectoryResolveID(t *testing.T) {
	caller := &fakeCaller{
		contract: pubkeyRouterABI,
		answers: map[string][]interface{}{
			"ethAddressToPkpId": {big.NewInt(42)},
		},
	}
	router := common.HexToAddress("0xbc01f21C58Ca83f25b09338401D53D4c2344D1d9")
	d := NewDirectory(caller, router)

	id, err := d.ResolveID(context.Background(), common.HexToAddress("0x1111111111111111111111111111111111111111"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Int64())
	assert.Equal(t, router, caller.lastTo, "calls must target the router contract")
}

func TestDirectoryPublicKey(t *testing.T) {
	key := []byte{0x04, 0xaa, 0xbb}
	caller := &fakeCaller{
		contract: pubkeyRouterABI,
		answers:  map[string][]interface{}{"getPubkey": {key}},
	}
	d := NewDirectory(caller, common.Address{})

	got, err := d.PublicKey(context.Background(), big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestToolRegistryIsDelegatee(t *testing.T) {
	caller := &fakeCaller{
		contract: toolRegistryABI,
		answers:  map[string][]interface{}{"isDelegateeOf": {true}},
	}
	r := NewToolRegistry(caller, common.Address{})

	ok, err := r.IsDelegatee(context.Background(), big.NewInt(42), common.Address{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestToolRegistryToolPolicy(t *testing.T) {
	blob := []byte{0x01, 0x02}
	caller := &fakeCaller{
		contract: toolRegistryABI,
		answers:  map[string][]interface{}{"getToolPolicy": {blob, "1"}},
	}
	r := NewToolRegistry(caller, common.Address{})

	raw, version, err := r.ToolPolicy(context.Background(), big.NewInt(42), "QmTool")
	require.NoError(t, err)
	assert.Equal(t, blob, raw)
	assert.Equal(t, "1", version)
}

func TestPolicyRoundTrip(t *testing.T) {
	in := &model.Policy{
		DecimalsHint: 18,
		MaxAmount:    big.NewInt(5_000_000),
		AllowedTokens: []common.Address{
			common.HexToAddress("0x2222222222222222222222222222222222222222"),
		},
		AllowedRecipients: []common.Address{
			common.HexToAddress("0x3333333333333333333333333333333333333333"),
			common.HexToAddress("0x4444444444444444444444444444444444444444"),
		},
	}

	blob, err := EncodePolicy(in)
	require.NoError(t, err)

	out, err := DecodePolicy(blob)
	require.NoError(t, err)
	assert.Equal(t, in.DecimalsHint, out.DecimalsHint)
	assert.Zero(t, in.MaxAmount.Cmp(out.MaxAmount))
	assert.Equal(t, in.AllowedTokens, out.AllowedTokens)
	assert.Equal(t, in.AllowedRecipients, out.AllowedRecipients)
}

func TestDecodePolicyGarbage(t *testing.T) {
	_, err := DecodePolicy([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}
