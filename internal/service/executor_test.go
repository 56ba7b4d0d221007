package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/internal/registry"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
	"github.com/madschristensen99/lit-full-self-signing/pkg/runonce"
	"github.com/madschristensen99/lit-full-self-signing/pkg/signer"
)

const testKeyHex = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

const (
	testToolCid = "QmTransferTool"
	testChainID = "8453"
)

// fixture wires the executor against in-memory doubles: a PKP with a
// 1000-token balance and a policy allowing up to 500 tokens to one
// recipient.
type fixture struct {
	executor  *Executor
	chain     *fakeChain
	directory *fakeDirectory
	tools     *fakeTools
	signer    *countingSigner

	pkp       common.Address
	delegate  common.Address
	token     common.Address
	recipient common.Address
	tokenID   *big.Int
	decimals  uint8
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	fx := &fixture{
		pkp:       crypto.PubkeyToAddress(key.PublicKey),
		delegate:  common.HexToAddress("0x1111111111111111111111111111111111111111"),
		token:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		recipient: common.HexToAddress("0x3333333333333333333333333333333333333333"),
		tokenID:   big.NewInt(42),
		decimals:  6,
	}

	fx.chain = newFakeChain(fx.token, fx.pkp, fx.decimals, units(t, "1000", fx.decimals))
	fx.directory = &fakeDirectory{
		ids:  map[common.Address]*big.Int{fx.pkp: fx.tokenID},
		keys: map[string][]byte{fx.tokenID.String(): crypto.FromECDSAPub(&key.PublicKey)},
	}
	fx.tools = &fakeTools{
		delegates: map[string]map[common.Address]bool{
			fx.tokenID.String(): {fx.delegate: true},
		},
		policies: map[string][]byte{
			fx.tokenID.String() + "|" + testToolCid: encodePolicy(t, &model.Policy{
				DecimalsHint:      fx.decimals,
				MaxAmount:         units(t, "500", fx.decimals),
				AllowedTokens:     []common.Address{fx.token},
				AllowedRecipients: []common.Address{fx.recipient},
			}),
		},
	}
	fx.signer = &countingSigner{inner: signer.NewLocalSigner(key)}

	fx.executor = &Executor{
		network: "datil-dev",
		toolCid: testToolCid,
		directoryFor: func(network string) (DirectoryClient, error) {
			if _, err := registry.RouterAddress(network); err != nil {
				return nil, err
			}
			return fx.directory, nil
		},
		tools:   fx.tools,
		dial:    func(ctx context.Context, rpcURL string) (chain.Client, error) { return fx.chain, nil },
		signer:  fx.signer,
		barrier: runonce.NewMemoryBarrier(),
	}
	return fx
}

func (fx *fixture) request(amount string) model.TransferRequest {
	return model.TransferRequest{
		PkpEthAddress:    fx.pkp.Hex(),
		RpcURL:           "http://localhost:8545",
		ChainID:          testChainID,
		TokenIn:          fx.token.Hex(),
		RecipientAddress: fx.recipient.Hex(),
		AmountIn:         amount,
	}
}

func (fx *fixture) execute(amount string) model.ExecutionResult {
	return fx.executor.Execute(context.Background(), "inv-1", fx.request(amount), fx.delegate)
}

func units(t *testing.T, amount string, decimals uint8) *big.Int {
	t.Helper()
	v, err := parseUnits(amount, decimals)
	require.NoError(t, err)
	return v
}

func encodePolicy(t *testing.T, p *model.Policy) []byte {
	t.Helper()
	blob, err := registry.EncodePolicy(p)
	require.NoError(t, err)
	return blob
}

func errCode(t *testing.T, result model.ExecutionResult) int {
	t.Helper()
	require.Equal(t, model.StatusError, result.Status)
	require.NotNil(t, result.Details)
	return result.Details.Code
}

func TestExecuteSuccess(t *testing.T) {
	fx := newFixture(t)

	result := fx.execute("500") // exactly the policy ceiling, inclusive

	require.Equal(t, model.StatusSuccess, result.Status, "error: %s", result.Error)
	assert.Regexp(t, `^0x[0-9a-fA-F]{64}$`, result.TransferHash)

	sent := fx.chain.sentTxs()
	require.Len(t, sent, 1)
	tx := sent[0]

	assert.Equal(t, result.TransferHash, tx.Hash().Hex())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(72_000), tx.Gas()) // 60000 * 1.2
	assert.Equal(t, new(big.Int).Mul(fx.chain.baseFee, big.NewInt(2)), tx.GasFeeCap())
	assert.Equal(t, new(big.Int).Div(fx.chain.baseFee, big.NewInt(4)), tx.GasTipCap())
	assert.Equal(t, fx.token, *tx.To())
	assert.Zero(t, tx.Value().Sign())

	// Calldata is transfer(recipient, amount) in base units.
	method, err := erc20ABI.MethodById(tx.Data()[:4])
	require.NoError(t, err)
	assert.Equal(t, "transfer", method.Name)
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, fx.recipient, args[0].(common.Address))
	assert.Zero(t, args[1].(*big.Int).Cmp(units(t, "500", fx.decimals)))

	// The attached signature must recover to the PKP itself.
	chainID, _ := new(big.Int).SetString(testChainID, 10)
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, fx.pkp, sender)

	assert.EqualValues(t, 1, fx.signer.calls.Load())
}

func TestExecutePolicyAmountExceeded(t *testing.T) {
	fx := newFixture(t)

	result := fx.execute("500.000001")

	assert.Equal(t, errno.ErrPolicyAmountExceeded.Code, errCode(t, result))
	assert.Zero(t, fx.signer.calls.Load(), "nothing may be signed after a policy rejection")
	assert.Empty(t, fx.chain.sentTxs())
}

func TestExecuteRecipientNotAllowed(t *testing.T) {
	fx := newFixture(t)
	req := fx.request("10")
	req.RecipientAddress = "0x4444444444444444444444444444444444444444"

	result := fx.executor.Execute(context.Background(), "inv-1", req, fx.delegate)

	assert.Equal(t, errno.ErrRecipientNotAllowed.Code, errCode(t, result))
	assert.Zero(t, fx.chain.estimateCalls.Load(), "policy rejection must precede gas estimation")
	assert.Zero(t, fx.signer.calls.Load())
}

func TestExecuteTokenNotAllowed(t *testing.T) {
	fx := newFixture(t)
	other := common.HexToAddress("0x5555555555555555555555555555555555555555")
	fx.chain.code[other] = []byte{0x60, 0x80}
	req := fx.request("10")
	req.TokenIn = other.Hex()

	result := fx.executor.Execute(context.Background(), "inv-1", req, fx.delegate)

	assert.Equal(t, errno.ErrTokenNotAllowed.Code, errCode(t, result))
}

func TestExecuteUnrestrictedWithoutPolicy(t *testing.T) {
	fx := newFixture(t)
	fx.tools.policies = nil // no policy registered means unrestricted

	result := fx.execute("900")

	assert.Equal(t, model.StatusSuccess, result.Status, "error: %s", result.Error)
}

func TestExecuteNotAuthorized(t *testing.T) {
	fx := newFixture(t)
	stranger := common.HexToAddress("0x6666666666666666666666666666666666666666")

	result := fx.executor.Execute(context.Background(), "inv-1", fx.request("10"), stranger)

	assert.Equal(t, errno.ErrNotAuthorized.Code, errCode(t, result))
	assert.Zero(t, fx.chain.balanceCalls.Load(), "unauthorized callers must not trigger balance reads")
	assert.Zero(t, fx.chain.feeHistoryCalls.Load())
}

func TestExecuteIdentityNotFound(t *testing.T) {
	fx := newFixture(t)
	req := fx.request("10")
	req.PkpEthAddress = "0x7777777777777777777777777777777777777777"

	result := fx.executor.Execute(context.Background(), "inv-1", req, fx.delegate)

	assert.Equal(t, errno.ErrIdentityNotFound.Code, errCode(t, result))
}

func TestExecuteUnsupportedNetwork(t *testing.T) {
	fx := newFixture(t)
	fx.executor.network = "cayenne"

	result := fx.execute("10")

	assert.Equal(t, errno.ErrUnsupportedNetwork.Code, errCode(t, result))
}

func TestExecuteInsufficientBalance(t *testing.T) {
	fx := newFixture(t)
	fx.chain.balances[fx.pkp] = units(t, "3", fx.decimals)

	result := fx.execute("10")

	assert.Equal(t, errno.ErrInsufficientBalance.Code, errCode(t, result))
}

func TestExecuteTokenChecks(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"malformed address", "not-an-address", errno.ErrInvalidTokenAddress.Code},
		{"no contract deployed", "0x9999999999999999999999999999999999999999", errno.ErrTokenNotFound.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			req := fx.request("10")
			req.TokenIn = tt.token

			result := fx.executor.Execute(context.Background(), "inv-1", req, fx.delegate)

			assert.Equal(t, tt.wantCode, errCode(t, result))
		})
	}
}

func TestExecuteGasEstimateFallback(t *testing.T) {
	fx := newFixture(t)
	fx.chain.estimateErr = fmt.Errorf("execution reverted")

	result := fx.execute("10")

	require.Equal(t, model.StatusSuccess, result.Status, "estimation failure must not fail the transfer")
	sent := fx.chain.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, uint64(100_000), sent[0].Gas())
}

func TestExecuteInvalidChainID(t *testing.T) {
	fx := newFixture(t)
	req := fx.request("10")
	req.ChainID = "mainnet"

	result := fx.executor.Execute(context.Background(), "inv-1", req, fx.delegate)

	assert.Equal(t, errno.ErrSigningFailed.Code, errCode(t, result))
	assert.Zero(t, fx.signer.calls.Load())
}

func TestExecuteSendFailure(t *testing.T) {
	fx := newFixture(t)
	fx.chain.sendErr = fmt.Errorf("nonce too low")

	result := fx.execute("10")

	assert.Equal(t, errno.ErrBroadcastFailed.Code, errCode(t, result))
	assert.Equal(t, "transaction submission failed", result.Details.Reason)
	assert.Contains(t, result.Error, "nonce too low")
	require.NotNil(t, result.Details.Transaction, "failure must carry the attempted transaction")
	assert.Equal(t, uint64(7), result.Details.Transaction.Nonce)
}

func TestExecuteRevertedTransfer(t *testing.T) {
	fx := newFixture(t)
	fx.chain.receiptStatus = types.ReceiptStatusFailed

	result := fx.execute("10")

	assert.Equal(t, errno.ErrBroadcastFailed.Code, errCode(t, result))
	assert.Equal(t, "execution reverted", result.Details.Reason)
	require.NotNil(t, result.Details.Receipt)
	assert.Equal(t, types.ReceiptStatusFailed, result.Details.Receipt.Status)
}

// TestExecuteCohortDeduplication runs the pipeline as a redundant cohort:
// several members execute the same invocation concurrently, but fee data is
// sampled once and the transaction is submitted once. Signing is
// deterministic, so every member reports the same hash.
func TestExecuteCohortDeduplication(t *testing.T) {
	fx := newFixture(t)
	const members = 6

	results := make([]model.ExecutionResult, members)
	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fx.executor.Execute(context.Background(), "inv-shared", fx.request("250"), fx.delegate)
		}(i)
	}
	wg.Wait()

	require.Equal(t, model.StatusSuccess, results[0].Status, "error: %s", results[0].Error)
	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}

	assert.EqualValues(t, 1, fx.chain.feeHistoryCalls.Load(), "fee data must be sampled exactly once")
	assert.Len(t, fx.chain.sentTxs(), 1, "the transfer must be broadcast exactly once")
}
