package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/pkg/signer"
)

// fakeDirectory is an in-memory PubkeyRouter.
type fakeDirectory struct {
	ids  map[common.Address]*big.Int
	keys map[string][]byte // token id -> public key

	resolveCalls atomic.Int32
	err          error
}

func (d *fakeDirectory) ResolveID(ctx context.Context, ethAddress common.Address) (*big.Int, error) {
	d.resolveCalls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	id, ok := d.ids[ethAddress]
	if !ok {
		return big.NewInt(0), nil
	}
	return id, nil
}

func (d *fakeDirectory) PublicKey(ctx context.Context, tokenID *big.Int) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.keys[tokenID.String()], nil
}

// fakeTools is an in-memory tool registry.
type fakeTools struct {
	delegates map[string]map[common.Address]bool // token id -> allowed signers
	policies  map[string][]byte                  // token id + "|" + tool cid -> blob
	err       error
}

func (f *fakeTools) IsDelegatee(ctx context.Context, tokenID *big.Int, delegatee common.Address) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.delegates[tokenID.String()][delegatee], nil
}

func (f *fakeTools) ToolPolicy(ctx context.Context, tokenID *big.Int, toolCid string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.policies[tokenID.String()+"|"+toolCid], "1", nil
}

// fakeChain implements chain.Client over in-memory ERC-20 state. Contract
// calls are routed by selector through the same ABI the pipeline packs with.
type fakeChain struct {
	mu sync.Mutex

	code     map[common.Address][]byte
	decimals uint8
	balances map[common.Address]*big.Int

	baseFee *big.Int
	nonce   uint64

	gasEstimate   uint64
	estimateErr   error
	sendErr       error
	receiptStatus uint64
	receiptErr    error

	feeHistoryCalls atomic.Int32
	balanceCalls    atomic.Int32
	estimateCalls   atomic.Int32

	sent []*types.Transaction
}

func newFakeChain(token, holder common.Address, decimals uint8, balance *big.Int) *fakeChain {
	return &fakeChain{
		code:          map[common.Address][]byte{token: {0x60, 0x80}},
		decimals:      decimals,
		balances:      map[common.Address]*big.Int{holder: balance},
		baseFee:       big.NewInt(1_000_000_000), // 1 gwei
		nonce:         7,
		gasEstimate:   60_000,
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (f *fakeChain) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return f.code[account], nil
}

func (f *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if len(call.Data) < 4 {
		return nil, errors.New("missing selector")
	}
	selector := call.Data[:4]

	if m := erc20ABI.Methods["decimals"]; string(selector) == string(m.ID) {
		return m.Outputs.Pack(f.decimals)
	}
	if m := erc20ABI.Methods["balanceOf"]; string(selector) == string(m.ID) {
		f.balanceCalls.Add(1)
		args, err := m.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		holder := args[0].(common.Address)
		balance := f.balances[holder]
		if balance == nil {
			balance = big.NewInt(0)
		}
		return m.Outputs.Pack(balance)
	}
	return nil, fmt.Errorf("unexpected selector %x", selector)
}

func (f *fakeChain) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeChain) FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error) {
	f.feeHistoryCalls.Add(1)
	return &ethereum.FeeHistory{BaseFee: []*big.Int{new(big.Int).Set(f.baseFee)}}, nil
}

func (f *fakeChain) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	f.estimateCalls.Add(1)
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.gasEstimate, nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, tx)
	f.mu.Unlock()
	return nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return &types.Receipt{
		TxHash:      txHash,
		Status:      f.receiptStatus,
		GasUsed:     48_211,
		BlockNumber: big.NewInt(1),
	}, nil
}

var _ chain.Client = (*fakeChain)(nil)

func (f *fakeChain) sentTxs() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Transaction(nil), f.sent...)
}

// countingSigner wraps a Signer and counts invocations.
type countingSigner struct {
	inner signer.Signer
	calls atomic.Int32
}

func (c *countingSigner) Sign(ctx context.Context, digest []byte, publicKey string, sigName string) (*signer.Signature, error) {
	c.calls.Add(1)
	return c.inner.Sign(ctx, digest, publicKey, sigName)
}
