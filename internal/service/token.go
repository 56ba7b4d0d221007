package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

const erc20ABIJSON = `[
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// inspectToken validates the token contract, reads its decimals and the
// identity's balance, and converts the human-readable amount to base units
// using the token's own decimals.
func (e *Executor) inspectToken(ctx context.Context, target chain.Client, identity *model.Identity, req model.TransferRequest) (*model.TokenFacts, error) {
	defer observeStage("token", time.Now())

	if !common.IsHexAddress(req.TokenIn) {
		return nil, errno.ErrInvalidTokenAddress.WithMessage("invalid token address: %s", req.TokenIn)
	}
	token := common.HexToAddress(req.TokenIn)

	code, err := target.CodeAt(ctx, token, nil)
	if err != nil {
		return nil, errno.ErrTokenContract.WithMessage("failed to read code at %s: %v", req.TokenIn, err)
	}
	if len(code) == 0 {
		return nil, errno.ErrTokenNotFound.WithMessage("no contract found at address: %s", req.TokenIn)
	}

	decimals, err := tokenDecimals(ctx, target, token)
	if err != nil {
		return nil, errno.ErrTokenContract.WithMessage("failed to interact with token contract at %s: %v", req.TokenIn, err)
	}

	balance, err := tokenBalance(ctx, target, token, identity.EthAddress)
	if err != nil {
		return nil, errno.ErrTokenContract.WithMessage("failed to interact with token contract at %s: %v", req.TokenIn, err)
	}

	amount, err := parseUnits(req.AmountIn, decimals)
	if err != nil {
		return nil, errno.ErrTokenContract.WithMessage("failed to parse amount %q: %v", req.AmountIn, err)
	}

	if amount.Cmp(balance) > 0 {
		return nil, errno.ErrInsufficientBalance.WithMessage(
			"insufficient balance. PKP balance: %s. Required: %s",
			formatUnits(balance, decimals), formatUnits(amount, decimals))
	}

	return &model.TokenFacts{Decimals: decimals, Balance: balance, Amount: amount}, nil
}

// transferCalldata encodes transfer(recipient, amount).
func transferCalldata(req model.TransferRequest, facts *model.TokenFacts) ([]byte, error) {
	if !common.IsHexAddress(req.RecipientAddress) {
		return nil, errno.ErrTokenContract.WithMessage("invalid recipient address: %s", req.RecipientAddress)
	}
	data, err := erc20ABI.Pack("transfer", common.HexToAddress(req.RecipientAddress), facts.Amount)
	if err != nil {
		return nil, errno.InternalServerError.WithMessage("failed to encode transfer call: %v", err)
	}
	return data, nil
}

func erc20Call(ctx context.Context, target chain.Client, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := target.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	vals, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return vals, nil
}

func tokenDecimals(ctx context.Context, target chain.Client, token common.Address) (uint8, error) {
	vals, err := erc20Call(ctx, target, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type %T", vals[0])
	}
	return decimals, nil
}

func tokenBalance(ctx context.Context, target chain.Client, token, holder common.Address) (*big.Int, error) {
	vals, err := erc20Call(ctx, target, token, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	balance, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", vals[0])
	}
	return balance, nil
}

// parseUnits converts a human-readable decimal string to base units.
// Amounts with more fractional digits than the token supports are rejected
// rather than silently truncated.
func parseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("not a decimal number: %w", err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return shifted.BigInt(), nil
}

// formatUnits renders base units back into the human-readable form.
func formatUnits(amount *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
