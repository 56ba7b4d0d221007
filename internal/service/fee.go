package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

const feeBarrierStep = "gasPriceGetter"

// feePlanWire is the barrier payload; shared verbatim so every cohort
// member signs over identical fees and nonce.
type feePlanWire struct {
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	Nonce                uint64 `json:"nonce"`
}

// planFees samples the latest base fee and the identity's transaction count
// exactly once across the cohort. Priority fee is base/4, max fee base*2
// (integer math). Network failure here is fatal; there is no fallback.
func (e *Executor) planFees(ctx context.Context, invocationID string, target chain.Client, identity *model.Identity) (*model.FeePlan, error) {
	defer observeStage("fee", time.Now())

	raw, err := e.barrier.Do(ctx, barrierName(invocationID, feeBarrierStep), func(ctx context.Context) ([]byte, error) {
		history, err := target.FeeHistory(ctx, 1, nil, nil)
		if err != nil {
			return nil, err
		}
		if len(history.BaseFee) == 0 {
			return nil, errors.New("fee history returned no base fee")
		}
		baseFee := history.BaseFee[0]

		nonce, err := target.NonceAt(ctx, identity.EthAddress, nil)
		if err != nil {
			return nil, err
		}

		return json.Marshal(feePlanWire{
			MaxFeePerGas:         hexutil.EncodeBig(new(big.Int).Mul(baseFee, big.NewInt(2))),
			MaxPriorityFeePerGas: hexutil.EncodeBig(new(big.Int).Div(baseFee, big.NewInt(4))),
			Nonce:                nonce,
		})
	})
	if err != nil {
		return nil, errno.ErrFeeDataUnavailable.WithMessage("failed to fetch fee data: %v", err)
	}

	var wire feePlanWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errno.ErrFeeDataUnavailable.WithMessage("malformed shared fee data: %v", err)
	}
	maxFee, err := hexutil.DecodeBig(wire.MaxFeePerGas)
	if err != nil {
		return nil, errno.ErrFeeDataUnavailable.WithMessage("malformed shared max fee: %v", err)
	}
	priorityFee, err := hexutil.DecodeBig(wire.MaxPriorityFeePerGas)
	if err != nil {
		return nil, errno.ErrFeeDataUnavailable.WithMessage("malformed shared priority fee: %v", err)
	}

	return &model.FeePlan{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: priorityFee,
		Nonce:                wire.Nonce,
	}, nil
}
