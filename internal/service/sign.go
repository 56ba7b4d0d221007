package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

// sigName labels the threshold signing session for this operation.
const sigName = "erc20TransferSig"

// buildAndSign assembles the EIP-1559 transfer transaction, computes its
// signing digest, and attaches the combined signature obtained from the
// signing capability. The transaction is immutable once built; fees and
// nonce come from the shared FeePlan so every cohort member signs the same
// digest.
func (e *Executor) buildAndSign(ctx context.Context, req model.TransferRequest, identity *model.Identity, fee *model.FeePlan, gas model.GasPlan, calldata []byte) (*types.Transaction, error) {
	defer observeStage("sign", time.Now())

	chainID, ok := new(big.Int).SetString(req.ChainID, 10)
	if !ok || chainID.Sign() <= 0 {
		return nil, errno.ErrSigningFailed.WithMessage("invalid chain id: %q", req.ChainID)
	}

	token := common.HexToAddress(req.TokenIn)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     fee.Nonce,
		GasTipCap: fee.MaxPriorityFeePerGas,
		GasFeeCap: fee.MaxFeePerGas,
		Gas:       gas.Limit,
		To:        &token,
		Value:     new(big.Int),
		Data:      calldata,
	})

	txSigner := types.LatestSignerForChainID(chainID)
	digest := txSigner.Hash(tx)

	signature, err := e.signer.Sign(ctx, digest.Bytes(), identity.PublicKeyHex(), sigName)
	if err != nil {
		return nil, errno.ErrSigningFailed.WithMessage("signing failed: %v", err)
	}
	sigBytes, err := signature.Bytes65()
	if err != nil {
		return nil, errno.ErrSigningFailed.WithMessage("malformed signature from signing capability: %v", err)
	}

	signedTx, err := tx.WithSignature(txSigner, sigBytes)
	if err != nil {
		return nil, errno.ErrSigningFailed.WithMessage("failed to attach signature: %v", err)
	}
	return signedTx, nil
}
