package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
	"github.com/madschristensen99/lit-full-self-signing/pkg/monitor"
)

const broadcastBarrierStep = "txnSender"

// receiptPollInterval paces the confirmation wait.
const receiptPollInterval = 2 * time.Second

// broadcastOutcome is the barrier payload of the broadcast step. Failures
// travel as data so every cohort member sees a diagnosable result instead
// of some members getting nothing.
type broadcastOutcome struct {
	Hash        string                    `json:"hash,omitempty"`
	Failed      bool                      `json:"failed,omitempty"`
	Message     string                    `json:"message,omitempty"`
	Code        int                       `json:"code,omitempty"`
	Reason      string                    `json:"reason,omitempty"`
	Transaction *model.TransactionSummary `json:"transaction,omitempty"`
	Receipt     *model.ReceiptSummary     `json:"receipt,omitempty"`
}

// broadcast submits the signed transaction exactly once across the cohort
// and waits for one confirmation. Submission/mining failures are captured
// into the outcome, not raised; only barrier transport faults error out.
func (e *Executor) broadcast(ctx context.Context, invocationID string, target chain.Client, signedTx *types.Transaction) (*broadcastOutcome, error) {
	defer observeStage("broadcast", time.Now())

	raw, err := e.barrier.Do(ctx, barrierName(invocationID, broadcastBarrierStep), func(ctx context.Context) ([]byte, error) {
		return json.Marshal(e.sendAndWait(ctx, target, signedTx))
	})
	if err != nil {
		return nil, errno.ErrBroadcastFailed.WithMessage("broadcast step failed: %v", err)
	}

	var outcome broadcastOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return nil, errno.ErrMalformedResult.WithMessage("malformed shared broadcast result: %v", err)
	}
	return &outcome, nil
}

func (e *Executor) sendAndWait(ctx context.Context, target chain.Client, signedTx *types.Transaction) *broadcastOutcome {
	summary := summarizeTransaction(signedTx)

	logger.Info("broadcasting transfer", zap.String("hash", signedTx.Hash().Hex()))

	if err := target.SendTransaction(ctx, signedTx); err != nil {
		if monitor.Business != nil {
			monitor.Business.BroadcastFailuresTotal.WithLabelValues("send").Inc()
		}
		return &broadcastOutcome{
			Failed:      true,
			Message:     err.Error(),
			Code:        errno.ErrBroadcastFailed.Code,
			Reason:      "transaction submission failed",
			Transaction: summary,
		}
	}

	receipt, err := waitMined(ctx, target, signedTx.Hash())
	if err != nil {
		// The transaction may still land; the caller must treat this as
		// status unknown, not safe.
		if monitor.Business != nil {
			monitor.Business.BroadcastFailuresTotal.WithLabelValues("confirmation").Inc()
		}
		return &broadcastOutcome{
			Failed:      true,
			Message:     err.Error(),
			Code:        errno.ErrBroadcastFailed.Code,
			Reason:      "confirmation wait failed",
			Transaction: summary,
		}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		if monitor.Business != nil {
			monitor.Business.BroadcastFailuresTotal.WithLabelValues("reverted").Inc()
		}
		return &broadcastOutcome{
			Failed:      true,
			Message:     "transaction reverted on-chain",
			Code:        errno.ErrBroadcastFailed.Code,
			Reason:      "execution reverted",
			Transaction: summary,
			Receipt:     summarizeReceipt(receipt),
		}
	}

	return &broadcastOutcome{Hash: receipt.TxHash.Hex()}
}

// waitMined polls for the receipt until the transaction is mined or the
// context ends.
func waitMined(ctx context.Context, target chain.Client, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := target.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func summarizeTransaction(tx *types.Transaction) *model.TransactionSummary {
	return &model.TransactionSummary{
		Hash:                 tx.Hash().Hex(),
		Nonce:                tx.Nonce(),
		GasLimit:             tx.Gas(),
		MaxFeePerGas:         tx.GasFeeCap().String(),
		MaxPriorityFeePerGas: tx.GasTipCap().String(),
	}
}

func summarizeReceipt(receipt *types.Receipt) *model.ReceiptSummary {
	summary := &model.ReceiptSummary{
		TransactionHash: receipt.TxHash.Hex(),
		Status:          receipt.Status,
		GasUsed:         receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		summary.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return summary
}
