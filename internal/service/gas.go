package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
	"github.com/madschristensen99/lit-full-self-signing/pkg/monitor"
)

// fallbackGasLimit is the conservative limit used when estimation fails.
const fallbackGasLimit = 100000

// estimateGas simulates the transfer with the identity as sender and
// inflates the estimate by 20%. Estimation is advisory: any failure falls
// back to the fixed limit instead of failing the pipeline.
func (e *Executor) estimateGas(ctx context.Context, target chain.Client, identity *model.Identity, req model.TransferRequest, calldata []byte) model.GasPlan {
	defer observeStage("gas", time.Now())

	token := common.HexToAddress(req.TokenIn)
	estimated, err := target.EstimateGas(ctx, ethereum.CallMsg{
		From: identity.EthAddress,
		To:   &token,
		Data: calldata,
	})
	if err != nil {
		logger.Warn("gas estimation failed, using fallback limit",
			zap.Uint64("fallback", fallbackGasLimit),
			zap.Error(err))
		if monitor.Business != nil {
			monitor.Business.GasFallbackTotal.Inc()
		}
		return model.GasPlan{Limit: fallbackGasLimit, Fallback: true}
	}

	return model.GasPlan{Limit: estimated * 120 / 100}
}
