package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
)

// resolveIdentity maps the request's PKP eth address to its on-chain
// descriptor via the PubkeyRouter directory.
func (e *Executor) resolveIdentity(ctx context.Context, req model.TransferRequest) (*model.Identity, error) {
	defer observeStage("identity", time.Now())

	if !common.IsHexAddress(req.PkpEthAddress) {
		return nil, errno.ErrIdentityNotFound.WithMessage("invalid PKP eth address: %s", req.PkpEthAddress)
	}
	ethAddress := common.HexToAddress(req.PkpEthAddress)

	directory, err := e.directoryFor(e.network)
	if err != nil {
		return nil, err
	}

	logger.Debug("resolving PKP identity", zap.String("address", ethAddress.Hex()))

	tokenID, err := directory.ResolveID(ctx, ethAddress)
	if err != nil {
		return nil, errno.InternalServerError.WithMessage("PKP id lookup failed: %v", err)
	}
	if tokenID == nil || tokenID.Sign() == 0 {
		return nil, errno.ErrIdentityNotFound.WithMessage("no PKP registered for address %s", ethAddress.Hex())
	}

	publicKey, err := directory.PublicKey(ctx, tokenID)
	if err != nil {
		return nil, errno.InternalServerError.WithMessage("PKP public key lookup failed: %v", err)
	}
	if len(publicKey) == 0 {
		return nil, errno.ErrIdentityNotFound.WithMessage("no public key registered for PKP %s", tokenID.String())
	}

	logger.Debug("resolved PKP identity",
		zap.String("tokenId", tokenID.String()),
		zap.String("address", ethAddress.Hex()))

	return &model.Identity{
		TokenID:    tokenID,
		EthAddress: ethAddress,
		PublicKey:  publicKey,
	}, nil
}
