package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

// authorize confirms the session signer is a registered delegatee of the
// PKP. The signer address comes from the execution context (signature
// recovery), never the request body, and no policy can waive this check.
func (e *Executor) authorize(ctx context.Context, identity *model.Identity, sessionSigner common.Address) error {
	defer observeStage("authorize", time.Now())

	ok, err := e.tools.IsDelegatee(ctx, identity.TokenID, sessionSigner)
	if err != nil {
		return errno.InternalServerError.WithMessage("delegatee check failed: %v", err)
	}
	if !ok {
		return errno.ErrNotAuthorized.WithMessage(
			"session signer %s is not a delegatee for PKP %s", sessionSigner.Hex(), identity.TokenID.String())
	}
	return nil
}
