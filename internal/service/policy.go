package service

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/internal/registry"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
)

// evaluatePolicy fetches and enforces the spending policy for this tool.
// An absent policy means unrestricted. All three constraints are
// independent; the order only decides which error surfaces first.
func (e *Executor) evaluatePolicy(ctx context.Context, identity *model.Identity, facts *model.TokenFacts, req model.TransferRequest) error {
	defer observeStage("policy", time.Now())

	raw, _, err := e.tools.ToolPolicy(ctx, identity.TokenID, e.toolCid)
	if err != nil {
		return errno.InternalServerError.WithMessage("policy lookup failed: %v", err)
	}
	if len(raw) == 0 {
		logger.Debug("no policy registered, transfer unrestricted",
			zap.String("tokenId", identity.TokenID.String()),
			zap.String("tool", e.toolCid))
		return nil
	}

	policy, err := registry.DecodePolicy(raw)
	if err != nil {
		return errno.InternalServerError.WithMessage("policy decode failed: %v", err)
	}

	// The policy carries its own decimals hint but the ceiling is enforced
	// in token base units. A divergence means the admin recorded the policy
	// against a different scale; surface it rather than compare silently.
	if policy.DecimalsHint != facts.Decimals {
		logger.Warn("policy decimals hint diverges from token decimals",
			zap.Uint8("policyDecimals", policy.DecimalsHint),
			zap.Uint8("tokenDecimals", facts.Decimals),
			zap.String("token", req.TokenIn))
	}

	// Boundary is inclusive: amount == max is allowed.
	if facts.Amount.Cmp(policy.MaxAmount) > 0 {
		return errno.ErrPolicyAmountExceeded.WithMessage(
			"amount exceeds policy limit. Max allowed: %s", formatUnits(policy.MaxAmount, facts.Decimals))
	}

	if len(policy.AllowedTokens) > 0 && !containsAddress(policy.AllowedTokens, common.HexToAddress(req.TokenIn)) {
		return errno.ErrTokenNotAllowed.WithMessage(
			"token %s not allowed. Allowed tokens: %s", req.TokenIn, joinAddresses(policy.AllowedTokens))
	}

	if len(policy.AllowedRecipients) > 0 && !containsAddress(policy.AllowedRecipients, common.HexToAddress(req.RecipientAddress)) {
		return errno.ErrRecipientNotAllowed.WithMessage(
			"recipient %s not allowed. Allowed recipients: %s", req.RecipientAddress, joinAddresses(policy.AllowedRecipients))
	}

	return nil
}

// containsAddress compares in canonical form; common.Address equality
// already normalizes case and checksum.
func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func joinAddresses(list []common.Address) string {
	hexes := make([]string, len(list))
	for i, a := range list {
		hexes[i] = a.Hex()
	}
	return strings.Join(hexes, ", ")
}
