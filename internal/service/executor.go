// Package service implements the delegated ERC-20 transfer pipeline:
// identity resolution, delegatee authorization, token and policy
// validation, fee/gas planning, threshold signing, and deduplicated
// broadcast. The pipeline is stateless per invocation; every external
// capability is injected so the whole chain is testable with doubles.
package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/internal/registry"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
	"github.com/madschristensen99/lit-full-self-signing/pkg/monitor"
	"github.com/madschristensen99/lit-full-self-signing/pkg/runonce"
	"github.com/madschristensen99/lit-full-self-signing/pkg/signer"
)

// Config identifies the Lit network and the tool this executor runs as.
type Config struct {
	Network             string // datil-dev, datil-test, datil
	ToolRegistryAddress common.Address
	ToolCid             string // operation id used for policy lookups
}

// Executor runs the transfer pipeline. One Executor serves many
// invocations; all per-invocation state lives on the stack.
type Executor struct {
	network string
	toolCid string

	directoryFor func(network string) (DirectoryClient, error)
	tools        PolicyRegistryClient
	dial         chain.Dialer
	signer       signer.Signer
	barrier      runonce.Barrier
}

// NewExecutor wires the production capabilities: registry reads go to the
// Lit chain client, target-chain reads go through dial per invocation.
func NewExecutor(cfg Config, litClient chain.Client, dial chain.Dialer, sg signer.Signer, barrier runonce.Barrier) *Executor {
	return &Executor{
		network: cfg.Network,
		toolCid: cfg.ToolCid,
		directoryFor: func(network string) (DirectoryClient, error) {
			addr, err := registry.RouterAddress(network)
			if err != nil {
				return nil, err
			}
			return registry.NewDirectory(litClient, addr), nil
		},
		tools:   registry.NewToolRegistry(litClient, cfg.ToolRegistryAddress),
		dial:    dial,
		signer:  sg,
		barrier: barrier,
	}
}

// Execute runs the full pipeline and never returns a raw error: every
// outcome is normalized into an ExecutionResult. invocationID scopes the
// single-execution barriers; redundant cohort members must pass the same id
// for the same logical transfer.
func (e *Executor) Execute(ctx context.Context, invocationID string, req model.TransferRequest, sessionSigner common.Address) model.ExecutionResult {
	outcome, err := e.run(ctx, invocationID, req, sessionSigner)
	result := report(outcome, err)

	if monitor.Business != nil {
		monitor.Business.TransfersTotal.WithLabelValues(result.Status).Inc()
	}
	if result.Status == model.StatusSuccess {
		logger.Info("transfer executed",
			zap.String("invocation", invocationID),
			zap.String("hash", result.TransferHash))
	} else {
		logger.Error("transfer failed",
			zap.String("invocation", invocationID),
			zap.String("error", result.Error))
	}
	return result
}

// run is the sequential stage chain. Any stage error short-circuits the
// rest; only the broadcaster reports failures as data instead.
func (e *Executor) run(ctx context.Context, invocationID string, req model.TransferRequest, sessionSigner common.Address) (*broadcastOutcome, error) {
	identity, err := e.resolveIdentity(ctx, req)
	if err != nil {
		return nil, err
	}

	// Authorization comes before any token or policy read: an
	// unauthorized caller learns nothing about balances.
	if err := e.authorize(ctx, identity, sessionSigner); err != nil {
		return nil, err
	}

	target, err := e.dial(ctx, req.RpcURL)
	if err != nil {
		return nil, errno.InternalServerError.WithMessage("failed to connect to rpc %s: %v", req.RpcURL, err)
	}

	facts, err := e.inspectToken(ctx, target, identity, req)
	if err != nil {
		return nil, err
	}

	if err := e.evaluatePolicy(ctx, identity, facts, req); err != nil {
		return nil, err
	}

	fee, err := e.planFees(ctx, invocationID, target, identity)
	if err != nil {
		return nil, err
	}

	calldata, err := transferCalldata(req, facts)
	if err != nil {
		return nil, err
	}

	gas := e.estimateGas(ctx, target, identity, req, calldata)

	signedTx, err := e.buildAndSign(ctx, req, identity, fee, gas, calldata)
	if err != nil {
		return nil, err
	}

	return e.broadcast(ctx, invocationID, target, signedTx)
}

// barrierName scopes a run-once step to one logical invocation.
func barrierName(invocationID, step string) string {
	return "transfer:" + invocationID + ":" + step
}

func observeStage(stage string, start time.Time) {
	if monitor.Business != nil {
		monitor.Business.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
