package handler

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/madschristensen99/lit-full-self-signing/internal/handler/middleware"
	"github.com/madschristensen99/lit-full-self-signing/internal/handler/request"
	"github.com/madschristensen99/lit-full-self-signing/internal/handler/response"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
	"github.com/madschristensen99/lit-full-self-signing/pkg/safe_random"
	"github.com/madschristensen99/lit-full-self-signing/pkg/validator"
)

// invocationHeader lets redundant executors share one barrier scope; the
// coordinator that fans a request out to the cohort sets it.
const invocationHeader = "X-Invocation-Id"

// TransferExecutor is the pipeline surface the handler depends on.
type TransferExecutor interface {
	Execute(ctx context.Context, invocationID string, req model.TransferRequest, sessionSigner common.Address) model.ExecutionResult
}

type TransferHandler struct {
	executor TransferExecutor
}

func NewTransferHandler(executor TransferExecutor) *TransferHandler {
	return &TransferHandler{executor: executor}
}

// Execute runs one delegated ERC-20 transfer
// @Summary Execute a delegated ERC-20 transfer
// @Description Runs the policy-gated transfer pipeline for the PKP identity
// @Tags Transfer
// @Accept json
// @Produce json
// @Param request body request.TransferRequest true "Transfer Request"
// @Success 200 {object} model.ExecutionResult
// @Router /api/v1/transfer [post]
func (h *TransferHandler) Execute(c *gin.Context) {
	var req request.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage("%s", validator.GetErrorMsg(err)))
		return
	}

	sessionSigner, ok := middleware.SignerFromContext(c)
	if !ok {
		response.Error(c, errno.ErrAuthSignature)
		return
	}

	invocationID := c.GetHeader(invocationHeader)
	if invocationID == "" {
		id, err := safe_random.GenerateRandomHexString(16)
		if err != nil {
			response.Error(c, errno.InternalServerError)
			return
		}
		invocationID = id
	}

	result := h.executor.Execute(c.Request.Context(), invocationID, model.TransferRequest{
		PkpEthAddress:    req.PkpEthAddress,
		RpcURL:           req.RpcUrl,
		ChainID:          req.ChainId,
		TokenIn:          req.TokenIn,
		RecipientAddress: req.RecipientAddress,
		AmountIn:         req.AmountIn,
	}, sessionSigner)

	response.Result(c, result)
}
