package service

import (
	"regexp"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// report normalizes the pipeline outcome into the single tagged response.
// A success value that does not look like a transaction hash is reported as
// malformed rather than assumed successful.
func report(outcome *broadcastOutcome, err error) model.ExecutionResult {
	if err != nil {
		return failureResult(err)
	}

	if outcome.Failed {
		message := outcome.Message
		if message == "" {
			message = "Transaction failed"
		}
		return model.ExecutionResult{
			Status: model.StatusError,
			Error:  message,
			Details: &model.ErrorDetails{
				Message:     outcome.Message,
				Code:        outcome.Code,
				Reason:      outcome.Reason,
				Transaction: outcome.Transaction,
				Receipt:     outcome.Receipt,
			},
		}
	}

	if !txHashPattern.MatchString(outcome.Hash) {
		return failureResult(errno.ErrMalformedResult.WithMessage(
			"invalid transaction hash format. Received: %q", outcome.Hash))
	}

	return model.ExecutionResult{
		Status:       model.StatusSuccess,
		TransferHash: outcome.Hash,
	}
}

func failureResult(err error) model.ExecutionResult {
	code, message := errno.Decode(err)
	return model.ExecutionResult{
		Status: model.StatusError,
		Error:  message,
		Details: &model.ErrorDetails{
			Message: message,
			Code:    code,
		},
	}
}
