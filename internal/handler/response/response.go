package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

// Result writes the pipeline's tagged execution result. The transport
// status is always 200; outcome is carried in the body, matching the
// pipeline's "never throw past the boundary" contract.
func Result(c *gin.Context, result model.ExecutionResult) {
	c.JSON(http.StatusOK, result)
}

// Error writes a pre-pipeline failure (binding, auth) in the same tagged
// shape the pipeline emits.
func Error(c *gin.Context, err error) {
	code, message := errno.Decode(err)
	c.JSON(http.StatusOK, model.ExecutionResult{
		Status: model.StatusError,
		Error:  message,
		Details: &model.ErrorDetails{
			Message: message,
			Code:    code,
		},
	})
}
