package errno

import "fmt"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is matches two Errno values by code, so errors.Is works across
// WithMessage copies.
func (e Errno) Is(target error) bool {
	switch typed := target.(type) {
	case Errno:
		return typed.Code == e.Code
	case *Errno:
		return typed.Code == e.Code
	}
	return false
}

// WithMessage returns a copy of the Errno carrying a more specific message.
// The code is preserved so the kind is still matchable with errors.Is.
func (e Errno) WithMessage(format string, args ...interface{}) Errno {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrAuthSignature    = Errno{Code: 10003, Message: "Missing or invalid auth signature"}
)

// Pipeline Errors (20000+)
var (
	ErrUnsupportedNetwork  = Errno{Code: 20101, Message: "Unsupported Lit network"}
	ErrIdentityNotFound    = Errno{Code: 20102, Message: "PKP identity not found"}
	ErrNotAuthorized       = Errno{Code: 20201, Message: "Session signer is not a delegatee"}
	ErrInvalidTokenAddress = Errno{Code: 20301, Message: "Invalid token address"}
	ErrTokenNotFound       = Errno{Code: 20302, Message: "No contract found at token address"}
	ErrTokenContract       = Errno{Code: 20303, Message: "Failed to interact with token contract"}
	ErrInsufficientBalance = Errno{Code: 20304, Message: "Insufficient balance"}
	ErrPolicyAmountExceeded = Errno{Code: 20401, Message: "Amount exceeds policy limit"}
	ErrTokenNotAllowed      = Errno{Code: 20402, Message: "Token not allowed by policy"}
	ErrRecipientNotAllowed  = Errno{Code: 20403, Message: "Recipient not allowed by policy"}
	ErrFeeDataUnavailable   = Errno{Code: 20501, Message: "Failed to fetch fee data"}
	ErrSigningFailed        = Errno{Code: 20601, Message: "Signing failed"}
	ErrBroadcastFailed      = Errno{Code: 20701, Message: "Broadcast failed"}
	ErrMalformedResult      = Errno{Code: 20702, Message: "Malformed broadcast result"}
)
