package model

// Result status tags, the only two the pipeline emits.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TransactionSummary is the partial transaction data attached to a
// broadcast failure.
type TransactionSummary struct {
	Hash                 string `json:"hash,omitempty"`
	Nonce                uint64 `json:"nonce"`
	GasLimit             uint64 `json:"gasLimit"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
}

// ReceiptSummary is the partial receipt data attached when a transaction
// was mined but the transfer still failed.
type ReceiptSummary struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
	Status          uint64 `json:"status"`
	GasUsed         uint64 `json:"gasUsed"`
}

// ErrorDetails is the structured detail bag of a failed execution.
type ErrorDetails struct {
	Message     string              `json:"message,omitempty"`
	Code        int                 `json:"code,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	Transaction *TransactionSummary `json:"transaction,omitempty"`
	Receipt     *ReceiptSummary     `json:"receipt,omitempty"`
}

// ExecutionResult is the sole output of the pipeline: a tagged
// success/failure record. No error ever escapes the pipeline boundary raw.
type ExecutionResult struct {
	Status       string        `json:"status"`
	TransferHash string        `json:"transferHash,omitempty"`
	Error        string        `json:"error,omitempty"`
	Details      *ErrorDetails `json:"details,omitempty"`
}
