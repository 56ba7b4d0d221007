package request

// TransferRequest is the POST /api/v1/transfer payload. amountIn is a
// human-readable decimal string; conversion to base units happens inside
// the pipeline using the token's own decimals.
type TransferRequest struct {
	PkpEthAddress    string `json:"pkpEthAddress" binding:"required"`
	RpcUrl           string `json:"rpcUrl" binding:"required,url"`
	ChainId          string `json:"chainId" binding:"required,numeric"`
	TokenIn          string `json:"tokenIn" binding:"required"`
	RecipientAddress string `json:"recipientAddress" binding:"required"`
	AmountIn         string `json:"amountIn" binding:"required"`
}
