package model

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferRequest is the externally supplied input of one pipeline run.
// All fields are immutable once bound; malformed values fail at the stage
// that consumes them.
type TransferRequest struct {
	PkpEthAddress    string `json:"pkpEthAddress"`
	RpcURL           string `json:"rpcUrl"`
	ChainID          string `json:"chainId"`
	TokenIn          string `json:"tokenIn"`
	RecipientAddress string `json:"recipientAddress"`
	AmountIn         string `json:"amountIn"` // human-readable decimal string
}

// Identity is the resolved threshold-signed account. Resolved once per
// invocation, never cached across invocations.
type Identity struct {
	TokenID    *big.Int
	EthAddress common.Address
	PublicKey  []byte
}

// PublicKeyHex is the key descriptor handed to the signing capability.
func (i *Identity) PublicKeyHex() string {
	return hex.EncodeToString(i.PublicKey)
}

// Policy is the decoded per-identity, per-tool spending constraint.
// Empty allow-lists mean no restriction.
type Policy struct {
	DecimalsHint      uint8
	MaxAmount         *big.Int
	AllowedTokens     []common.Address
	AllowedRecipients []common.Address
}

// TokenFacts carries the authoritative token reads. Amount is encoded with
// the token's own decimals, not the policy hint.
type TokenFacts struct {
	Decimals uint8
	Balance  *big.Int
	Amount   *big.Int
}

// FeePlan is computed exactly once per invocation and shared across the
// cohort so every member signs an identical transaction.
type FeePlan struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Nonce                uint64
}

// GasPlan is the inflated gas estimate, or the fixed fallback when
// estimation failed.
type GasPlan struct {
	Limit    uint64
	Fallback bool
}
