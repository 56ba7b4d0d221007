// Package middleware carries the session auth for the transfer API. The
// caller signs the raw request body; the recovered address becomes the
// session signer the pipeline authorizes against. The body itself never
// names the signer, so it cannot be spoofed.
package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"github.com/madschristensen99/lit-full-self-signing/internal/handler/response"
	"github.com/madschristensen99/lit-full-self-signing/pkg/errno"
)

// SignerKey is the gin context key holding the recovered session signer.
const SignerKey = "session_signer"

// SignatureHeader carries the hex-encoded 65-byte secp256k1 signature over
// the EIP-191 hash of the request body.
const SignatureHeader = "X-Auth-Signature"

// AuthSigner recovers the session signer from the body signature and
// aborts with an auth error when the header is missing or invalid.
func AuthSigner() gin.HandlerFunc {
	return func(c *gin.Context) {
		sigHex := c.GetHeader(SignatureHeader)
		if sigHex == "" {
			response.Error(c, errno.ErrAuthSignature)
			c.Abort()
			return
		}
		if !strings.HasPrefix(sigHex, "0x") {
			sigHex = "0x" + sigHex
		}

		sig, err := hexutil.Decode(sigHex)
		if err != nil || len(sig) != crypto.SignatureLength {
			response.Error(c, errno.ErrAuthSignature.WithMessage("auth signature must be a 65-byte hex string"))
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, errno.ErrBind)
			c.Abort()
			return
		}
		// Put the body back for the handler's binding.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		// Tolerate 27/28 style recovery ids.
		recoverSig := make([]byte, len(sig))
		copy(recoverSig, sig)
		if recoverSig[64] >= 27 {
			recoverSig[64] -= 27
		}

		pub, err := crypto.SigToPub(accounts.TextHash(body), recoverSig)
		if err != nil {
			response.Error(c, errno.ErrAuthSignature.WithMessage("auth signature recovery failed"))
			c.Abort()
			return
		}

		c.Set(SignerKey, crypto.PubkeyToAddress(*pub))
		c.Next()
	}
}

// SignerFromContext returns the recovered session signer, if any.
func SignerFromContext(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(SignerKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}
