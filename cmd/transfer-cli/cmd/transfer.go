package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/madschristensen99/lit-full-self-signing/internal/chain"
	"github.com/madschristensen99/lit-full-self-signing/internal/model"
	"github.com/madschristensen99/lit-full-self-signing/internal/service"
	"github.com/madschristensen99/lit-full-self-signing/pkg/logger"
	"github.com/madschristensen99/lit-full-self-signing/pkg/runonce"
	"github.com/madschristensen99/lit-full-self-signing/pkg/safe_random"
	"github.com/madschristensen99/lit-full-self-signing/pkg/signer"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Execute one delegated ERC-20 transfer",
	Run: func(cmd *cobra.Command, args []string) {
		pkpAddress, _ := cmd.Flags().GetString("pkp-address")
		rpcURL, _ := cmd.Flags().GetString("rpc-url")
		chainID, _ := cmd.Flags().GetString("chain-id")
		token, _ := cmd.Flags().GetString("token")
		recipient, _ := cmd.Flags().GetString("recipient")
		amount, _ := cmd.Flags().GetString("amount")
		network, _ := cmd.Flags().GetString("network")
		toolRegistry, _ := cmd.Flags().GetString("tool-registry")
		toolCid, _ := cmd.Flags().GetString("tool-cid")
		yellowstoneRPC, _ := cmd.Flags().GetString("yellowstone-rpc")
		keyHex, _ := cmd.Flags().GetString("key")
		delegate, _ := cmd.Flags().GetString("delegate")

		logger.Init("dev")
		defer logger.Sync()

		sg, err := signer.NewLocalSignerFromHex(keyHex)
		if err != nil {
			fmt.Printf("invalid signing key: %v\n", err)
			os.Exit(1)
		}

		// The delegate defaults to the address of the signing key; a
		// separate delegate can be named when the registry authorizes
		// someone other than the key holder.
		sessionSigner := common.HexToAddress(delegate)
		if delegate == "" {
			priv, err := crypto.HexToECDSA(keyHex)
			if err != nil {
				fmt.Printf("invalid signing key: %v\n", err)
				os.Exit(1)
			}
			sessionSigner = crypto.PubkeyToAddress(priv.PublicKey)
		}

		ctx := context.Background()

		litClient, err := chain.Dial(ctx, yellowstoneRPC)
		if err != nil {
			fmt.Printf("lit chain rpc connection failed: %v\n", err)
			os.Exit(1)
		}

		executor := service.NewExecutor(service.Config{
			Network:             network,
			ToolRegistryAddress: common.HexToAddress(toolRegistry),
			ToolCid:             toolCid,
		}, litClient, chain.Dial, sg, runonce.NewMemoryBarrier())

		invocationID, err := safe_random.GenerateRandomHexString(16)
		if err != nil {
			fmt.Printf("failed to generate invocation id: %v\n", err)
			os.Exit(1)
		}

		result := executor.Execute(ctx, invocationID, model.TransferRequest{
			PkpEthAddress:    pkpAddress,
			RpcURL:           rpcURL,
			ChainID:          chainID,
			TokenIn:          token,
			RecipientAddress: recipient,
			AmountIn:         amount,
		}, sessionSigner)

		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		if result.Status != model.StatusSuccess {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().String("pkp-address", "", "PKP ethereum address owning the tokens")
	transferCmd.Flags().String("rpc-url", "", "RPC endpoint of the target chain")
	transferCmd.Flags().String("chain-id", "", "chain id of the target chain (decimal)")
	transferCmd.Flags().String("token", "", "ERC-20 token contract address")
	transferCmd.Flags().String("recipient", "", "transfer recipient address")
	transferCmd.Flags().String("amount", "", "transfer amount in token units, e.g. 1.5")
	transferCmd.Flags().String("network", "datil-dev", "Lit network: datil-dev, datil-test or datil")
	transferCmd.Flags().String("tool-registry", "", "PKP tool registry contract address")
	transferCmd.Flags().String("tool-cid", "", "tool identifier used for policy lookups")
	transferCmd.Flags().String("yellowstone-rpc", "https://yellowstone-rpc.litprotocol.com", "Lit chain RPC endpoint")
	transferCmd.Flags().String("key", "", "hex signing key (threshold stand-in)")
	transferCmd.Flags().String("delegate", "", "delegate address, defaults to the signing key address")

	_ = transferCmd.MarkFlagRequired("pkp-address")
	_ = transferCmd.MarkFlagRequired("rpc-url")
	_ = transferCmd.MarkFlagRequired("chain-id")
	_ = transferCmd.MarkFlagRequired("token")
	_ = transferCmd.MarkFlagRequired("recipient")
	_ = transferCmd.MarkFlagRequired("amount")
	_ = transferCmd.MarkFlagRequired("tool-registry")
	_ = transferCmd.MarkFlagRequired("key")
}
