package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "transfer-cli",
	Short: "Run a policy-gated ERC-20 transfer from the command line",
	Long: `transfer-cli drives the delegated transfer pipeline without the HTTP
server: it resolves the PKP identity, checks delegatee authorization and
on-chain policy, then signs and broadcasts an EIP-1559 token transfer.
Signing uses a local key as a stand-in for the threshold cohort.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
