package main

import "github.com/madschristensen99/lit-full-self-signing/cmd/transfer-cli/cmd"

func main() {
	cmd.Execute()
}
