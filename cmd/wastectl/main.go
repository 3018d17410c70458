package main

import (
	"fmt"
	"os"

	"github.com/anime-shed/waste-inspector-go/cmd/wastectl/commands"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

func main() {
	rootCmd := commands.NewRootCmd()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", Version, Commit)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
