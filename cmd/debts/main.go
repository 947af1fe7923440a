package main

import (
	"os"
	"runtime"

	"debts/internal/commands"
)

// The native window must run on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	rootCmd := commands.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
