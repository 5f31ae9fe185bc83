package main

import (
	"os"

	"github.com/wonhee/tigerboard/cmd/tigerboard/commands"
)

// main is the entry point for the tigerboard CLI:
// go run ./cmd/tigerboard [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
