package main

import (
	"os"

	"github.com/living-library/loom/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
