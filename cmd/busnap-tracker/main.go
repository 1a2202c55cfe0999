package main

import (
	"os"

	"github.com/busnap/tracking-bridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
