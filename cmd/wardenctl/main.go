package main

import (
	"os"

	"github.com/chatwarden/chatwarden/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
