package main

import (
	"os"

	"github.com/ritenv/cartified/internal/infrastructure/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
