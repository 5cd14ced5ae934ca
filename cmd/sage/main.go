package main

import (
	"os"

	"github.com/lumenworks/sage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
