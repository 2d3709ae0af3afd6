package main

import (
	"os"

	"github.com/sanketnighot/hookified/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
