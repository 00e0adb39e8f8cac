package main

import (
	"os"

	"github.com/ecoalerta/ecoalerta-api/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
