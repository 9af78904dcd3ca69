package main

import (
	"os"

	"github.com/OrcaXS/animeloop-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
