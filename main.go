package main

import (
	"os"

	"github.com/dima1799/jobradar-ai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
