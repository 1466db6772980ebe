package main

import (
	"os"

	"github.com/Use-Tusk/redirect-check/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
