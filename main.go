package main

import (
	"os"

	"github.com/dwmorris/sqlpilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
