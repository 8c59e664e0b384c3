package main

import (
	"os"

	"github.com/realAYAYA/xcodegen/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
