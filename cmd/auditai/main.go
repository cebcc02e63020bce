package main

import (
	"os"

	"github.com/auditai-dev/auditai/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
