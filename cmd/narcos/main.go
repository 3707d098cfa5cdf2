// Command-line client for the Narcos chat backend.
package main

import (
	"os"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/cli"
)

// Injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
