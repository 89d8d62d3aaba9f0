// Command cdnatlas scores and lays out CDN dependencies from the command
// line and can serve the HTTP API.
package main

import (
	"os"

	"github.com/turtacn/CDNAtlas/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
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
	// Execute prints the error itself.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
