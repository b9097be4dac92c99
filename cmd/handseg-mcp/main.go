// Command handseg-mcp segments handwritten pages into lines, words and
// characters. It runs as an MCP server over stdio by default and also
// offers one-shot segment and read commands.
package main

import (
	"os"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
