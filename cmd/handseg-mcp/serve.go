package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server. Requests are read from stdin
one JSON-RPC message per line; responses are written to stdout. Logs go to
stderr.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "handseg": {
        "command": "/path/to/handseg-mcp",
        "args": ["serve"]
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	pipe, err := newPipeline()
	if err != nil {
		return err
	}
	defer pipe.Close()

	logger.Info("starting MCP server",
		zap.String("version", Version),
		zap.Int("workers", cfg.Workers))

	return server.New(pipe, logger, server.WithVersion(Version)).Run()
}
