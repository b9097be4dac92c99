package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/config"
	"github.com/ironsheep/handseg-mcp/internal/logging"
	"github.com/ironsheep/handseg-mcp/internal/pipeline"
)

var (
	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "handseg-mcp",
	Short: "Handwriting page segmentation",
	Long: `handseg-mcp splits scanned pages of handwriting into lines, words and
character slices in reading order.

With no subcommand it runs the MCP server on stdio.

Configuration is read, lowest priority first, from built-in defaults, the
TOML file given by --config, a .env file in the working directory, HANDSEG_*
environment variables, and command-line flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "TOML configuration file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Int("workers", 0, "word segmentation workers (0 = configured default)")
}

// setup resolves the configuration and logger for every command.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	c := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		c = loaded
	}

	c, err := config.FromEnv(c)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		c.LogLevel = level
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		c.Workers = workers
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	logger = logging.New(cfg.LogLevel)
	return nil
}

func newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(cfg, logger)
}
