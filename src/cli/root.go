// Package cli implements the dropzone command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

const defaultConfigPath = "config.yaml"

// CLI is the dropzone command line interface.
type CLI struct {
	rootCmd    *cobra.Command
	configPath string
}

// New creates the command tree.
func New() *CLI {
	c := &CLI{}
	rootCmd := &cobra.Command{
		Use:           "dropzone",
		Short:         "Watch drop folders and hand new files to an LLM, an OCR engine or a script",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfigPath, "Path to the YAML configuration file")

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newProcessCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// setup loads the configuration and installs the default logger.
func (c *CLI) setup() (*config.Manager, func(), error) {
	cfgManager, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.SetupLogger(cfgManager)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfgManager, func() { _ = closer.Close() }, nil
}
