// Package commands implements the CLI commands for the resolve tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// CLI represents the command line interface for resolve.
type CLI struct {
	rootCmd *cobra.Command
}

// New creates a new CLI instance.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "resolve",
		Short:         "Resolves a module's dependency graph and installs its artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "resolve.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().String("root", "", "Override the configured installation root directory")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Reinstall every artifact instead of skipping unchanged ones (existing volatile files are kept)")

	c := &CLI{rootCmd: rootCmd}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newVersionCmd())

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

// SetOut redirects command output. Used for testing.
func (c *CLI) SetOut(w io.Writer) {
	c.rootCmd.SetOut(w)
}
