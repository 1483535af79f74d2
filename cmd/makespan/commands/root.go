// Package commands implements the CLI commands for makespan.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// CLI represents the command line interface for makespan.
type CLI struct {
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer
}

// New creates a new CLI writing reports to out and logs to errOut.
func New(out, errOut io.Writer) *CLI {
	rootCmd := &cobra.Command{
		Use:           "makespan",
		Short:         "Local search for makespan on identical machines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug | info | warn | error")
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	c := &CLI{
		rootCmd: rootCmd,
		out:     out,
		errOut:  errOut,
	}

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
