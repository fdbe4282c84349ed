// Package cmd defines and implements the CLI commands for the lexcrawl
// executable.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexcrawl",
		Short: "Maintains a machine-readable corpus of legislative text",
		Long: `lexcrawl scrapes a legislative source site, normalizes its
loosely structured documents into citable provisions and term
definitions, and persists one structured record per document for
downstream search and citation tooling.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newIngestCmd())

	return cmd
}

// Execute is the main entry point. Interrupt signals cancel the run
// between documents; already-persisted output is reused on resume.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
