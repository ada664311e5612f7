// Package cmd defines and implements the CLI commands for the jobscraper
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobscraper",
		Short: "Batch scraper for IT job listings.",
		Long: `jobscraper runs one batch collection of IT job listings from a
search-results site: it paginates the result set, deduplicates listings,
writes a CSV artifact to object storage and appends it to the warehouse
table.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./jobscraper.yaml)")

	cmd.AddCommand(newScrapeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
