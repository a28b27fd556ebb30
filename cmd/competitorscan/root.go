// Package main provides the entry point for the competitorscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for competitorscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competitorscan",
		Short: "Competitor storefront discovery and IA extraction",
		Long: `competitorscan crawls competitor e-commerce storefronts within a small
page budget and extracts their information architecture: navigation
structure, category taxonomy, keyword seeds, and recurring section
patterns.

Crawls respect robots.txt, apply a per-host politeness delay, and never
exceed the page budget (10 pages, or 5 for single-SKU competitors).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON records")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInsightsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
