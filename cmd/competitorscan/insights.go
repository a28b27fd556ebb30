package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2020visiontrader/competitorscan/internal/config"
	"github.com/2020visiontrader/competitorscan/internal/database"
	"github.com/2020visiontrader/competitorscan/internal/model"
	"github.com/2020visiontrader/competitorscan/internal/report"
)

// NewInsightsCmd creates the insights command.
// This command displays stored crawl results from the database.
func NewInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights [seed-url]",
		Short: "Show stored crawl results and IA signatures",
		Long: `Insights displays crawl results persisted by previous runs.

By default it shows the latest run for the given seed URL with its full
IA signature: navigation, taxonomy, keyword seeds, and section patterns.

Examples:
  # Show the latest crawl result for a competitor
  competitorscan insights https://rivalbrand.com

  # List run history for a competitor
  competitorscan insights --list https://rivalbrand.com

  # List all competitors in the database
  competitorscan insights --list-competitors

  # Show one specific run from the history listing
  competitorscan insights --run 2f1c8a3e-0b4d-4f6a-9c21-7d5e8b9a0c12

  # Output the latest result as JSON
  competitorscan insights --json https://rivalbrand.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInsightsCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified seed URL")
	cmd.Flags().BoolP("list-competitors", "L", false,
		"List all competitors in the database")
	cmd.Flags().StringP("run", "r", "",
		"Show a specific run by ID instead of the latest (IDs appear in --list)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output result in Markdown format")

	return cmd
}

// runInsightsCmd executes the insights command.
func runInsightsCmd(cmd *cobra.Command, args []string) error {
	listCompetitors, err := cmd.Flags().GetBool("list-competitors")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database. A run ID or the
	// competitor listing needs no seed URL; everything else does.
	var seed string
	if !listCompetitors && runID == "" {
		if len(args) == 0 {
			return errors.New("seed URL is required (use --list-competitors to see stored competitors)")
		}
		seed, err = normalizeSeed(args[0])
		if err != nil {
			return err
		}
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listCompetitors {
		return listStoredCompetitors(ctx, db, cmd)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, cmd, seed)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	if runID != "" {
		return showRunByID(ctx, db, cmd, runID, jsonOutput, markdownOutput)
	}
	return showLatestRun(ctx, db, cmd, seed, jsonOutput, markdownOutput)
}

// listStoredCompetitors lists all competitors with crawl records.
func listStoredCompetitors(ctx context.Context, db *database.CrawlDB, cmd *cobra.Command) error {
	competitors, err := db.ListCompetitors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list competitors: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(competitors) == 0 {
		fmt.Fprintln(out, "No competitors found in the database.")
		fmt.Fprintln(out, "\nUse 'competitorscan crawl <seed-url>' to crawl a competitor.")
		return nil
	}

	fmt.Fprintf(out, "Competitors (%d):\n\n", len(competitors))
	for _, c := range competitors {
		name := c.Name
		if name == "" {
			name = "-"
		}
		markers := ""
		if c.IsPrimary {
			markers += " [primary]"
		}
		if c.SingleSKU {
			markers += " [single-sku]"
		}
		lastCrawled := "never"
		if !c.LastCrawledAt.IsZero() {
			lastCrawled = c.LastCrawledAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "  %-40s %-20s last crawled: %s%s\n", c.SeedURL, name, lastCrawled, markers)
	}
	fmt.Fprintln(out, "\nUse 'competitorscan insights <seed-url>' to see the latest IA signature.")

	return nil
}

// listRunHistory lists all crawl runs for a seed URL.
func listRunHistory(ctx context.Context, db *database.CrawlDB, cmd *cobra.Command, seed string) error {
	runs, err := db.GetRunHistory(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found for %s\n", seed)
		fmt.Fprintln(out, "\nUse 'competitorscan crawl' to crawl this competitor.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", seed, len(runs))
	fmt.Fprintf(out, "  %-20s  %-10s  %-8s  %-6s  %s\n", "Started", "Status", "Strategy", "Pages", "Run ID")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, run := range runs {
		started := "-"
		if !run.StartedAt.IsZero() {
			started = run.StartedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "  %-20s  %-10s  %-8s  %-6d  %s\n",
			started, run.Status, run.Strategy, run.PagesCrawled, run.ID)
	}

	fmt.Fprintln(out, "\nUse 'competitorscan insights <seed-url>' to see the latest IA signature.")

	return nil
}

// showLatestRun loads and displays the latest stored run for a seed URL.
func showLatestRun(ctx context.Context, db *database.CrawlDB, cmd *cobra.Command, seed string, jsonOutput, markdownOutput bool) error {
	run, err := db.GetLatestRun(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to load latest run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no crawl runs found for %s (use 'competitorscan crawl' first)", seed)
	}
	return showStoredRun(ctx, db, cmd, run, jsonOutput, markdownOutput)
}

// showRunByID loads and displays one stored run by its ID.
func showRunByID(ctx context.Context, db *database.CrawlDB, cmd *cobra.Command, runID string, jsonOutput, markdownOutput bool) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with ID %s (run IDs appear in 'insights --list')", runID)
	}
	return showStoredRun(ctx, db, cmd, run, jsonOutput, markdownOutput)
}

// showStoredRun rehydrates a run's pages and signature and writes the
// report in the selected format.
func showStoredRun(ctx context.Context, db *database.CrawlDB, cmd *cobra.Command, run *model.CrawlRun, jsonOutput, markdownOutput bool) error {
	result := model.NewCrawlResult(run)

	pages, err := db.GetPageNodes(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load page nodes: %w", err)
	}
	result.Pages = pages

	result.Signature, err = db.GetSignature(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load signature: %w", err)
	}

	out := cmd.OutOrStdout()
	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	_, err = writer.Write(result)
	return err
}
