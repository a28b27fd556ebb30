package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/2020visiontrader/competitorscan/internal/config"
	"github.com/2020visiontrader/competitorscan/internal/crawler"
	"github.com/2020visiontrader/competitorscan/internal/database"
	"github.com/2020visiontrader/competitorscan/internal/log"
	"github.com/2020visiontrader/competitorscan/internal/model"
	"github.com/2020visiontrader/competitorscan/internal/pipeline"
	"github.com/2020visiontrader/competitorscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl competitor storefronts and extract their IA signature",
		Long: `Crawl fetches a small, budget-capped sample of each competitor's
storefront and extracts its information architecture.

Each run:
- Probes the seed URL and fails fast if it is unreachable
- Prefers the sitemap for URL discovery, falling back to breadth-first
  link crawling from the home page
- Respects robots.txt and applies a per-host politeness delay
- Never fetches more than the page budget (10 pages, 5 for single-SKU)
- Extracts navigation, taxonomy, keyword seeds, and section patterns

Results are persisted to a local SQLite database and reported to stdout.

Examples:
  # Crawl a single competitor
  competitorscan crawl https://rivalbrand.com

  # Crawl several competitors concurrently
  competitorscan crawl https://a.example https://b.example https://c.example

  # Single-SKU competitor with the reduced budget
  competitorscan crawl --single-sku https://one-product-shop.com

  # Re-crawl even if a recent run exists
  competitorscan crawl --force https://rivalbrand.com

  # JSON report written to a file
  competitorscan crawl --json -o report.json https://rivalbrand.com

Configuration file (.competitorscan) example:
  competitors:
    https://rivalbrand.com:
      name: "Rival Brand"
      isPrimary: true
    https://one-product-shop.com:
      singleSku: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", 0,
		"Requested page budget per run (0 = policy budget; clamped, never raised)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRunTimeout,
		"Wall-clock budget for one whole crawl run")
	cmd.Flags().Duration("fetch-timeout", config.DefaultFetchTimeout,
		"Connect/read timeout for each request")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link-discovery depth for the nav fallback strategy")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum gap between consecutive requests to the same host")
	cmd.Flags().Bool("single-sku", false,
		"Treat all targets as single-SKU competitors (5-page budget)")
	cmd.Flags().BoolP("force", "f", false,
		"Crawl even if a recent run exists within the freshness window")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .competitorscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newRunLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// newRunLogger builds the logger for a command run. Logs go to stderr so
// reports on stdout stay parseable; --log-json switches to JSON records
// for log aggregation.
func newRunLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		jsonLogs, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			jsonLogs = false
		}
	}
	if jsonLogs {
		return log.NewJSONLogger(os.Stderr, verbose)
	}
	return log.NewLogger(os.Stderr, verbose)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.RunTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("fetch-timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.SingleSKU, err = cmd.Flags().GetBool("single-sku")
	if err != nil {
		return nil, err
	}

	cfg.Force, err = cmd.Flags().GetBool("force")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-competitor configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Competitors, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Competitors = &config.File{
			Competitors: make(map[string]config.CompetitorConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments are competitor seed URLs.
	cfg.Targets = args

	return cfg, nil
}

// runCrawl executes the crawl across all targets.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Build competitor profiles from targets and config file entries,
	// skipping freshly-crawled competitors unless --force is set.
	competitors := make([]*model.CompetitorProfile, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		seed, err := normalizeSeed(target)
		if err != nil {
			return err
		}

		fresh, err := hasRecentCrawl(ctx, db, cfg, seed)
		if err != nil {
			return err
		}
		if fresh && !cfg.Force {
			fmt.Fprintf(os.Stdout, "Skipping %s: crawled within the last %s (use --force to re-crawl)\n",
				seed, cfg.FreshnessWindow)
			continue
		}

		competitors = append(competitors, buildCompetitor(ctx, db, cfg, seed))
	}

	if len(competitors) == 0 {
		fmt.Println("\nNothing to crawl.")
		return nil
	}

	orchestrator := pipeline.NewOrchestrator(cfg, pipeline.WithOrchestratorLogger(logger))

	if len(competitors) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, orchestrator, competitors, db, logger)
	}
	return runSequentialCrawl(ctx, cfg, orchestrator, competitors, db, logger)
}

// normalizeSeed validates and canonicalizes a seed URL from the command line.
// Seeds must be absolute http or https URLs.
func normalizeSeed(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid seed URL: %s (expected an absolute http(s) URL)", raw)
	}
	return crawler.CanonicalURL(u), nil
}

// hasRecentCrawl reports whether the competitor was already crawled within
// the freshness window. Without a database every crawl is fresh work.
func hasRecentCrawl(ctx context.Context, db *database.CrawlDB, cfg *config.Config, seed string) (bool, error) {
	if db == nil || cfg.FreshnessWindow <= 0 {
		return false, nil
	}
	recent, err := db.HasRecentCrawl(ctx, seed, cfg.FreshnessWindow)
	if err != nil {
		return false, fmt.Errorf("failed to check crawl history for %s: %w", seed, err)
	}
	return recent, nil
}

// buildCompetitor assembles the competitor profile for a seed URL from
// the stored record (if any) and the config file entry.
func buildCompetitor(ctx context.Context, db *database.CrawlDB, cfg *config.Config, seed string) *model.CompetitorProfile {
	var competitor *model.CompetitorProfile
	if db != nil {
		stored, err := db.GetCompetitor(ctx, seed)
		if err == nil && stored != nil {
			competitor = stored
		}
	}
	if competitor == nil {
		competitor = model.NewCompetitorProfile(seed)
	}

	entry := cfg.Competitors.GetCompetitorConfig(seed)
	if entry.Name != "" {
		competitor.Name = entry.Name
	}
	if entry.SingleSKU || cfg.SingleSKU {
		competitor.SingleSKU = true
	}
	if entry.IsPrimary {
		competitor.IsPrimary = true
	}
	if entry.EmulateNotes != "" {
		competitor.EmulateNotes = entry.EmulateNotes
	}
	if entry.AvoidNotes != "" {
		competitor.AvoidNotes = entry.AvoidNotes
	}

	return competitor
}

// resolveRequestedPages returns the requested page budget for a competitor,
// letting a config file entry lower the CLI-wide request.
func resolveRequestedPages(cfg *config.Config, competitor *model.CompetitorProfile) int {
	entry := cfg.Competitors.GetCompetitorConfig(competitor.SeedURL)
	if entry.MaxPages > 0 {
		return entry.MaxPages
	}
	return cfg.MaxPages
}

// runSequentialCrawl crawls competitors one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, orchestrator *pipeline.Orchestrator, competitors []*model.CompetitorProfile, db *database.CrawlDB, logger *slog.Logger) error {
	for _, competitor := range competitors {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Crawling %s...\n", competitor.SeedURL)
		startTime := time.Now()

		result, err := orchestrator.Run(ctx, pipeline.CrawlRequest{
			Competitor: competitor,
			MaxPages:   resolveRequestedPages(cfg, competitor),
		})
		if err != nil {
			logger.Error("crawl failed", "seed", competitor.SeedURL, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl failed for %s: %v\n", competitor.SeedURL, err)
		} else {
			elapsed := time.Since(startTime)
			fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))
		}

		if result == nil {
			continue
		}

		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "seed", competitor.SeedURL, "error", err)
		}

		if err := saveCrawlResult(ctx, db, competitor, result, logger); err != nil {
			logger.Error("failed to save crawl result", "seed", competitor.SeedURL, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple competitors concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, orchestrator *pipeline.Orchestrator, competitors []*model.CompetitorProfile, db *database.CrawlDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d competitors (concurrency: %d)...\n\n",
		len(competitors), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(orchestrator,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	results, err := bp.ProcessBatch(ctx, competitors)

	for i, result := range results {
		if result == nil {
			continue
		}

		fmt.Printf("[%d/%d] Crawl finished: %s (%s)\n",
			i+1, len(competitors), competitors[i].SeedURL, result.Run.Status)

		if reportErr := outputReport(cfg, result); reportErr != nil {
			logger.Error("report failed", "seed", competitors[i].SeedURL, "error", reportErr)
		}

		if saveErr := saveCrawlResult(ctx, db, competitors[i], result, logger); saveErr != nil {
			logger.Error("failed to save crawl result", "seed", competitors[i].SeedURL, "error", saveErr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, result *model.CrawlResult) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(result)
	return err
}

// saveCrawlResult persists the competitor and crawl result to the database.
// If db is nil, this function is a no-op.
func saveCrawlResult(ctx context.Context, db *database.CrawlDB, competitor *model.CompetitorProfile, result *model.CrawlResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	stored, err := db.UpsertCompetitor(ctx, competitor)
	if err != nil {
		return fmt.Errorf("failed to save competitor: %w", err)
	}
	result.Run.CompetitorID = stored.ID

	if err := db.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save crawl result: %w", err)
	}

	logger.Info("crawl result saved to database",
		"seed", competitor.SeedURL,
		"run_id", result.Run.ID,
		"status", result.Run.Status,
	)
	return nil
}
