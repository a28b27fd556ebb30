package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The page budgets mirror the product policy for competitor probes: this
// is a small, capped structural sample of a site, not an index of it.
const (
	// DefaultMaxPages is the page budget for regular multi-product
	// competitors. Ten pages is enough to observe the home page, the main
	// category listings, and a few product pages.
	DefaultMaxPages = 10

	// DefaultSingleSKUMaxPages is the reduced budget for single-SKU
	// competitors. Single-product sites are structurally shallow; five
	// pages covers everything worth sampling.
	DefaultSingleSKUMaxPages = 5

	// DefaultFetchTimeout is the per-request connect/read timeout.
	// Competitor storefronts are clearnet sites; ten seconds is generous.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultRunTimeout is the wall-clock budget for one whole crawl run.
	// The fetch loop checks it between pages and finalizes as PARTIAL
	// when it elapses.
	DefaultRunTimeout = 2 * time.Minute

	// DefaultCrawlDepth limits breadth-first link discovery when no
	// sitemap is available. Depth 3 from the seed reaches category and
	// product pages on typical storefront layouts and is a termination
	// guarantee independent of the page budget.
	DefaultCrawlDepth = 3

	// DefaultCrawlDelay is the minimum gap between consecutive requests
	// to the same host. This is a politeness setting: fetches within a
	// run are sequential precisely so this delay means something.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultBatchSize is the number of competitors crawled concurrently.
	// Runs never share a host, so concurrency here does not undercut the
	// per-host politeness delay.
	DefaultBatchSize = 4

	// DefaultOverfetchFactor pads the sitemap candidate list relative to
	// the page budget, so robots exclusions and fetch failures still
	// leave enough candidates to fill the budget.
	DefaultOverfetchFactor = 3

	// DefaultUserAgent identifies competitorscan in HTTP requests.
	// A descriptive User-Agent lets site operators identify the traffic.
	DefaultUserAgent = "competitorscan/1.0 (+https://github.com/2020visiontrader/competitorscan)"

	// DefaultMaxBodySize limits the response body size to read.
	// 2MB is ample for storefront HTML while bounding memory per fetch.
	DefaultMaxBodySize = 2 * 1024 * 1024

	// DefaultFreshnessWindow is how recently a competitor must have been
	// crawled for a new request to be skipped as redundant. The --force
	// flag bypasses the check.
	DefaultFreshnessWindow = time.Hour

	// AppName is the application name used for XDG directory paths.
	AppName = "competitorscan"
)

// Config holds all configuration options for competitorscan.
// This struct is populated from CLI flags and the .competitorscan file
// and passed through the application via dependency injection rather
// than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Targets is the list of competitor seed URLs to crawl.
	Targets []string

	// MaxPages is the requested page budget per run. Zero means use the
	// policy budget for the competitor (see ResolveMaxPages). A non-zero
	// request is clamped to the policy budget, never raised above it.
	MaxPages int

	// FetchTimeout is the per-request connect/read timeout.
	FetchTimeout time.Duration

	// RunTimeout is the wall-clock budget for one whole crawl run.
	RunTimeout time.Duration

	// CrawlDepth limits breadth-first link discovery from the seed page.
	// It only applies to the nav fallback strategy.
	CrawlDepth int

	// CrawlDelay is the minimum gap between consecutive requests to the
	// same host. A parsable robots crawl-delay raises this, never lowers it.
	CrawlDelay time.Duration

	// BatchSize is the number of competitors crawled concurrently.
	BatchSize int

	// OverfetchFactor pads the sitemap candidate list to MaxPages times
	// this factor, allowing for robots exclusions and fetch failures.
	OverfetchFactor int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Force bypasses the recent-crawl freshness check.
	Force bool

	// SingleSKU marks all CLI-supplied targets as single-SKU competitors
	// unless the config file says otherwise per competitor.
	SingleSKU bool

	// FreshnessWindow is how recently a competitor must have been crawled
	// for the run to be skipped without --force.
	FreshnessWindow time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .competitorscan in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// Competitors holds per-competitor configuration loaded from the
	// config file. Populated by LoadConfigFile.
	Competitors *File

	// JSONReport enables JSON report output instead of human-readable text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist crawl results.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (budgets, timeouts).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		FetchTimeout:    DefaultFetchTimeout,
		RunTimeout:      DefaultRunTimeout,
		CrawlDepth:      DefaultCrawlDepth,
		CrawlDelay:      DefaultCrawlDelay,
		BatchSize:       DefaultBatchSize,
		OverfetchFactor: DefaultOverfetchFactor,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		FreshnessWindow: DefaultFreshnessWindow,
	}
}

// PageBudget returns the policy page budget for a competitor.
// Single-SKU brands get the reduced budget.
func PageBudget(singleSKU bool) int {
	if singleSKU {
		return DefaultSingleSKUMaxPages
	}
	return DefaultMaxPages
}

// ResolveMaxPages resolves the effective page budget for a run.
// A zero request means "use the policy budget"; a non-zero request is
// clamped to the policy budget so callers can lower but never raise it.
func ResolveMaxPages(requested int, singleSKU bool) int {
	budget := PageBudget(singleSKU)
	if requested <= 0 || requested > budget {
		return budget
	}
	return requested
}

// XDGDataDir returns the XDG data directory for competitorscan.
// On Linux: ~/.local/share/competitorscan
// On macOS: ~/Library/Application Support/competitorscan
// On Windows: %LOCALAPPDATA%\competitorscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for competitorscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.FetchTimeout <= 0 || c.RunTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}

	if c.OverfetchFactor < 1 {
		return ErrInvalidOverfetchFactor
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
