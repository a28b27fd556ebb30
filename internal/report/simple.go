package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-page audit listing.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the per-page audit listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeBreakdown(&sb, result)
	w.writeSignature(&sb, result)
	if w.verbose {
		w.writePages(&sb, result)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run summary.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	run := result.Run

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      COMPETITOR CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:       %s\n", run.SeedURL))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", run.Status))
	if run.FailureReason != "" {
		sb.WriteString(fmt.Sprintf("Failure:        %s\n", run.FailureReason))
	}
	if run.Strategy != "" {
		sb.WriteString(fmt.Sprintf("Strategy:       %s\n", run.Strategy))
	}
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d of %d budget\n", run.PagesCrawled, run.MaxPages))
	if run.PagesSkipped > 0 {
		sb.WriteString(fmt.Sprintf("Pages Skipped:  %d (robots disallowed)\n", run.PagesSkipped))
	}
	if !run.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
		sb.WriteString(fmt.Sprintf("Duration:       %s\n", run.Duration().Round(10*time.Millisecond)))
	}
	sb.WriteString("\n")
}

// writeBreakdown writes the page-type distribution.
func (w *SimpleWriter) writeBreakdown(sb *strings.Builder, result *model.CrawlResult) {
	counts := pageTypeCounts(result)
	if len(counts) == 0 {
		return
	}

	sb.WriteString("PAGE TYPES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, t := range pageTypeOrder {
		if counts[t] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", t, counts[t]))
	}
	sb.WriteString("\n")
}

// writeSignature writes the IA signature sections.
func (w *SimpleWriter) writeSignature(sb *strings.Builder, result *model.CrawlResult) {
	sig := result.Signature
	if sig == nil {
		return
	}

	if len(sig.Navigation) > 0 {
		sb.WriteString("NAVIGATION\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, item := range sig.Navigation {
			sb.WriteString(fmt.Sprintf("  %-24s %s (%d pages)\n", item.Label, item.URL, item.Count))
		}
		sb.WriteString("\n")
	}

	if sig.Taxonomy != nil && len(sig.Taxonomy.Children) > 0 {
		sb.WriteString("TAXONOMY\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		writeTaxonomy(sb, sig.Taxonomy, 1)
		sb.WriteString("\n")
	}

	if len(sig.Keywords) > 0 {
		sb.WriteString("KEYWORD SEEDS\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, kw := range sig.Keywords {
			sb.WriteString(fmt.Sprintf("  %2d. %-20s x%d\n", kw.Rank, kw.Term, kw.Count))
		}
		sb.WriteString("\n")
	}

	if len(sig.Sections) > 0 {
		sb.WriteString("SECTION PATTERNS\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, s := range sig.Sections {
			sb.WriteString(fmt.Sprintf("  %-16s x%d\n", s.Label, s.Count))
		}
		sb.WriteString("\n")
	}
}

// writeTaxonomy renders the category tree with indentation.
func writeTaxonomy(sb *strings.Builder, node *model.TaxonomyNode, depth int) {
	for _, child := range node.Children {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(fmt.Sprintf("/%s (%d pages)\n", child.Segment, child.PageCount))
		writeTaxonomy(sb, child, depth+1)
	}
}

// writePages writes the per-page audit listing.
func (w *SimpleWriter) writePages(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.Pages) == 0 {
		return
	}

	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, page := range result.Pages {
		status := page.Outcome.String()
		if page.StatusCode != 0 {
			status = fmt.Sprintf("%s (%d)", status, page.StatusCode)
		}
		sb.WriteString(fmt.Sprintf("  [%-8s] d%d %-14s %s\n", page.Type, page.Depth, status, page.URL))
	}
	sb.WriteString("\n")
}
