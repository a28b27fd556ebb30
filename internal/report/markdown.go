package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeBreakdown(md, result)
	w.writeSignature(md, result)
	w.writePages(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the run summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	run := result.Run

	md.H1("Competitor Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Seed URL", "`" + run.SeedURL + "`"},
		{"Status", w.statusText(run)},
		{"Strategy", string(run.Strategy)},
		{"Pages Crawled", strconv.Itoa(run.PagesCrawled) + " of " + strconv.Itoa(run.MaxPages) + " budget"},
		{"Pages Skipped", strconv.Itoa(run.PagesSkipped)},
	}
	if !run.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, run)
}

// statusText returns the status cell with an indicator emoji.
func (w *MarkdownWriter) statusText(run *model.CrawlRun) string {
	switch run.Status {
	case model.StatusSucceeded:
		return "✅ " + run.Status.String()
	case model.StatusPartial:
		return "⚠️ " + run.Status.String()
	case model.StatusFailed:
		return "❌ " + run.Status.String()
	default:
		return run.Status.String()
	}
}

// writeAlert writes an alert matching the run's terminal state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.CrawlRun) {
	switch run.Status {
	case model.StatusFailed:
		md.Cautionf("Crawl failed: %s", run.FailureReason)
	case model.StatusPartial:
		md.Warningf(
			"Crawl stopped before exhausting the site; the signature covers %d page(s).",
			run.PagesCrawled,
		)
	case model.StatusSucceeded:
		md.Tip("Crawl completed within budget.")
	}
	md.PlainText("")
}

// writeBreakdown writes the page-type distribution with a pie chart.
func (w *MarkdownWriter) writeBreakdown(md *markdown.Markdown, result *model.CrawlResult) {
	counts := pageTypeCounts(result)
	if len(counts) == 0 {
		return
	}

	md.H2("Page Types")
	md.PlainText("")

	rows := make([][]string, 0, len(pageTypeOrder))
	for _, t := range pageTypeOrder {
		if counts[t] == 0 {
			continue
		}
		rows = append(rows, []string{string(t), strconv.Itoa(counts[t])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, counts)
}

// writePieChart writes a mermaid pie chart of the page-type distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.PageType]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Type Distribution"),
		piechart.WithShowData(true),
	)

	for _, t := range pageTypeOrder {
		if counts[t] == 0 {
			continue
		}
		chart.LabelAndIntValue(string(t), uint64(counts[t]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSignature writes the IA signature sections.
func (w *MarkdownWriter) writeSignature(md *markdown.Markdown, result *model.CrawlResult) {
	sig := result.Signature
	if sig == nil {
		return
	}

	if len(sig.Navigation) > 0 {
		md.H2("Navigation")
		md.PlainText("")

		rows := make([][]string, len(sig.Navigation))
		for i, item := range sig.Navigation {
			rows[i] = []string{
				truncateString(item.Label, 40),
				"`" + truncateString(item.URL, 60) + "`",
				strconv.Itoa(item.Count),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Label", "URL", "Pages"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if sig.Taxonomy != nil && len(sig.Taxonomy.Children) > 0 {
		md.H2("Taxonomy")
		md.PlainText("")
		md.BulletList(taxonomyLines(sig.Taxonomy, 0)...)
		md.PlainText("")
	}

	if len(sig.Keywords) > 0 {
		md.H2("Keyword Seeds")
		md.PlainText("")

		rows := make([][]string, len(sig.Keywords))
		for i, kw := range sig.Keywords {
			rows[i] = []string{strconv.Itoa(kw.Rank), kw.Term, strconv.Itoa(kw.Count)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Rank", "Term", "Count"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(sig.Sections) > 0 {
		md.H2("Section Patterns")
		md.PlainText("")

		rows := make([][]string, len(sig.Sections))
		for i, s := range sig.Sections {
			rows[i] = []string{s.Label, strconv.Itoa(s.Count), truncateString(s.Sample, 60)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Pattern", "Count", "Sample"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// taxonomyLines flattens the category tree into indented bullet lines.
func taxonomyLines(node *model.TaxonomyNode, depth int) []string {
	var lines []string
	for _, child := range node.Children {
		indent := strings.Repeat("  ", depth)
		lines = append(lines, indent+"/"+child.Segment+" ("+strconv.Itoa(child.PageCount)+" pages)")
		lines = append(lines, taxonomyLines(child, depth+1)...)
	}
	return lines
}

// writePages writes the crawled page table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Pages) == 0 {
		return
	}

	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(result.Pages))
	for i, page := range result.Pages {
		status := page.Outcome.String()
		if page.StatusCode != 0 {
			status += " (" + strconv.Itoa(page.StatusCode) + ")"
		}
		title := page.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			"`" + truncateString(page.URL, 60) + "`",
			string(page.Type),
			strconv.Itoa(page.Depth),
			status,
			truncateString(title, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Type", "Depth", "Status", "Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
