package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// createTestResult creates a finished crawl result with sample data.
func createTestResult() *model.CrawlResult {
	run := model.NewCrawlRun("comp-1", "https://shop.example/", 10)
	run.Start()
	run.StartedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	run.Strategy = model.StrategySitemap

	result := model.NewCrawlResult(run)

	home := model.NewPageNode(run.ID, "https://shop.example/", 0)
	home.Outcome = model.OutcomeOK
	home.StatusCode = 200
	home.Type = model.PageTypeHome
	home.Title = "Shop Example"
	result.AddPage(home)

	product := model.NewPageNode(run.ID, "https://shop.example/products/green-tea", 1)
	product.Outcome = model.OutcomeOK
	product.StatusCode = 200
	product.Type = model.PageTypeProduct
	product.Title = "Green Tea"
	result.AddPage(product)

	missing := model.NewPageNode(run.ID, "https://shop.example/gone", 1)
	missing.Outcome = model.OutcomeClientError
	missing.StatusCode = 404
	missing.Type = model.PageTypeOther
	result.AddPage(missing)

	sig := model.NewIASignature(run.ID)
	sig.Navigation = []model.NavItem{
		{Label: "Teas", URL: "https://shop.example/collections/teas", Count: 2},
		{Label: "About", URL: "https://shop.example/about", Count: 1},
	}
	sig.Taxonomy = &model.TaxonomyNode{
		PageCount: 2,
		Children: []*model.TaxonomyNode{
			{
				Segment:   "products",
				PageCount: 1,
				Children: []*model.TaxonomyNode{
					{Segment: "green-tea", PageCount: 1},
				},
			},
		},
	}
	sig.Keywords = []model.KeywordSeed{
		{Term: "tea", Count: 8, Rank: 1},
		{Term: "organic", Count: 3, Rank: 2},
	}
	sig.Sections = []model.SectionPattern{
		{Label: "hero", Count: 2, Sample: "Fresh organic tea delivered monthly"},
	}
	result.Signature = sig

	run.Finish(model.StatusSucceeded, "")

	return result
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "COMPETITOR CRAWL REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://shop.example/") {
			t.Error("expected output to contain seed URL")
		}
		if !strings.Contains(output, "SUCCEEDED") {
			t.Error("expected output to contain run status")
		}
		if !strings.Contains(output, "3 of 10 budget") {
			t.Error("expected output to contain page budget usage")
		}
	})

	t.Run("writes page type breakdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PAGE TYPES") {
			t.Error("expected output to contain page type section")
		}
		if !strings.Contains(output, "home") || !strings.Contains(output, "product") {
			t.Error("expected output to contain classified page types")
		}
	})

	t.Run("writes signature sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, section := range []string{"NAVIGATION", "TAXONOMY", "KEYWORD SEEDS", "SECTION PATTERNS"} {
			if !strings.Contains(output, section) {
				t.Errorf("expected output to contain %s section", section)
			}
		}
		if !strings.Contains(output, "Teas") {
			t.Error("expected navigation label in output")
		}
		if !strings.Contains(output, "/green-tea") {
			t.Error("expected nested taxonomy segment in output")
		}
	})

	t.Run("omits signature sections when absent", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.Signature = nil

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "NAVIGATION") {
			t.Error("expected no navigation section without a signature")
		}
	})

	t.Run("verbose lists every page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PAGES") {
			t.Error("expected verbose output to contain pages section")
		}
		if !strings.Contains(output, "https://shop.example/gone") {
			t.Error("expected verbose output to list failed pages")
		}
		if !strings.Contains(output, "404") {
			t.Error("expected verbose output to include status codes")
		}
	})

	t.Run("non-verbose omits page listing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "https://shop.example/gone") {
			t.Error("expected page listing only in verbose mode")
		}
	})

	t.Run("shows failure reason for failed runs", func(t *testing.T) {
		t.Parallel()

		run := model.NewCrawlRun("comp-1", "https://down.example/", 10)
		run.Start()
		run.Finish(model.StatusFailed, "seed unreachable: connection refused")
		result := model.NewCrawlResult(run)

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "seed unreachable") {
			t.Error("expected failure reason in output")
		}
	})
}

// TestJSONWriter tests the machine-readable report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CrawlResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Run == nil || decoded.Run.SeedURL != "https://shop.example/" {
			t.Error("expected round-tripped run seed URL")
		}
		if len(decoded.Pages) != 3 {
			t.Errorf("expected 3 pages, got %d", len(decoded.Pages))
		}
		if decoded.Signature == nil || len(decoded.Signature.Keywords) != 2 {
			t.Error("expected round-tripped signature keywords")
		}
	})

	t.Run("compact by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// A compact document has a single trailing newline and no
		// indented lines.
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact single-line output")
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output with pretty print")
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent("", "\t"))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n\t") {
			t.Error("expected tab-indented output")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Competitor Crawl Report") {
			t.Error("expected markdown H1 header")
		}
		if !strings.Contains(output, "`https://shop.example/`") {
			t.Error("expected seed URL in summary table")
		}
		if !strings.Contains(output, "sitemap") {
			t.Error("expected strategy in summary table")
		}
	})

	t.Run("writes page type pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected mermaid code block")
		}
		if !strings.Contains(output, "pie") {
			t.Error("expected pie chart declaration")
		}
	})

	t.Run("writes signature sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, heading := range []string{"## Navigation", "## Taxonomy", "## Keyword Seeds", "## Section Patterns"} {
			if !strings.Contains(output, heading) {
				t.Errorf("expected %q heading", heading)
			}
		}
	})

	t.Run("writes page table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Pages") {
			t.Error("expected pages heading")
		}
		if !strings.Contains(output, "404") {
			t.Error("expected failed page status in table")
		}
	})

	t.Run("failed run emits caution alert", func(t *testing.T) {
		t.Parallel()

		run := model.NewCrawlRun("comp-1", "https://down.example/", 10)
		run.Start()
		run.Finish(model.StatusFailed, "no pages crawled")
		result := model.NewCrawlResult(run)

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "no pages crawled") {
			t.Error("expected failure reason in alert")
		}
	})
}

// TestMultiWriter tests writing to multiple formats at once.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var simple, jsonBuf bytes.Buffer
		mw := NewMultiWriter(
			NewSimpleWriter(&simple),
			NewJSONWriter(&jsonBuf),
		)

		if _, err := mw.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if simple.Len() == 0 {
			t.Error("expected simple output")
		}
		if jsonBuf.Len() == 0 {
			t.Error("expected JSON output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(
			&failingWriter{},
			NewSimpleWriter(&after),
		)

		if _, err := mw.Write(createTestResult()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped after an error")
		}
	})
}

// failingWriter always returns an error.
type failingWriter struct{}

func (w *failingWriter) Write(_ *model.CrawlResult) (int, error) {
	return 0, errors.New("write failed")
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "tea", 10, "tea"},
		{"exactly at limit", "tea", 3, "tea"},
		{"truncated with ellipsis", "organic green tea", 10, "organic..."},
		{"tiny limit", "tea time", 2, "te"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
