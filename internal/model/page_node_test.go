package model

import (
	"strings"
	"testing"
)

// TestFetchOutcomeRetryable tests that only transient outcomes are retryable.
func TestFetchOutcomeRetryable(t *testing.T) {
	t.Parallel()

	retryable := map[FetchOutcome]bool{
		OutcomeOK:           false,
		OutcomeClientError:  false,
		OutcomeServerError:  true,
		OutcomeTimeout:      true,
		OutcomeNetworkError: false,
	}

	for outcome, want := range retryable {
		if got := outcome.Retryable(); got != want {
			t.Errorf("%s.Retryable() = %v, want %v", outcome, got, want)
		}
	}
}

// TestParseFetchOutcome tests the round trip through the text form.
func TestParseFetchOutcome(t *testing.T) {
	t.Parallel()

	for _, outcome := range []FetchOutcome{OutcomeOK, OutcomeClientError, OutcomeServerError, OutcomeTimeout, OutcomeNetworkError} {
		if got := ParseFetchOutcome(outcome.String()); got != outcome {
			t.Errorf("ParseFetchOutcome(%q) = %v, want %v", outcome.String(), got, outcome)
		}
	}
}

// TestPageNodeComputeHash tests content hashing behavior.
func TestPageNodeComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("empty body yields empty hash", func(t *testing.T) {
		t.Parallel()

		node := NewPageNode("run-1", "https://example.com/", 0)
		node.ComputeHash(nil)
		if node.Hash != "" {
			t.Errorf("expected empty hash, got %q", node.Hash)
		}
	})

	t.Run("identical bodies yield identical hashes", func(t *testing.T) {
		t.Parallel()

		a := NewPageNode("run-1", "https://example.com/a", 0)
		b := NewPageNode("run-1", "https://example.com/b", 0)
		a.ComputeHash([]byte("<html>same</html>"))
		b.ComputeHash([]byte("<html>same</html>"))

		if a.Hash == "" || a.Hash != b.Hash {
			t.Errorf("expected matching non-empty hashes, got %q and %q", a.Hash, b.Hash)
		}
	})
}

// TestPageNodeTruncation tests the snapshot size caps.
func TestPageNodeTruncation(t *testing.T) {
	t.Parallel()

	t.Run("text cap counts runes not bytes", func(t *testing.T) {
		t.Parallel()

		node := NewPageNode("run-1", "https://example.com/", 0)
		node.Text = strings.Repeat("ä", MaxTextSnapshot+100)
		node.TruncateText()

		if got := len([]rune(node.Text)); got != MaxTextSnapshot {
			t.Errorf("expected %d runes, got %d", MaxTextSnapshot, got)
		}
	})

	t.Run("raw html cap is enforced", func(t *testing.T) {
		t.Parallel()

		node := NewPageNode("run-1", "https://example.com/", 0)
		node.RawHTML = strings.Repeat("x", MaxRawHTML+1)
		node.TruncateRawHTML()

		if len(node.RawHTML) != MaxRawHTML {
			t.Errorf("expected %d bytes, got %d", MaxRawHTML, len(node.RawHTML))
		}
	})

	t.Run("short snapshots are untouched", func(t *testing.T) {
		t.Parallel()

		node := NewPageNode("run-1", "https://example.com/", 0)
		node.Text = "short"
		node.TruncateText()
		if node.Text != "short" {
			t.Errorf("expected unchanged text, got %q", node.Text)
		}
	})
}

// TestCrawlResultFetchedPages tests the fetched-page filter and counter sync.
func TestCrawlResultFetchedPages(t *testing.T) {
	t.Parallel()

	run := NewCrawlRun("competitor-1", "https://example.com", 10)
	result := NewCrawlResult(run)

	ok := NewPageNode(run.ID, "https://example.com/", 0)
	ok.Outcome = OutcomeOK
	failed := NewPageNode(run.ID, "https://example.com/broken", 1)
	failed.Outcome = OutcomeServerError

	result.AddPage(ok)
	result.AddPage(failed)

	if run.PagesCrawled != 2 {
		t.Errorf("expected pages_crawled 2, got %d", run.PagesCrawled)
	}

	fetched := result.FetchedPages()
	if len(fetched) != 1 || fetched[0].URL != "https://example.com/" {
		t.Errorf("unexpected fetched set: %+v", fetched)
	}
}
