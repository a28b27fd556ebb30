package model

import (
	"testing"
)

// TestStatusString tests the text form of run statuses.
func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "PENDING"},
		{StatusRunning, "RUNNING"},
		{StatusSucceeded, "SUCCEEDED"},
		{StatusPartial, "PARTIAL"},
		{StatusFailed, "FAILED"},
		{Status(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

// TestParseStatus tests the round trip through the text form.
func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusPending, StatusRunning, StatusSucceeded, StatusPartial, StatusFailed} {
		if got := ParseStatus(status.String()); got != status {
			t.Errorf("ParseStatus(%q) = %v, want %v", status.String(), got, status)
		}
	}

	if got := ParseStatus("garbage"); got != StatusPending {
		t.Errorf("ParseStatus of unknown string = %v, want StatusPending", got)
	}
}

// TestStatusTerminal tests that exactly the three final states are terminal.
func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	terminal := map[Status]bool{
		StatusPending:   false,
		StatusRunning:   false,
		StatusSucceeded: true,
		StatusPartial:   true,
		StatusFailed:    true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

// TestCrawlRunLifecycle tests the PENDING → RUNNING → terminal transitions.
func TestCrawlRunLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("new run is pending with budget set", func(t *testing.T) {
		t.Parallel()

		run := NewCrawlRun("competitor-1", "https://example.com", 10)
		if run.ID == "" {
			t.Error("expected generated run ID")
		}
		if run.Status != StatusPending {
			t.Errorf("expected PENDING, got %s", run.Status)
		}
		if run.MaxPages != 10 {
			t.Errorf("expected max pages 10, got %d", run.MaxPages)
		}
	})

	t.Run("start records timestamp", func(t *testing.T) {
		t.Parallel()

		run := NewCrawlRun("competitor-1", "https://example.com", 10)
		run.Start()

		if run.Status != StatusRunning {
			t.Errorf("expected RUNNING, got %s", run.Status)
		}
		if run.StartedAt.IsZero() {
			t.Error("expected started timestamp to be set")
		}
	})

	t.Run("finish records reason only for failures", func(t *testing.T) {
		t.Parallel()

		run := NewCrawlRun("competitor-1", "https://example.com", 10)
		run.Start()
		run.Finish(StatusPartial, "ignored")

		if run.Status != StatusPartial {
			t.Errorf("expected PARTIAL, got %s", run.Status)
		}
		if run.FailureReason != "" {
			t.Errorf("expected empty failure reason, got %q", run.FailureReason)
		}
		if run.FinishedAt.IsZero() {
			t.Error("expected finished timestamp to be set")
		}

		failed := NewCrawlRun("competitor-1", "https://example.com", 10)
		failed.Start()
		failed.Finish(StatusFailed, "seed unreachable")
		if failed.FailureReason != "seed unreachable" {
			t.Errorf("expected failure reason, got %q", failed.FailureReason)
		}
	})
}
