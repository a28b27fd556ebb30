package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

func TestProcessBatchReturnsResultsInOrder(t *testing.T) {
	t.Parallel()

	f := newFixtureFetcher()
	hosts := []string{"https://one.example/", "https://two.example/", "https://three.example/"}
	for _, h := range hosts {
		f.addHTML(h, pageHTML("Home"))
	}

	competitors := make([]*model.CompetitorProfile, len(hosts))
	for i, h := range hosts {
		competitors[i] = model.NewCompetitorProfile(h)
		competitors[i].Name = fmt.Sprintf("competitor-%d", i)
	}

	bp := NewBatchProcessor(fixtureOrchestrator(f),
		WithConcurrency(2),
		WithBatchLogger(testLogger()),
	)

	results, err := bp.ProcessBatch(context.Background(), competitors)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(results) != len(competitors) {
		t.Fatalf("got %d results, want %d", len(results), len(competitors))
	}
	for i, result := range results {
		if result == nil {
			t.Fatalf("results[%d] = nil", i)
		}
		if result.Run.CompetitorID != competitors[i].ID {
			t.Errorf("results[%d] belongs to %q, want input order preserved", i, result.Run.CompetitorID)
		}
		if result.Run.SeedURL != hosts[i] {
			t.Errorf("results[%d].SeedURL = %q, want %q", i, result.Run.SeedURL, hosts[i])
		}
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	t.Parallel()

	f := newFixtureFetcher()
	f.addHTML("https://alive.example/", pageHTML("Home"))
	// dead.example has no fixture entries at all.

	competitors := []*model.CompetitorProfile{
		model.NewCompetitorProfile("https://dead.example/"),
		model.NewCompetitorProfile("https://alive.example/"),
	}

	bp := NewBatchProcessor(fixtureOrchestrator(f), WithBatchLogger(testLogger()))

	results, err := bp.ProcessBatch(context.Background(), competitors)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if results[0].Run.Status != model.StatusFailed {
		t.Errorf("dead competitor status = %v, want FAILED", results[0].Run.Status)
	}
	if results[1].Run.Status != model.StatusSucceeded {
		t.Errorf("alive competitor status = %v, want the batch to continue past failures", results[1].Run.Status)
	}
}
