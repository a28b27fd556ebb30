package model

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a crawl run.
// A run moves PENDING → RUNNING → exactly one terminal state.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides the canonical
// text form used in reports and database storage.
type Status int

const (
	// StatusPending indicates the run has been created but not started.
	StatusPending Status = iota

	// StatusRunning indicates the run is currently fetching pages.
	StatusRunning

	// StatusSucceeded indicates the run exhausted its candidate URL set
	// within the page budget and wall-clock timeout.
	StatusSucceeded

	// StatusPartial indicates the run was stopped early by the page cap,
	// the wall-clock timeout, or caller cancellation, with at least one
	// page fetched. Partial runs still produce an IA signature.
	StatusPartial

	// StatusFailed indicates the run recorded no page nodes at all,
	// which in practice means the seed probe failed. Candidate fetches
	// that return HTTP errors still record their nodes, so such runs
	// finish SUCCEEDED or PARTIAL with the failures visible per page.
	StatusFailed
)

// String returns the canonical text form of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRunning:
		return "RUNNING"
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusPartial:
		return "PARTIAL"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus converts the canonical text form back into a Status.
// Unknown strings map to StatusPending, the zero value.
func ParseStatus(s string) Status {
	switch s {
	case "RUNNING":
		return StatusRunning
	case "SUCCEEDED":
		return StatusSucceeded
	case "PARTIAL":
		return StatusPartial
	case "FAILED":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Terminal reports whether the status is one of the three final states.
// Once a run reaches a terminal status it is never mutated again.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusPartial || s == StatusFailed
}

// Strategy identifies how candidate URLs were enumerated for a run.
type Strategy string

const (
	// StrategySitemap means the candidate URLs came from the domain's sitemap.
	StrategySitemap Strategy = "sitemap"

	// StrategyNav means the candidates were discovered by breadth-first
	// link crawling from the seed page (the sitemap fallback).
	StrategyNav Strategy = "nav"
)

// CrawlRun tracks one bounded crawl attempt against a competitor domain.
// It is created when a crawl is triggered and mutated only by the
// orchestrator until it reaches a terminal status.
type CrawlRun struct {
	// ID is the unique identifier of the run.
	ID string `json:"id"`

	// CompetitorID references the CompetitorProfile this run belongs to.
	CompetitorID string `json:"competitor_id"`

	// SeedURL is the root URL the run started from.
	SeedURL string `json:"seed_url"`

	// Strategy records how candidate URLs were enumerated.
	// Empty until the discovery phase has chosen one.
	Strategy Strategy `json:"strategy,omitempty"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// MaxPages is the resolved page budget for this run.
	// The invariant PagesCrawled <= MaxPages always holds.
	MaxPages int `json:"max_pages"`

	// PagesCrawled is the number of pages fetched (successfully or not).
	// Robots-disallowed URLs do not count here.
	PagesCrawled int `json:"pages_crawled"`

	// PagesSkipped is the number of candidate URLs skipped because the
	// domain's robots rules disallowed them. Skips are not errors.
	PagesSkipped int `json:"pages_skipped"`

	// StartedAt is when the run left PENDING.
	StartedAt time.Time `json:"started_at,omitempty"`

	// FinishedAt is when the run reached a terminal status.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// FailureReason describes why a run FAILED. Empty otherwise.
	FailureReason string `json:"failure_reason,omitempty"`
}

// NewCrawlRun creates a PENDING run for the given competitor and budget.
func NewCrawlRun(competitorID, seedURL string, maxPages int) *CrawlRun {
	return &CrawlRun{
		ID:           uuid.NewString(),
		CompetitorID: competitorID,
		SeedURL:      seedURL,
		Status:       StatusPending,
		MaxPages:     maxPages,
	}
}

// Start transitions the run to RUNNING and records the start time.
func (r *CrawlRun) Start() {
	r.Status = StatusRunning
	r.StartedAt = time.Now()
}

// Finish transitions the run to the given terminal status.
// The reason is recorded only for FAILED runs.
func (r *CrawlRun) Finish(status Status, reason string) {
	r.Status = status
	r.FinishedAt = time.Now()
	if status == StatusFailed {
		r.FailureReason = reason
	}
}

// Duration returns the elapsed wall-clock time of the run.
// For runs still in progress, it measures up to now.
func (r *CrawlRun) Duration() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
