package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/2020visiontrader/competitorscan/internal/config"
	"github.com/2020visiontrader/competitorscan/internal/crawler"
	"github.com/2020visiontrader/competitorscan/internal/ia"
	"github.com/2020visiontrader/competitorscan/internal/model"
)

// CrawlRequest is one crawl order: which competitor, and optional
// overrides of the page budget and wall-clock budget.
type CrawlRequest struct {
	// Competitor identifies the site to crawl and carries the single-SKU
	// flag that selects the page budget.
	Competitor *model.CompetitorProfile

	// MaxPages lowers the page budget below the policy value. Zero means
	// use the policy budget; values above it are clamped down.
	MaxPages int

	// Timeout overrides the configured wall-clock budget when positive.
	Timeout time.Duration
}

// Orchestrator runs the crawl state machine for one competitor at a time:
// PENDING -> RUNNING -> {SUCCEEDED | PARTIAL | FAILED}. It owns strategy
// selection, budget enforcement, and terminal status resolution; the
// per-stage work is delegated to pipeline steps.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger

	// newFetcher builds the fetcher for each run. Runs never share a
	// fetcher because politeness bookkeeping is per-run state.
	newFetcher func() crawler.Fetcher
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets a custom logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithFetcherFactory substitutes the fetcher used for every run.
// Tests pass fixture-backed fetchers here to run without network access.
func WithFetcherFactory(factory func() crawler.Fetcher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newFetcher = factory
	}
}

// NewOrchestrator creates an orchestrator bound to the given config.
func NewOrchestrator(cfg *config.Config, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{cfg: cfg}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.newFetcher == nil {
		o.newFetcher = func() crawler.Fetcher {
			return crawler.NewHTTPFetcher(
				crawler.WithTimeout(cfg.FetchTimeout),
				crawler.WithUserAgent(cfg.UserAgent),
				crawler.WithMaxBodySize(cfg.MaxBodySize),
				crawler.WithDelay(cfg.CrawlDelay),
			)
		}
	}

	return o
}

// Run executes one crawl and always returns a result with a terminal run
// status. The returned error mirrors the FAILED status for callers that
// prefer error handling over status inspection; PARTIAL and SUCCEEDED
// runs return a nil error.
func (o *Orchestrator) Run(ctx context.Context, req CrawlRequest) (*model.CrawlResult, error) {
	competitor := req.Competitor
	maxPages := config.ResolveMaxPages(req.MaxPages, competitor.SingleSKU)

	run := model.NewCrawlRun(competitor.ID, crawler.Canonicalize(competitor.SeedURL), maxPages)
	result := model.NewCrawlResult(run)

	timeout := o.cfg.RunTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	state := &crawlState{
		fetcher:    o.newFetcher(),
		userAgent:  o.cfg.UserAgent,
		crawlDepth: o.cfg.CrawlDepth,
		overfetch:  o.cfg.OverfetchFactor,
	}
	if timeout > 0 {
		state.deadline = time.Now().Add(timeout)
	}

	p := New(WithLogger(o.logger))
	p.AddSteps(
		NewProbeStep(state, o.logger),
		NewDiscoverStep(state, o.logger),
		NewFetchStep(state, o.logger),
		NewExtractStep(o.logger),
	)

	run.Start()
	o.logger.Info("crawl started",
		"run_id", run.ID,
		"competitor", competitor.Name,
		"seed", run.SeedURL,
		"max_pages", run.MaxPages,
	)

	err := p.Execute(ctx, result)
	o.finalize(result, state, err)

	o.logger.Info("crawl finished",
		"run_id", run.ID,
		"status", run.Status,
		"strategy", run.Strategy,
		"pages_crawled", run.PagesCrawled,
		"pages_skipped", run.PagesSkipped,
		"duration", run.Duration(),
	)

	if run.Status == model.StatusFailed {
		return result, errors.New(run.FailureReason)
	}
	return result, nil
}

// finalize resolves the run's terminal status.
//
// The rules, in order: a failed seed probe is FAILED with zero pages; a
// run that recorded no pages is FAILED; a run stopped by the cap, the
// deadline, or cancellation while candidates remained is PARTIAL;
// everything else is SUCCEEDED.
func (o *Orchestrator) finalize(result *model.CrawlResult, state *crawlState, err error) {
	run := result.Run

	switch {
	case errors.Is(err, ErrSeedUnreachable):
		run.Finish(model.StatusFailed, err.Error())
	case run.PagesCrawled == 0:
		run.Finish(model.StatusFailed, "no pages crawled")
	case state.stoppedEarly || err != nil:
		// Cancellation between steps can skip extraction; partial runs
		// with fetched pages still get a signature.
		if result.Signature == nil {
			result.Signature = ia.Extract(run, result.Pages)
		}
		run.Finish(model.StatusPartial, "")
	default:
		run.Finish(model.StatusSucceeded, "")
	}
}
