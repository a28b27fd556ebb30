package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/2020visiontrader/competitorscan/internal/classify"
	"github.com/2020visiontrader/competitorscan/internal/crawler"
	"github.com/2020visiontrader/competitorscan/internal/ia"
	"github.com/2020visiontrader/competitorscan/internal/model"
)

// ErrSeedUnreachable marks a run whose seed URL could not be fetched at
// all. It is the only per-URL failure fatal to a run: without a reachable
// seed there is nothing to crawl.
var ErrSeedUnreachable = errors.New("seed URL unreachable")

// crawlState is the working state shared by one run's steps. It is owned
// by a single run; nothing in it crosses run boundaries, so no locking is
// needed.
type crawlState struct {
	// fetcher performs all network access for the run.
	fetcher crawler.Fetcher

	// userAgent is matched against robots rule groups.
	userAgent string

	// crawlDepth bounds navigation discovery from the seed.
	crawlDepth int

	// overfetch pads the sitemap candidate list past the page cap.
	overfetch int

	// seed is the parsed canonical seed URL.
	seed *url.URL

	// deadline is the wall-clock budget for the whole run, checked at
	// fetch loop boundaries, never mid-fetch. Zero means no budget.
	deadline time.Time

	// probe caches the seed fetch so the fetch loop does not repeat it.
	probe *crawler.FetchResult

	// robots is the run's cached robots policy, set by the discover step.
	robots *crawler.RobotsPolicy

	// frontier is the candidate URL queue, set by the discover step.
	frontier *crawler.Frontier

	// stoppedEarly records that the fetch loop stopped on the page cap,
	// the run deadline, or cancellation while candidates remained.
	stoppedEarly bool
}

// ProbeStep verifies the seed host is reachable with one fetch of the
// seed URL. Probe failure is fatal: the run finishes FAILED with zero
// pages recorded.
type ProbeStep struct {
	state  *crawlState
	logger *slog.Logger
}

// NewProbeStep creates the seed reachability probe.
func NewProbeStep(state *crawlState, logger *slog.Logger) *ProbeStep {
	return &ProbeStep{state: state, logger: logger}
}

// Name returns the step name for logging.
func (s *ProbeStep) Name() string { return "probe" }

// Do fetches the seed URL once and caches the result for the fetch loop.
func (s *ProbeStep) Do(ctx context.Context, result *model.CrawlResult) error {
	seed, err := url.Parse(result.Run.SeedURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSeedUnreachable, err)
	}
	s.state.seed = seed

	probe, err := s.state.fetcher.Fetch(ctx, result.Run.SeedURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSeedUnreachable, err)
	}
	if probe.Outcome == model.OutcomeNetworkError || probe.Outcome == model.OutcomeTimeout {
		return fmt.Errorf("%w: %s", ErrSeedUnreachable, probe.Outcome)
	}

	s.state.probe = probe
	s.logger.Debug("seed probe succeeded",
		"seed", result.Run.SeedURL,
		"status", probe.StatusCode,
	)
	return nil
}

// delayRaiser is implemented by fetchers whose inter-request delay can be
// raised after construction. Fixture fetchers in tests simply omit it.
type delayRaiser interface {
	RaiseDelay(d time.Duration)
}

// DiscoverStep builds the run's robots policy and candidate frontier.
// A usable sitemap selects the sitemap strategy; anything else falls back
// to breadth-first navigation crawling from the seed.
type DiscoverStep struct {
	state  *crawlState
	logger *slog.Logger
}

// NewDiscoverStep creates the strategy selection step.
func NewDiscoverStep(state *crawlState, logger *slog.Logger) *DiscoverStep {
	return &DiscoverStep{state: state, logger: logger}
}

// Name returns the step name for logging.
func (s *DiscoverStep) Name() string { return "discover" }

// Do resolves robots rules and the sitemap, then picks the strategy.
// Sitemap failures are recoverable by design: they silently select the
// nav fallback instead of surfacing an error.
func (s *DiscoverStep) Do(ctx context.Context, result *model.CrawlResult) error {
	s.state.robots = crawler.FetchRobots(ctx, s.state.fetcher, s.state.seed, s.state.userAgent)

	// A declared crawl-delay raises the politeness delay, never lowers it.
	if d := s.state.robots.CrawlDelay(); d > 0 {
		if raiser, ok := s.state.fetcher.(delayRaiser); ok {
			raiser.RaiseDelay(d)
			s.logger.Debug("robots crawl-delay applied", "delay", d)
		}
	}

	limit := result.Run.MaxPages * s.state.overfetch
	urls, err := crawler.ResolveSitemap(ctx, s.state.fetcher, s.state.seed, limit)
	if err != nil {
		return err // only context cancellation reaches here
	}

	if len(urls) > 0 {
		result.Run.Strategy = model.StrategySitemap
		s.state.frontier = crawler.NewStaticFrontier(urls)
	} else {
		result.Run.Strategy = model.StrategyNav
		s.state.frontier = crawler.NewNavFrontier(crawler.CanonicalURL(s.state.seed), s.state.crawlDepth)
	}

	s.logger.Debug("strategy selected",
		"strategy", result.Run.Strategy,
		"candidates", s.state.frontier.Len(),
	)
	return nil
}

// FetchStep is the run's main loop: pop a candidate URL, check robots,
// fetch, parse, classify, record. Fetches are strictly sequential for
// politeness. The loop stops on frontier exhaustion, the page cap, the
// run deadline, or cancellation; the latter three mark the run as
// stopped early when candidates remain.
type FetchStep struct {
	state  *crawlState
	logger *slog.Logger
}

// NewFetchStep creates the fetch/classify loop step.
func NewFetchStep(state *crawlState, logger *slog.Logger) *FetchStep {
	return &FetchStep{state: state, logger: logger}
}

// Name returns the step name for logging.
func (s *FetchStep) Name() string { return "fetch" }

// Do drives the fetch loop. Per-page failures are recorded on their page
// node and never fail the run.
func (s *FetchStep) Do(ctx context.Context, result *model.CrawlResult) error {
	run := result.Run
	seedCanonical := crawler.CanonicalURL(s.state.seed)

	for {
		// Budget checks happen here, between fetches, never mid-fetch.
		if run.PagesCrawled >= run.MaxPages || s.expired(ctx) {
			if !s.state.frontier.Exhausted() {
				s.state.stoppedEarly = true
			}
			return nil
		}

		rawURL, depth, ok := s.state.frontier.Next()
		if !ok {
			return nil
		}

		target, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		if !s.state.robots.IsAllowed(target) {
			run.PagesSkipped++
			s.logger.Debug("robots disallowed", "url", rawURL)
			continue
		}

		fetched := s.state.probe
		if rawURL != seedCanonical && rawURL != run.SeedURL {
			fetched, err = s.state.fetcher.Fetch(ctx, rawURL)
			if err != nil {
				continue
			}
		}

		node := s.buildNode(run.ID, rawURL, depth, target, fetched)
		result.AddPage(node)

		if node.Fetched() && s.state.frontier.Expandable() {
			s.state.frontier.Push(node.InternalLinks, depth+1)
		}
	}
}

// expired reports whether the run deadline passed or the caller cancelled.
func (s *FetchStep) expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return !s.state.deadline.IsZero() && time.Now().After(s.state.deadline)
}

// buildNode turns one fetch result into a classified page node.
func (s *FetchStep) buildNode(runID, rawURL string, depth int, target *url.URL, fetched *crawler.FetchResult) *model.PageNode {
	node := model.NewPageNode(runID, rawURL, depth)
	node.Outcome = fetched.Outcome
	node.StatusCode = fetched.StatusCode

	if !fetched.OK() {
		s.logger.Debug("page fetch failed",
			"url", rawURL,
			"outcome", fetched.Outcome,
			"status", fetched.StatusCode,
		)
		return node
	}

	node.ComputeHash(fetched.Body)
	node.RawHTML = string(fetched.Body)
	node.TruncateRawHTML()

	content, err := crawler.ParsePage(fetched.Body, target)
	if err == nil {
		node.Title = content.Title
		node.H1 = content.H1
		node.H2s = capHeadings(content.H2s)
		node.H3s = capHeadings(content.H3s)
		node.MetaDescription = content.MetaDescription
		node.InternalLinks = s.internalLinks(content.Links)
		node.Text = content.Text
		node.TruncateText()
	}

	node.Type = classify.Classify(node)
	s.logger.Debug("page crawled",
		"url", rawURL,
		"type", node.Type,
		"depth", depth,
	)
	return node
}

// internalLinks filters parsed links to the seed's site.
func (s *FetchStep) internalLinks(links []string) []string {
	var internal []string
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if crawler.SameSite(s.state.seed, u) {
			internal = append(internal, link)
		}
	}
	return internal
}

func capHeadings(headings []string) []string {
	if len(headings) > model.MaxHeadings {
		return headings[:model.MaxHeadings]
	}
	return headings
}

// ExtractStep synthesizes the IA signature from the run's fetched pages.
// Runs with no fetched pages produce no signature.
type ExtractStep struct {
	logger *slog.Logger
}

// NewExtractStep creates the IA extraction step.
func NewExtractStep(logger *slog.Logger) *ExtractStep {
	return &ExtractStep{logger: logger}
}

// Name returns the step name for logging.
func (s *ExtractStep) Name() string { return "extract" }

// Do runs extraction over whatever was fetched, regardless of how the
// fetch loop stopped.
func (s *ExtractStep) Do(_ context.Context, result *model.CrawlResult) error {
	result.Signature = ia.Extract(result.Run, result.Pages)
	if result.Signature != nil {
		s.logger.Debug("signature extracted",
			"run_id", result.Run.ID,
			"nav_items", len(result.Signature.Navigation),
			"keywords", len(result.Signature.Keywords),
			"sections", len(result.Signature.Sections),
		)
	}
	return nil
}
