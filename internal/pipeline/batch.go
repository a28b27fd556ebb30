package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// BatchProcessor crawls multiple competitors concurrently.
//
// Design decision: Concurrency lives here, across runs, never inside one.
// Fetches within a run are sequential for politeness; distinct competitor
// hosts have no such constraint, so runs fan out under an errgroup limit.
type BatchProcessor struct {
	// orchestrator executes individual runs. Runs share the orchestrator
	// safely because all mutable crawl state is per-run.
	orchestrator *Orchestrator

	// concurrency is the maximum number of simultaneous runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed runs in request order.
	// Access is synchronized via mutex.
	results []*model.CrawlResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor around an orchestrator.
func NewBatchProcessor(orchestrator *Orchestrator, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		orchestrator: orchestrator,
		concurrency:  4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls the given competitors concurrently, bounded by the
// configured limit, and returns one result per competitor in input order.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled
// worker pool because it handles the concurrency bound correctly with
// less machinery. A FAILED run never aborts its siblings: failure detail
// lives on the run, so the goroutine returns nil and the batch carries on.
// The error return reports only batch-level cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, competitors []*model.CompetitorProfile) ([]*model.CrawlResult, error) {
	bp.logger.Info("starting batch crawl",
		"competitors", len(competitors),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*model.CrawlResult, len(competitors))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, competitor := range competitors {
		i, competitor := i, competitor
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result, err := bp.orchestrator.Run(ctx, CrawlRequest{Competitor: competitor})

			bp.mu.Lock()
			bp.results[i] = result
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("crawl failed",
					"competitor", competitor.Name,
					"seed", competitor.SeedURL,
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch crawl complete",
		"competitors", len(competitors),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}
