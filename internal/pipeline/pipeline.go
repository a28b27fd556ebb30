package pipeline

import (
	"context"
	"log/slog"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// Step defines the interface that all crawl stages must implement.
// Steps are executed in sequence, with each step receiving the
// accumulated result from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry per-run state (frontier, robots cache)
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future stages (e.g., change detection)
type Step interface {
	// Do executes the crawl stage.
	// It receives the context for cancellation and the result to modify.
	// Returns an error only for failures fatal to the whole run;
	// per-page failures are recorded on the result and return nil.
	Do(ctx context.Context, result *model.CrawlResult) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes crawl stages in order for a single run.
type Pipeline struct {
	// steps contains the ordered list of stages to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends stages to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all stages in sequence.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps bound their own blocking work. A run's wall-clock
// budget is enforced by the fetch loop itself at iteration boundaries, so
// the only cancellation seen here is the caller going away.
//
// Returns the first fatal error encountered; the result carries whatever
// was accumulated up to that point.
func (p *Pipeline) Execute(ctx context.Context, result *model.CrawlResult) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("crawl cancelled",
				"step", step.Name(),
				"run_id", result.Run.ID,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"run_id", result.Run.ID,
			"seed", result.Run.SeedURL,
		)

		if err := step.Do(ctx, result); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run_id", result.Run.ID,
				"error", err,
			)
			return err
		}
	}

	return nil
}

// StepNames returns the names of all stages in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
