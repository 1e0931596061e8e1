package suite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/securedocs-e2e/pkg/config"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
	"github.com/entrhq/securedocs-e2e/pkg/metrics"
	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
)

// ManagerFactory builds the session manager for one worker. Each worker gets
// its own manager and therefore its own browser handle.
type ManagerFactory func(worker int) *session.Manager

// Options controls case execution.
type Options struct {
	// Retries is how many times a failed case is re-run
	Retries int

	// ResetOnFailure discards the session after every failed attempt so the
	// next attempt or case starts from a fresh login
	ResetOnFailure bool

	// Workers is the number of cases run in parallel
	Workers int

	// CaseTimeout bounds a single attempt, including its login. Zero means none.
	CaseTimeout time.Duration

	// ArtifactsDir is the root for per-case artifact directories
	ArtifactsDir string
}

// DefaultOptions returns sequential execution with reset on failure and no retries.
func DefaultOptions() Options {
	return Options{ResetOnFailure: true, Workers: 1}
}

// OptionsFromConfig derives runner options from the suite configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Retries:        cfg.Runner.Retries,
		ResetOnFailure: cfg.Runner.ResetOnFailure,
		Workers:        cfg.Runner.Workers,
		CaseTimeout:    cfg.Timeouts.Case,
		ArtifactsDir:   filepath.Join(cfg.Report.Dir, "cases"),
	}
}

// RunnerOption configures optional Runner collaborators.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger
func WithLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithMetrics records case outcomes on mx
func WithMetrics(mx *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = mx
	}
}

// Runner executes cases against the application.
type Runner struct {
	factory ManagerFactory
	site    pages.Site
	opts    Options
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewRunner creates a runner.
func NewRunner(factory ManagerFactory, site pages.Site, opts Options, ropts ...RunnerOption) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	r := &Runner{
		factory: factory,
		site:    site,
		opts:    opts,
	}
	for _, o := range ropts {
		o(r)
	}
	if r.log == nil {
		r.log = logging.NewLogger("runner")
	}
	return r
}

// Run executes cases and returns the summary. Results keep the order of cases
// regardless of how many workers ran them.
//
// Cancelling ctx stops dispatch: cases not yet started are reported as
// skipped, and a case already running finishes its current attempt.
func (r *Runner) Run(ctx context.Context, cases []Case) *Summary {
	summary := &Summary{
		RunID:     logging.RunID(),
		BaseURL:   r.site.BaseURL,
		StartTime: time.Now(),
		Results:   make([]CaseResult, len(cases)),
	}

	workers := min(r.opts.Workers, len(cases))
	r.log.Infof("Running %d cases on %d worker(s)", len(cases), workers)

	jobs := make(chan int)
	var g errgroup.Group

	g.Go(func() error {
		defer close(jobs)
		for i := range cases {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 1; w <= workers; w++ {
		g.Go(func() error {
			m := r.factory(w)
			defer m.Cleanup()
			for i := range jobs {
				summary.Results[i] = r.runCase(ctx, w, m, cases[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range summary.Results {
		if res.Status == "" {
			summary.Results[i] = notRun(cases[i], "run cancelled")
		}
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	summary.Tally()
	r.log.Infof("Run finished in %s: %d passed, %d failed, %d flaky, %d skipped",
		summary.Duration.Round(time.Millisecond), summary.Totals.Passed, summary.Totals.Failed,
		summary.Totals.Flaky, summary.Totals.Skipped)
	return summary
}

func notRun(c Case, reason string) CaseResult {
	return CaseResult{
		Name:        c.Name,
		Category:    c.Category,
		Account:     c.Account.String(),
		Description: c.Description,
		Status:      StatusSkipped,
		Error:       reason,
	}
}

// runCase runs a case with retries on the worker's manager.
func (r *Runner) runCase(ctx context.Context, worker int, m *session.Manager, c Case) CaseResult {
	res := notRun(c, "")
	res.Worker = worker
	res.StartTime = time.Now()
	log := r.log.With("case", c.ID(), "worker", worker)

	maxAttempts := r.opts.Retries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			if res.Attempts == 0 {
				res.Error = "run cancelled"
			}
			break
		}
		res.Attempts = attempt

		err := r.attempt(ctx, m, c, attempt, log)
		if err == nil {
			res.Status = StatusPassed
			if attempt > 1 {
				res.Status = StatusFlaky
			}
			res.Error = ""
			break
		}
		if IsSkip(err) {
			var se *SkipError
			errors.As(err, &se)
			res.Status = StatusSkipped
			res.Error = se.Reason
			log.Infof("Case skipped: %s", se.Reason)
			break
		}

		res.Status = StatusFailed
		res.Error = err.Error()
		res.Errors = append(res.Errors, err.Error())
		log.Warnf("Case failed (attempt %d/%d): %v", attempt, maxAttempts, err)

		if r.opts.ResetOnFailure {
			m.ResetSession()
		}
	}

	res.Duration = time.Since(res.StartTime)
	if res.Status == StatusPassed || res.Status == StatusFlaky {
		log.Infof("Case %s in %s", res.Status, res.Duration.Round(time.Millisecond))
	}
	r.metrics.RecordCase(c.Category, string(res.Status), res.Duration, max(res.Attempts-1, 0))
	return res
}

// attempt logs in as the case's account if needed and runs the case once.
func (r *Runner) attempt(ctx context.Context, m *session.Manager, c Case, attempt int, log *logging.Logger) (err error) {
	caseCtx := ctx
	if r.opts.CaseTimeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, r.opts.CaseTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("case panicked: %v", p)
		}
	}()

	env := &Env{
		Session: m,
		Site:    r.site,
		Log:     log,
		Attempt: attempt,
	}
	if r.opts.ArtifactsDir != "" {
		env.Artifacts = filepath.Join(r.opts.ArtifactsDir, c.Category, c.Name)
	}

	if c.Account != session.None {
		h, err := m.Login(c.Account)
		if err != nil {
			return fmt.Errorf("login as %s: %w", c.Account, err)
		}
		env.Handle = h
	}

	err = c.Run(caseCtx, env)
	if err == nil && errors.Is(caseCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("case exceeded its %s timeout", r.opts.CaseTimeout)
	}
	return err
}
