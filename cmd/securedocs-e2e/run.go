package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/browser/cdpdriver"
	"github.com/entrhq/securedocs-e2e/pkg/browser/pwdriver"
	"github.com/entrhq/securedocs-e2e/pkg/cases"
	"github.com/entrhq/securedocs-e2e/pkg/config"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
	"github.com/entrhq/securedocs-e2e/pkg/metrics"
	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/report"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

type runOptions struct {
	*rootOptions

	filter    suite.Filter
	retries   int
	workers   int
	headless  bool
	engine    string
	reportDir string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the end-to-end cases",
		Long: `Run the selected cases against the configured SecureDocs instance.

Cases are selected by glob on their name or category/name, e.g.
  securedocs-e2e run --case 'auth/*' --exclude '*/logout'
  securedocs-e2e run --category files --category search

The command exits with status 1 when any case fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyFlags(cmd)
			return opts.run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.filter.Include, "case", nil, "Run only cases matching this glob (repeatable)")
	f.StringArrayVar(&opts.filter.Exclude, "exclude", nil, "Skip cases matching this glob (repeatable)")
	f.StringArrayVar(&opts.filter.Categories, "category", nil, "Run only this category (repeatable)")
	f.IntVar(&opts.retries, "retries", 0, "Re-run a failed case up to this many times")
	f.IntVar(&opts.workers, "workers", 1, "Number of cases run in parallel, each with its own browser")
	f.BoolVar(&opts.headless, "headless", true, "Run the browser without a window")
	f.StringVar(&opts.engine, "engine", config.EnginePlaywright, "Browser engine: playwright or chromedp")
	f.StringVar(&opts.reportDir, "report-dir", "", "Directory for run artifacts")
	return cmd
}

// applyFlags overrides configuration with flags the user actually set.
func (o *runOptions) applyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("retries") {
		o.cfg.Runner.Retries = o.retries
	}
	if f.Changed("workers") {
		o.cfg.Runner.Workers = o.workers
	}
	if f.Changed("headless") {
		o.cfg.Browser.Headless = o.headless
	}
	if f.Changed("engine") {
		o.cfg.Browser.Engine = o.engine
	}
	if f.Changed("report-dir") {
		o.cfg.Report.Dir = o.reportDir
	}
}

func (o *runOptions) run(ctx context.Context) error {
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logging.NewLogger("cli")

	reg := suite.NewRegistry()
	if err := cases.Register(reg, cases.DefaultData()); err != nil {
		return err
	}
	selected, err := reg.Select(o.filter)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no cases match the given filters")
	}

	driver, closeDriver, err := newDriver(cfg)
	if err != nil {
		return err
	}
	defer closeDriver()

	var mx *metrics.Metrics
	if cfg.Report.Metrics {
		mx = metrics.NewMetrics()
	}

	settings := session.SettingsFromConfig(cfg)
	factory := func(worker int) *session.Manager {
		return session.NewManager(driver, settings,
			session.WithLogger(logging.NewLogger("session").With("worker", worker)),
			session.WithMetrics(mx),
		)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Running %d case(s) against %s with %s", len(selected), cfg.Target.BaseURL, cfg.Browser.Engine)
	runner := suite.NewRunner(factory, pages.SiteFromConfig(cfg), suite.OptionsFromConfig(cfg),
		suite.WithLogger(logging.NewLogger("runner")),
		suite.WithMetrics(mx),
	)
	summary := runner.Run(ctx, selected)
	summary.Engine = cfg.Browser.Engine

	fmt.Print(report.RenderConsole(summary))

	writer := report.NewArtifactWriter(cfg.Report.Dir)
	if err := writer.WriteAll(summary, mx); err != nil {
		log.Errorf("Failed to write report: %v", err)
		fmt.Fprintf(os.Stderr, "warning: failed to write report: %v\n", err)
	} else {
		fmt.Printf("Report written to %s\n", writer.Dir())
	}
	if path := logging.LogPath(); path != "" {
		fmt.Printf("Log: %s\n", path)
	}

	if summary.Failed() {
		fmt.Fprint(os.Stderr, "\n"+summary.FormatFailures())
		return &exitError{code: 1}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted")
	}
	return nil
}

// newDriver builds the configured backend and a function that releases it.
func newDriver(cfg *config.Config) (browser.Driver, func(), error) {
	switch cfg.Browser.Engine {
	case config.EnginePlaywright:
		d := pwdriver.NewDriver(pwdriver.Options{Logger: logging.NewLogger("playwright")})
		return d, func() {
			if err := d.Close(); err != nil {
				logging.NewLogger("playwright").Warnf("Failed to stop Playwright: %v", err)
			}
		}, nil
	case config.EngineChromedp:
		d := cdpdriver.NewDriver(cdpdriver.Options{Logger: logging.NewLogger("chromedp")})
		return d, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown browser engine %q", cfg.Browser.Engine)
	}
}
