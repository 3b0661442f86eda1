package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Sternrassler/domain-order-counter/pkg/logging"
	"github.com/Sternrassler/domain-order-counter/pkg/metrics"
	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
	"github.com/Sternrassler/domain-order-counter/pkg/ratelimit"
	"github.com/Sternrassler/domain-order-counter/pkg/report"
	"github.com/Sternrassler/domain-order-counter/pkg/runner"
	"github.com/Sternrassler/domain-order-counter/pkg/selection"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	selectExpr string
	yes        bool
	outputDir  string
	formats    []string
	maxPages   int
}

func runCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Count orders on the selected domains and save the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("select") {
				a.cfg.Select = opts.selectExpr
			}
			if cmd.Flags().Changed("output") {
				a.cfg.Output.Dir = opts.outputDir
			}
			if cmd.Flags().Changed("format") {
				a.cfg.Output.Formats = opts.formats
			}
			if cmd.Flags().Changed("max-pages") {
				a.cfg.Counter.MaxPages = opts.maxPages
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.run(ctx, opts.yes)
		},
	}

	cmd.Flags().StringVarP(&opts.selectExpr, "select", "s", "all", `domains to process: "all", "test", "first:N" or indices like "1,3,5,10-15"`)
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "data", "directory for result files")
	cmd.Flags().StringSliceVar(&opts.formats, "format", []string{"json", "csv"}, "result file formats (json, csv, xlsx)")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "stop a domain after this many pages (0 = unlimited)")
	return cmd
}

func (a *app) run(ctx context.Context, yes bool) error {
	sel, err := selection.Parse(a.cfg.Select)
	if err != nil {
		return err
	}
	for _, part := range sel.Skipped {
		a.logger.Warn().Str("part", part).Msg("Ignoring invalid selection part")
	}

	formats, err := report.ParseFormats(a.cfg.Output.Formats)
	if err != nil {
		return err
	}

	c, err := a.newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	manager := a.connectCache(ctx)

	domains, err := a.domainSource(c, manager).FetchDomains(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Domain list unavailable")
		return fmt.Errorf("fetch domains: %w", err)
	}

	console := report.NewConsole(a.out)
	if len(domains) == 0 {
		fmt.Fprintln(a.out, "No domains to process")
		return nil
	}
	console.Preview(domains)

	selected := sel.Apply(domains)
	if len(selected) == 0 {
		return fmt.Errorf("selection %q matched none of %d domains", a.cfg.Select, len(domains))
	}
	fmt.Fprintf(a.out, "\nSelected %d of %d domains (%s)\n", len(selected), len(domains), sel)

	if !yes {
		ok, err := confirm(a.in, a.out, fmt.Sprintf("Count orders on %d domains? (y/n): ", len(selected)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled")
			return nil
		}
	}

	pacer := ratelimit.NewPacer(a.cfg.Policy(), logging.NewLogger(logging.ComponentPacer))
	counter := pagination.NewCounter(c, pacer, a.cfg.CounterConfig())

	r := runner.New(counter, pacer)
	r.SetHistory(a.history(manager))
	r.OnStart(console.Start)
	r.OnProgress(console.Progress)

	summary, serveErr := a.runWithMetrics(ctx, r, selected)
	if serveErr != nil {
		a.logger.Error().Err(serveErr).Msg("Run stopped")
	}

	console.Summary(summary)

	paths, err := report.NewFileSink(a.cfg.Output.Dir, formats...).Save(summary)
	console.Saved(paths)
	if err != nil {
		a.logger.Error().Err(err).Msg("Results could not be saved")
		return fmt.Errorf("save results: %w", err)
	}

	if serveErr != nil {
		return serveErr
	}
	if summary.Interrupted {
		return fmt.Errorf("run interrupted after %d of %d domains", summary.Processed(), summary.Selected)
	}
	return nil
}

// runWithMetrics runs the domains, serving /metrics alongside when configured.
func (a *app) runWithMetrics(ctx context.Context, r *runner.Runner, domains []string) (runner.Summary, error) {
	if a.cfg.MetricsAddr == "" {
		return r.Run(ctx, domains), nil
	}

	var summary runner.Summary
	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)

	g.Go(func() error {
		if err := metrics.Serve(serveCtx, a.cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer stopServing()
		summary = r.Run(gctx, domains)
		return nil
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// confirm asks prompt and reports whether the answer was yes. A closed input
// counts as no.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, "\n"+prompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
