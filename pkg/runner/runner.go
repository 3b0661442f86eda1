// Package runner drives the counter across a list of domains, one domain at
// a time, and aggregates the results into a ranked Summary.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/domain-order-counter/pkg/cache"
	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
	"github.com/Sternrassler/domain-order-counter/pkg/ratelimit"
	"github.com/Sternrassler/domain-order-counter/pkg/selection"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for run progress.
var (
	domainsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orders_run_domains_remaining",
		Help: "Domains left in the current run",
	})

	runETASeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orders_run_eta_seconds",
		Help: "Estimated seconds until the current run finishes",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orders_run_duration_seconds",
		Help:    "Duration of completed runs in seconds",
		Buckets: prometheus.ExponentialBuckets(10, 3, 8),
	})
)

// DomainCounter is implemented by pagination.Counter.
type DomainCounter interface {
	Count(ctx context.Context, domain string) pagination.DomainResult
}

// History stores the last result of every domain across runs.
// cache.ResultStore implements it.
type History interface {
	Previous(ctx context.Context, domain string) (pagination.DomainResult, error)
	Save(ctx context.Context, result pagination.DomainResult) error
}

// Progress is reported after each domain.
type Progress struct {
	// Index is 1-based.
	Index  int
	Total  int
	Domain string
	Result pagination.DomainResult

	// RunningTotal sums the orders of successful domains so far.
	RunningTotal int
	Successes    int
	Elapsed      time.Duration
	ETA          time.Duration
}

// Percent is the share of domains processed.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Index) / float64(p.Total) * 100
}

// Runner processes domains strictly sequentially.
type Runner struct {
	counter    DomainCounter
	pacer      *ratelimit.Pacer
	history    History
	now        func() time.Time
	newID      func() string
	onStart    func(index, total int, domain string)
	onProgress func(Progress)
	logger     zerolog.Logger
}

// New creates a runner. A nil pacer disables the pause between domains.
func New(counter DomainCounter, pacer *ratelimit.Pacer) *Runner {
	return &Runner{
		counter: counter,
		pacer:   pacer,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  log.With().Str("component", "runner").Logger(),
	}
}

// SetHistory enables previous-run comparison and result persistence.
func (r *Runner) SetHistory(h History) {
	r.history = h
}

// SetClock replaces the time source (for testing).
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// OnStart registers a callback invoked before each domain.
func (r *Runner) OnStart(fn func(index, total int, domain string)) {
	r.onStart = fn
}

// OnProgress registers a callback invoked after each domain.
func (r *Runner) OnProgress(fn func(Progress)) {
	r.onProgress = fn
}

// RunSelection applies sel to domains and runs the result.
func (r *Runner) RunSelection(ctx context.Context, domains []string, sel selection.Selection) Summary {
	return r.Run(ctx, sel.Apply(domains))
}

// Run counts every domain in order. A failing domain never stops the run;
// a cancelled context does, and the partial Summary is returned.
func (r *Runner) Run(ctx context.Context, domains []string) Summary {
	start := r.now()
	summary := Summary{
		RunID:     r.newID(),
		StartedAt: start,
		Selected:  len(domains),
		Results:   make([]pagination.DomainResult, 0, len(domains)),
		Previous:  make(map[string]pagination.DomainResult),
	}

	r.logger.Info().
		Str("run_id", summary.RunID).
		Int("domains", len(domains)).
		Msg("Run started")

	domainsRemaining.Set(float64(len(domains)))

	for i, domain := range domains {
		if ctx.Err() != nil {
			break
		}

		if r.onStart != nil {
			r.onStart(i+1, len(domains), domain)
		}

		r.loadPrevious(ctx, domain, summary.Previous)

		result := r.counter.Count(ctx, domain)
		summary.Results = append(summary.Results, result)
		if result.Succeeded() {
			summary.Successful++
			summary.TotalOrders += result.TotalOrders
		}

		cancelled := result.ErrorKind == pagination.KindCancelled || ctx.Err() != nil
		if !cancelled {
			r.save(ctx, result)
		}

		remaining := len(domains) - i - 1
		elapsed := r.now().Sub(start)
		eta := ETA(elapsed, summary.Successful, remaining)

		domainsRemaining.Set(float64(remaining))
		runETASeconds.Set(eta.Seconds())

		r.logger.Info().
			Int("index", i+1).
			Int("of", len(domains)).
			Str("domain", domain).
			Str("status", string(result.Status)).
			Int("total", summary.TotalOrders).
			Dur("elapsed", elapsed).
			Dur("eta", eta).
			Msg("Progress")

		if r.onProgress != nil {
			r.onProgress(Progress{
				Index:        i + 1,
				Total:        len(domains),
				Domain:       domain,
				Result:       result,
				RunningTotal: summary.TotalOrders,
				Successes:    summary.Successful,
				Elapsed:      elapsed,
				ETA:          eta,
			})
		}

		if cancelled {
			break
		}

		if remaining > 0 && r.pacer != nil {
			if err := r.pacer.BetweenDomains(ctx); err != nil {
				break
			}
		}
	}

	return r.finish(summary, start)
}

func (r *Runner) finish(summary Summary, start time.Time) Summary {
	summary.FinishedAt = r.now()
	elapsed := summary.FinishedAt.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}

	summary.Elapsed = elapsed.Seconds()
	summary.AvgSpeed = pagination.AvgSpeed(summary.TotalOrders, summary.Elapsed)
	summary.Errors = len(summary.Results) - summary.Successful
	summary.Interrupted = len(summary.Results) < summary.Selected ||
		(len(summary.Results) > 0 && summary.Results[len(summary.Results)-1].ErrorKind == pagination.KindCancelled)
	summary.Ranked = Rank(summary.Results)
	summary.NonEmpty, summary.Empty, summary.Failed = Partition(summary.Ranked)

	domainsRemaining.Set(0)
	runETASeconds.Set(0)
	if !summary.Interrupted {
		runDuration.Observe(summary.Elapsed)
	}

	event := r.logger.Info()
	if summary.Interrupted {
		event = r.logger.Warn()
	}
	event.
		Str("run_id", summary.RunID).
		Int("processed", summary.Processed()).
		Int("selected", summary.Selected).
		Int("successful", summary.Successful).
		Int("errors", summary.Errors).
		Int("total_orders", summary.TotalOrders).
		Float64("elapsed_sec", summary.Elapsed).
		Bool("interrupted", summary.Interrupted).
		Msg("Run finished")

	return summary
}

func (r *Runner) loadPrevious(ctx context.Context, domain string, into map[string]pagination.DomainResult) {
	if r.history == nil {
		return
	}
	prev, err := r.history.Previous(ctx, domain)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn().Err(err).Str("domain", domain).Msg("Previous result unavailable")
		}
		return
	}
	into[domain] = prev
}

func (r *Runner) save(ctx context.Context, result pagination.DomainResult) {
	if r.history == nil {
		return
	}
	if err := r.history.Save(ctx, result); err != nil {
		r.logger.Warn().Err(err).Str("domain", result.Domain).Msg("Result not stored")
	}
}
