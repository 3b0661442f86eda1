package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Sternrassler/domain-order-counter/pkg/client"
	"github.com/Sternrassler/domain-order-counter/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for counting.
var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_pages_total",
		Help: "Total pages evaluated by outcome (full, short, empty)",
	}, []string{"outcome"})

	domainsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_domains_total",
		Help: "Total domains counted by status and termination reason",
	}, []string{"status", "reason"})

	countedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_counted_total",
		Help: "Total orders counted on successfully processed domains",
	})
)

// PageFetcher is the interface the order client implements for single-page fetching.
type PageFetcher interface {
	// FetchPage returns up to count records starting at offset.
	FetchPage(ctx context.Context, domain string, offset, count int) (client.Page, error)
}

// Config holds counter configuration.
type Config struct {
	// PageSize is the number of records requested per page.
	PageSize int

	// EmptyStreakLimit is the number of consecutive empty pages that ends a walk.
	EmptyStreakLimit int

	// MaxPages caps the pages fetched per domain. 0 means unlimited.
	MaxPages int

	// MaxErrorLen bounds the error message stored in a DomainResult, in runes.
	MaxErrorLen int
}

// DefaultConfig returns the production counter configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:         1000,
		EmptyStreakLimit: 3,
		MaxPages:         0,
		MaxErrorLen:      200,
	}
}

// Counter walks one domain at a time. It keeps no state between calls to
// Count, but it is not meant for concurrent use because the Pacer is shared.
type Counter struct {
	fetcher PageFetcher
	pacer   *ratelimit.Pacer
	config  Config
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCounter creates a counter. A nil pacer disables throttling.
func NewCounter(fetcher PageFetcher, pacer *ratelimit.Pacer, cfg Config) *Counter {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.EmptyStreakLimit <= 0 {
		cfg.EmptyStreakLimit = def.EmptyStreakLimit
	}
	if cfg.MaxErrorLen <= 0 {
		cfg.MaxErrorLen = def.MaxErrorLen
	}
	if cfg.MaxPages < 0 {
		cfg.MaxPages = 0
	}

	return &Counter{
		fetcher: fetcher,
		pacer:   pacer,
		config:  cfg,
		now:     time.Now,
		logger:  log.With().Str("component", "counter").Logger(),
	}
}

// SetClock replaces the time source (for testing).
func (c *Counter) SetClock(now func() time.Time) {
	c.now = now
}

// Config returns the effective configuration.
func (c *Counter) Config() Config {
	return c.config
}

// walkState is the cursor of a single Count call.
type walkState struct {
	offset      int
	total       int
	emptyStreak int
	page        int
	start       time.Time
}

// Count walks domain until the collection ends or a fetch fails. Failures
// are reported inside the result; Count itself never fails.
func (c *Counter) Count(ctx context.Context, domain string) DomainResult {
	st := walkState{start: c.now()}

	c.logger.Info().Str("domain", domain).Msg("Counting domain")

	for {
		st.page++

		page, err := c.fetcher.FetchPage(ctx, domain, st.offset, c.config.PageSize)
		if err != nil {
			return c.finish(domain, &st, ReasonError, err)
		}

		if reason, done := c.evaluate(&st, page.Count()); done {
			return c.finish(domain, &st, reason, nil)
		}

		c.logger.Debug().
			Str("domain", domain).
			Int("page", st.page).
			Int("count", page.Count()).
			Int("total", st.total).
			Int("next_offset", st.offset).
			Msg("Page counted")

		if c.config.MaxPages > 0 && st.page >= c.config.MaxPages {
			return c.finish(domain, &st, ReasonMaxPages, nil)
		}

		if c.pacer != nil {
			if err := c.pacer.AfterPage(ctx, st.page); err != nil {
				return c.finish(domain, &st, ReasonError, err)
			}
		}
	}
}

// evaluate folds one page of n records into st. It returns the termination
// reason and true when the walk is over.
func (c *Counter) evaluate(st *walkState, n int) (Reason, bool) {
	pageSize := c.config.PageSize
	st.total += n

	if n == 0 {
		pagesTotal.WithLabelValues("empty").Inc()
		st.emptyStreak++
		if st.emptyStreak >= c.config.EmptyStreakLimit {
			st.total -= emptyStreakCorrection(st.emptyStreak, n)
			if st.total < 0 {
				st.total = 0
			}
			return ReasonEmptyStreak, true
		}
		st.offset += pageSize
		return "", false
	}

	st.emptyStreak = 0

	if n < pageSize {
		pagesTotal.WithLabelValues("short").Inc()
		return ReasonShortPage, true
	}

	pagesTotal.WithLabelValues("full").Inc()
	st.offset += pageSize
	return "", false
}

// emptyStreakCorrection returns the records to take back when a streak of
// empty pages ends the walk: every page after the first in the streak is
// assumed to have been counted speculatively at perPage records.
//
// NOTE: empty pages add perPage == 0 records, so the correction is always
// zero here. It stays so that a variant counting speculative pages at the
// page size trues up the same way.
func emptyStreakCorrection(streak, perPage int) int {
	if streak <= 1 {
		return 0
	}
	return (streak - 1) * perPage
}

func (c *Counter) finish(domain string, st *walkState, reason Reason, err error) DomainResult {
	elapsed := c.now().Sub(st.start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	result := DomainResult{
		Domain:         domain,
		TotalOrders:    st.total,
		PagesProcessed: st.page,
		ElapsedSeconds: elapsed,
		Status:         StatusSuccess,
		Reason:         reason,
		AvgSpeed:       AvgSpeed(st.total, elapsed),
	}

	if err != nil {
		result.Status = StatusError
		result.Reason = ReasonError
		result.ErrorKind = client.KindOf(err)
		switch {
		case errors.Is(err, context.Canceled):
			result.ErrorKind = KindCancelled
		case result.ErrorKind == "" && errors.Is(err, context.DeadlineExceeded):
			result.ErrorKind = KindCancelled
		}
		result.Error = truncate(fmt.Sprintf("page %d: %v", st.page, err), c.config.MaxErrorLen)

		domainsTotal.WithLabelValues(string(result.Status), string(result.Reason)).Inc()
		c.logger.Warn().
			Err(err).
			Str("domain", domain).
			Str("error_kind", string(result.ErrorKind)).
			Int("page", st.page).
			Int("total", st.total).
			Msg("Domain aborted")
		return result
	}

	domainsTotal.WithLabelValues(string(result.Status), string(result.Reason)).Inc()
	countedTotal.Add(float64(result.TotalOrders))

	c.logger.Info().
		Str("domain", domain).
		Int("total", result.TotalOrders).
		Int("pages", result.PagesProcessed).
		Str("reason", string(result.Reason)).
		Dur("duration", time.Duration(elapsed*float64(time.Second))).
		Float64("orders_per_sec", result.AvgSpeed).
		Msg("Domain counted")

	return result
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
