package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for pacing.
var (
	throttlePausesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_throttle_pauses_total",
		Help: "Total number of pauses taken by rule",
	}, []string{"rule"})

	throttleSecondsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_throttle_seconds_total",
		Help: "Total seconds spent pausing by rule",
	}, []string{"rule"})
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer applies a Policy. A Pacer is used by one goroutine at a time.
type Pacer struct {
	policy Policy
	sleep  Sleeper
	logger zerolog.Logger
}

// NewPacer creates a pacer that sleeps for real.
func NewPacer(policy Policy, logger zerolog.Logger) *Pacer {
	return &Pacer{
		policy: policy,
		sleep:  SleepContext,
		logger: logger,
	}
}

// SetSleeper replaces the sleeper (for testing).
func (p *Pacer) SetSleeper(s Sleeper) {
	p.sleep = s
}

// Policy returns the schedule in use.
func (p *Pacer) Policy() Policy {
	return p.policy
}

// AfterPage pauses as owed after the given 1-based page number.
func (p *Pacer) AfterPage(ctx context.Context, page int) error {
	d, rule := p.policy.PageDelay(page)
	if rule == RuleNone || d <= 0 {
		return nil
	}
	return p.pause(ctx, d, rule, page)
}

// BetweenDomains pauses before the next domain.
func (p *Pacer) BetweenDomains(ctx context.Context) error {
	if p.policy.DomainPause <= 0 {
		return nil
	}
	return p.pause(ctx, p.policy.DomainPause, RuleDomain, 0)
}

func (p *Pacer) pause(ctx context.Context, d time.Duration, rule Rule, page int) error {
	throttlePausesTotal.WithLabelValues(string(rule)).Inc()
	throttleSecondsTotal.WithLabelValues(string(rule)).Add(d.Seconds())

	p.logger.Debug().
		Str("rule", string(rule)).
		Int("page", page).
		Dur("pause", d).
		Msg("Throttling")

	return p.sleep(ctx, d)
}
