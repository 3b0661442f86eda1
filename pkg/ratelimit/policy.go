// Package ratelimit implements the fixed pause schedule that keeps the
// counter from overloading the order endpoints. The schedule is not
// adaptive: it never reads signals from the remote service.
package ratelimit

import "time"

// Rule names the schedule entry that produced a pause.
type Rule string

const (
	// RuleNone means no pause applies.
	RuleNone Rule = ""

	// RuleLong applies after every LongEvery-th page.
	RuleLong Rule = "long"

	// RuleShort applies after every ShortEvery-th page not covered by RuleLong.
	RuleShort Rule = "short"

	// RuleDomain applies between two consecutive domains.
	RuleDomain Rule = "domain"
)

// Policy is the pause schedule.
type Policy struct {
	// LongEvery and LongPause: pause LongPause after every LongEvery-th page.
	LongEvery int
	LongPause time.Duration

	// ShortEvery and ShortPause: pause ShortPause after every ShortEvery-th
	// page that the long rule did not already cover.
	ShortEvery int
	ShortPause time.Duration

	// DomainPause separates domains. It is never applied after the last one.
	DomainPause time.Duration
}

// DefaultPolicy pauses 1s after every 10th page, 0.5s after every other
// 5th page, and 1s between domains.
func DefaultPolicy() Policy {
	return Policy{
		LongEvery:   10,
		LongPause:   1 * time.Second,
		ShortEvery:  5,
		ShortPause:  500 * time.Millisecond,
		DomainPause: 1 * time.Second,
	}
}

// PageDelay returns the pause owed after the given 1-based page number.
// A zero or negative Every disables its rule.
func (p Policy) PageDelay(page int) (time.Duration, Rule) {
	if page <= 0 {
		return 0, RuleNone
	}
	if p.LongEvery > 0 && page%p.LongEvery == 0 {
		return p.LongPause, RuleLong
	}
	if p.ShortEvery > 0 && page%p.ShortEvery == 0 {
		return p.ShortPause, RuleShort
	}
	return 0, RuleNone
}

// Total returns the pauses accumulated over the first pages pages.
func (p Policy) Total(pages int) time.Duration {
	var total time.Duration
	for page := 1; page <= pages; page++ {
		d, _ := p.PageDelay(page)
		total += d
	}
	return total
}
