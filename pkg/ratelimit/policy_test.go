package ratelimit

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.LongEvery != 10 || p.LongPause != time.Second {
		t.Errorf("long rule = every %d / %v, want every 10 / 1s", p.LongEvery, p.LongPause)
	}
	if p.ShortEvery != 5 || p.ShortPause != 500*time.Millisecond {
		t.Errorf("short rule = every %d / %v, want every 5 / 500ms", p.ShortEvery, p.ShortPause)
	}
	if p.DomainPause != time.Second {
		t.Errorf("DomainPause = %v, want 1s", p.DomainPause)
	}
}

func TestPolicy_PageDelay(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		page      int
		wantDelay time.Duration
		wantRule  Rule
	}{
		{0, 0, RuleNone},
		{1, 0, RuleNone},
		{4, 0, RuleNone},
		{5, 500 * time.Millisecond, RuleShort},
		{9, 0, RuleNone},
		{10, time.Second, RuleLong},
		{15, 500 * time.Millisecond, RuleShort},
		{20, time.Second, RuleLong},
		{25, 500 * time.Millisecond, RuleShort},
		{100, time.Second, RuleLong},
	}

	for _, tt := range tests {
		d, rule := p.PageDelay(tt.page)
		if d != tt.wantDelay || rule != tt.wantRule {
			t.Errorf("PageDelay(%d) = (%v, %q), want (%v, %q)", tt.page, d, rule, tt.wantDelay, tt.wantRule)
		}
	}
}

func TestPolicy_PageDelayDisabledRules(t *testing.T) {
	p := Policy{}
	for page := 1; page <= 20; page++ {
		if d, rule := p.PageDelay(page); d != 0 || rule != RuleNone {
			t.Fatalf("PageDelay(%d) = (%v, %q) with empty policy", page, d, rule)
		}
	}
}

func TestPolicy_Total(t *testing.T) {
	p := DefaultPolicy()

	// pages 5, 15 short; 10, 20 long
	if got, want := p.Total(20), 3*time.Second; got != want {
		t.Errorf("Total(20) = %v, want %v", got, want)
	}
	if got := p.Total(4); got != 0 {
		t.Errorf("Total(4) = %v, want 0", got)
	}
}
