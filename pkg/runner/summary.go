package runner

import (
	"sort"
	"time"

	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
)

// Summary is the outcome of one run.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Selected is the number of domains the run was asked to process.
	Selected int `json:"total_domains"`

	Successful  int     `json:"successful_domains"`
	Errors      int     `json:"error_domains"`
	TotalOrders int     `json:"total_orders"`
	Elapsed     float64 `json:"elapsed_seconds"`
	AvgSpeed    float64 `json:"avg_speed"`

	// Interrupted is true when the run stopped before processing every domain.
	Interrupted bool `json:"interrupted,omitempty"`

	// Results holds one entry per processed domain in input order.
	Results []pagination.DomainResult `json:"results"`

	// Ranked is Results sorted by TotalOrders descending, stable on ties.
	Ranked []pagination.DomainResult `json:"-"`

	// Report groups, each in Ranked order.
	NonEmpty []pagination.DomainResult `json:"-"`
	Empty    []pagination.DomainResult `json:"-"`
	Failed   []pagination.DomainResult `json:"-"`

	// Previous maps a domain to its stored result from an earlier run.
	Previous map[string]pagination.DomainResult `json:"-"`
}

// Processed is the number of domains with a result.
func (s Summary) Processed() int {
	return len(s.Results)
}

// Delta returns how r's count changed since the previous run, and false when
// there is nothing to compare against.
func (s Summary) Delta(r pagination.DomainResult) (int, bool) {
	prev, ok := s.Previous[r.Domain]
	if !ok || !prev.Succeeded() || !r.Succeeded() {
		return 0, false
	}
	return r.TotalOrders - prev.TotalOrders, true
}

// Rank returns results sorted by TotalOrders descending. Ties keep input
// order. results is not modified.
func Rank(results []pagination.DomainResult) []pagination.DomainResult {
	ranked := append([]pagination.DomainResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalOrders > ranked[j].TotalOrders
	})
	return ranked
}

// Partition splits ranked results into report groups: successful with
// orders, successful without orders, and failed.
func Partition(ranked []pagination.DomainResult) (nonEmpty, empty, failed []pagination.DomainResult) {
	for _, r := range ranked {
		switch {
		case !r.Succeeded():
			failed = append(failed, r)
		case r.TotalOrders > 0:
			nonEmpty = append(nonEmpty, r)
		default:
			empty = append(empty, r)
		}
	}
	return nonEmpty, empty, failed
}

// ETA estimates the remaining time from the mean duration of successful
// domains. It is 0 until a domain succeeds.
func ETA(elapsed time.Duration, successes, remaining int) time.Duration {
	if successes <= 0 || remaining <= 0 {
		return 0
	}
	return elapsed / time.Duration(successes) * time.Duration(remaining)
}
