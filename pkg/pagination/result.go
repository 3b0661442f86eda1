package pagination

import (
	"github.com/Sternrassler/domain-order-counter/pkg/client"
)

// Status is the outcome of counting one domain.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Reason records why the walk over a domain stopped.
type Reason string

const (
	// ReasonShortPage: a non-empty page shorter than the page size.
	ReasonShortPage Reason = "short_page"

	// ReasonEmptyStreak: EmptyStreakLimit consecutive empty pages.
	ReasonEmptyStreak Reason = "empty_streak"

	// ReasonMaxPages: the optional page cap was reached.
	ReasonMaxPages Reason = "max_pages"

	// ReasonError: a fetch failed or the context was cancelled.
	ReasonError Reason = "error"
)

// KindCancelled marks a domain stopped by context cancellation rather than
// by a fetch error.
const KindCancelled client.ErrorKind = "cancelled"

// DomainResult is the outcome of counting one domain. It is built once and
// not modified afterwards.
type DomainResult struct {
	Domain         string           `json:"domain"`
	TotalOrders    int              `json:"total_orders"`
	PagesProcessed int              `json:"pages_processed"`
	ElapsedSeconds float64          `json:"time_spent_seconds"`
	Status         Status           `json:"status"`
	Reason         Reason           `json:"reason"`
	Error          string           `json:"error,omitempty"`
	ErrorKind      client.ErrorKind `json:"error_kind,omitempty"`
	AvgSpeed       float64          `json:"avg_speed"`
}

// Succeeded reports whether the domain was counted without error.
func (r DomainResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// AvgSpeed returns orders per second, or 0 when no time has elapsed.
func AvgSpeed(orders int, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(orders) / elapsedSeconds
}
