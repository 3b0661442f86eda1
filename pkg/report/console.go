package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
	"github.com/Sternrassler/domain-order-counter/pkg/runner"
	"github.com/rodaine/table"
)

const rule = "================================================================================"

// Console writes human-readable progress and summaries.
type Console struct {
	w io.Writer
}

// NewConsole creates a console writer.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) heading(title string) {
	c.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

// Preview lists the first domains of a directory.
func (c *Console) Preview(domains []string) {
	c.printf("\nFound %d domains\n", len(domains))
	if len(domains) == 0 {
		return
	}

	c.printf("\nFirst %d domains:\n", min(PreviewLimit, len(domains)))
	for i, d := range domains[:min(PreviewLimit, len(domains))] {
		c.printf("  %d. %s\n", i+1, d)
	}
	if len(domains) > PreviewLimit {
		c.printf("    ... and %d more\n", len(domains)-PreviewLimit)
	}
}

// Start announces a domain.
func (c *Console) Start(index, total int, domain string) {
	c.printf("\n[%d/%d] Counting %s\n", index, total, domain)
}

// Progress reports a finished domain and the run's progress.
func (c *Console) Progress(p runner.Progress) {
	r := p.Result
	if r.Succeeded() {
		c.printf("    Total: %s orders in %d pages (%s)\n", Thousands(r.TotalOrders), r.PagesProcessed, r.Reason)
		c.printf("    Time: %.1f sec (%.1f orders/sec)\n", r.ElapsedSeconds, r.AvgSpeed)
	} else {
		c.printf("    Failed on page %d: %s\n", r.PagesProcessed, r.Error)
	}
	c.printf("Progress: %d/%d (%.1f%%)\n", p.Index, p.Total, p.Percent())
	c.printf("Elapsed: %.0f sec, remaining: ~%.0f sec\n", p.Elapsed.Seconds(), p.ETA.Seconds())
}

// Summary prints overall statistics and the ranked groups.
func (c *Console) Summary(s runner.Summary) {
	c.heading("SUMMARY")

	c.printf("Run:           %s\n", s.RunID)
	c.printf("Domains:       %d\n", s.Selected)
	c.printf("Successful:    %d\n", s.Successful)
	c.printf("Errors:        %d\n", s.Errors)
	c.printf("Total orders:  %s\n", Thousands(s.TotalOrders))
	c.printf("Elapsed:       %.1f sec\n", s.Elapsed)
	if s.Elapsed > 0 {
		c.printf("Average speed: %.1f orders/sec\n", s.AvgSpeed)
	} else {
		c.printf("Average speed: N/A\n")
	}
	if s.Interrupted {
		c.printf("Interrupted:   %d of %d domains processed\n", s.Processed(), s.Selected)
	}

	c.top(s)
	c.empty(s.Empty)
	c.failed(s.Failed)
}

func (c *Console) top(s runner.Summary) {
	c.printf("\nTop %d domains by orders:\n", TopLimit)

	withDelta := len(s.Previous) > 0
	headers := []any{"#", "Domain", "Orders", "Pages"}
	if withDelta {
		headers = append(headers, "Change")
	}
	tbl := table.New(headers...).WithWriter(c.w)

	for i, r := range s.NonEmpty[:min(TopLimit, len(s.NonEmpty))] {
		row := []any{i + 1, Label(r.Domain), Thousands(r.TotalOrders), r.PagesProcessed}
		if withDelta {
			row = append(row, deltaText(s, r))
		}
		tbl.AddRow(row...)
	}
	tbl.Print()
}

func deltaText(s runner.Summary, r pagination.DomainResult) string {
	d, ok := s.Delta(r)
	if !ok {
		return "new"
	}
	return Signed(d)
}

func (c *Console) empty(results []pagination.DomainResult) {
	c.printf("\nDomains without orders: %d\n", len(results))
	for i, r := range results[:min(EmptyLimit, len(results))] {
		c.printf("  %2d. %s\n", i+1, Label(r.Domain))
	}
	if len(results) > EmptyLimit {
		c.printf("    ... and %d more\n", len(results)-EmptyLimit)
	}
}

func (c *Console) failed(results []pagination.DomainResult) {
	c.printf("\nDomains with errors: %d\n", len(results))
	if len(results) == 0 {
		return
	}

	tbl := table.New("#", "Domain", "Kind", "Error").WithWriter(c.w)
	for i, r := range results[:min(ErrorLimit, len(results))] {
		tbl.AddRow(i+1, Label(r.Domain), string(r.ErrorKind), cut(oneLine(r.Error), ErrorMaxRunes))
	}
	tbl.Print()

	if len(results) > ErrorLimit {
		c.printf("    ... and %d more\n", len(results)-ErrorLimit)
	}
}

// Saved lists written files.
func (c *Console) Saved(paths []string) {
	for _, p := range paths {
		c.printf("Saved %s\n", p)
	}
}

func oneLine(s string) string {
	if s == "" {
		return "unknown error"
	}
	return strings.Join(strings.Fields(s), " ")
}
