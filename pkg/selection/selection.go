// Package selection picks the subset of domains a run processes.
//
// A selection is written as one of:
//
//	all          every domain (also the empty string)
//	test         the first TestSize domains
//	first:N      the first N domains, N clamped to [1, len]
//	1,3,5,10-15  1-based indices and inclusive ranges
package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TestSize is the number of domains processed in test mode.
const TestSize = 5

// Mode is the kind of selection.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeTest    Mode = "test"
	ModeFirst   Mode = "first"
	ModeIndices Mode = "indices"
)

// Range is an inclusive range of 1-based indices.
type Range struct {
	From int
	To   int
}

// Selection is a parsed selection expression.
type Selection struct {
	Mode Mode

	// N is the requested count for ModeFirst.
	N int

	// Ranges are the requested indices for ModeIndices. A single index is a
	// Range with From == To.
	Ranges []Range

	// Skipped lists the parts of an index expression that could not be parsed.
	Skipped []string
}

// All selects every domain.
func All() Selection {
	return Selection{Mode: ModeAll}
}

// Parse parses a selection expression.
func Parse(expr string) (Selection, error) {
	expr = strings.TrimSpace(expr)

	switch strings.ToLower(expr) {
	case "", string(ModeAll):
		return All(), nil
	case string(ModeTest):
		return Selection{Mode: ModeTest}, nil
	}

	if rest, ok := cutPrefixFold(expr, "first:"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return Selection{}, fmt.Errorf("invalid count in %q: %w", expr, err)
		}
		return Selection{Mode: ModeFirst, N: n}, nil
	}

	sel := Selection{Mode: ModeIndices}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, ok := parseRange(part)
		if !ok {
			sel.Skipped = append(sel.Skipped, part)
			continue
		}
		sel.Ranges = append(sel.Ranges, r)
	}

	if len(sel.Ranges) == 0 {
		return Selection{}, fmt.Errorf("no valid indices in %q", expr)
	}
	return sel, nil
}

func parseRange(part string) (Range, bool) {
	if from, to, ok := strings.Cut(part, "-"); ok {
		a, errA := strconv.Atoi(strings.TrimSpace(from))
		b, errB := strconv.Atoi(strings.TrimSpace(to))
		if errA != nil || errB != nil {
			return Range{}, false
		}
		return Range{From: a, To: b}, true
	}
	n, err := strconv.Atoi(part)
	if err != nil || n < 0 {
		return Range{}, false
	}
	return Range{From: n, To: n}, true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// Apply returns the selected domains, preserving their order in domains.
// Out-of-range indices are dropped and duplicates collapse.
func (s Selection) Apply(domains []string) []string {
	switch s.Mode {
	case ModeTest:
		return head(domains, TestSize)
	case ModeFirst:
		n := s.N
		if n < 1 {
			n = 1
		}
		return head(domains, n)
	case ModeIndices:
		return s.pick(domains)
	default:
		return append([]string(nil), domains...)
	}
}

func head(domains []string, n int) []string {
	if n > len(domains) {
		n = len(domains)
	}
	return append([]string(nil), domains[:n]...)
}

func (s Selection) pick(domains []string) []string {
	seen := make(map[int]struct{})
	for _, r := range s.Ranges {
		from, to := r.From, r.To
		if from < 1 {
			from = 1
		}
		if to > len(domains) {
			to = len(domains)
		}
		for i := from; i <= to; i++ {
			seen[i-1] = struct{}{}
		}
	}

	indices := make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	out := make([]string, 0, len(indices))
	for _, i := range indices {
		out = append(out, domains[i])
	}
	return out
}

// String renders the selection in Parse syntax.
func (s Selection) String() string {
	switch s.Mode {
	case ModeTest:
		return string(ModeTest)
	case ModeFirst:
		return "first:" + strconv.Itoa(s.N)
	case ModeIndices:
		parts := make([]string, 0, len(s.Ranges))
		for _, r := range s.Ranges {
			if r.From == r.To {
				parts = append(parts, strconv.Itoa(r.From))
				continue
			}
			parts = append(parts, fmt.Sprintf("%d-%d", r.From, r.To))
		}
		return strings.Join(parts, ",")
	default:
		return string(ModeAll)
	}
}
