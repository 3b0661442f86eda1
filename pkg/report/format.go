// Package report renders run progress and summaries to the console and
// persists results as JSON, CSV and XLSX files.
package report

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Display limits for the console summary.
const (
	TopLimit      = 10
	EmptyLimit    = 20
	ErrorLimit    = 10
	PreviewLimit  = 5
	LabelMaxRunes = 40
	ErrorMaxRunes = 50
)

// Label returns the host part of a domain URL cut to LabelMaxRunes.
func Label(domain string) string {
	host := strings.TrimPrefix(domain, "https://")
	host = strings.TrimPrefix(host, "http://")
	host, _, _ = strings.Cut(host, "/")
	return cut(host, LabelMaxRunes)
}

func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Thousands formats n with comma separators.
func Thousands(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Signed formats a change with an explicit sign.
func Signed(n int) string {
	if n > 0 {
		return "+" + Thousands(n)
	}
	return Thousands(n)
}

// Round rounds x to places decimals.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
