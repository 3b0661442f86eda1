package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/domain-order-counter/pkg/client"
	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
	"github.com/Sternrassler/domain-order-counter/pkg/runner"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixture() runner.Summary {
	results := []pagination.DomainResult{
		{Domain: "https://a.example/", TotalOrders: 2400, PagesProcessed: 3, ElapsedSeconds: 1.26, Status: pagination.StatusSuccess, Reason: pagination.ReasonShortPage, AvgSpeed: 1904.7619},
		{Domain: "https://b.example", PagesProcessed: 1, ElapsedSeconds: 0.04, Status: pagination.StatusError, Reason: pagination.ReasonError, Error: "page 1: HTTP 500: internal server error", ErrorKind: client.KindHTTPStatus},
		{Domain: "http://c.example/shop", PagesProcessed: 3, ElapsedSeconds: 0.3, Status: pagination.StatusSuccess, Reason: pagination.ReasonEmptyStreak},
	}
	ranked := runner.Rank(results)
	nonEmpty, empty, failed := runner.Partition(ranked)

	return runner.Summary{
		RunID:       "6f1c7a52-3f9e-4c55-9a0d-1f7f2f3c9b10",
		StartedAt:   time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2026, 10, 18, 12, 0, 3, 0, time.UTC),
		Selected:    3,
		Successful:  2,
		Errors:      1,
		TotalOrders: 2400,
		Elapsed:     3.04,
		AvgSpeed:    789.4736842,
		Results:     results,
		Ranked:      ranked,
		NonEmpty:    nonEmpty,
		Empty:       empty,
		Failed:      failed,
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://a.example/", "a.example"},
		{"http://c.example/shop", "c.example"},
		{"a.example", "a.example"},
		{"https://" + strings.Repeat("x", 60) + ".example", strings.Repeat("x", 40)},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Label(tt.in), tt.in)
	}
}

func TestThousands(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		12345:    "12,345",
		123456:   "123,456",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for n, want := range tests {
		require.Equal(t, want, Thousands(n), n)
	}
	require.Equal(t, "+1,500", Signed(1500))
	require.Equal(t, "-3", Signed(-3))
	require.Equal(t, "0", Signed(0))
}

func TestRound(t *testing.T) {
	require.Equal(t, 1.3, Round(1.26, 1))
	require.Equal(t, 789.47, Round(789.4736842, 2))
	require.Equal(t, 0.0, Round(0, 2))
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultFormats, got)

	got, err = ParseFormats([]string{"JSON, xlsx", "json", "csv"})
	require.NoError(t, err)
	require.Equal(t, []Format{FormatJSON, FormatXLSX, FormatCSV}, got)

	_, err = ParseFormats([]string{"pdf"})
	require.Error(t, err)
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "domain_stats_20261018_090502", BaseName(time.Date(2026, 10, 18, 9, 5, 2, 0, time.UTC)))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, fixture()))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Equal(t, 3, doc.TotalDomains)
	require.Equal(t, 2, doc.Successful)
	require.Equal(t, 1, doc.Errors)
	require.Equal(t, 2400, doc.TotalOrders)
	require.Equal(t, 3.0, doc.ElapsedSeconds)
	require.Equal(t, 789.47, doc.AvgSpeed)
	require.Equal(t, "2026-10-18T12:00:00Z", doc.StartedAt)

	// input order, rounded times
	require.Len(t, doc.Results, 3)
	require.Equal(t, "https://a.example/", doc.Results[0].Domain)
	require.Equal(t, "https://b.example", doc.Results[1].Domain)
	require.Equal(t, 1.3, doc.Results[0].ElapsedSeconds)
	require.Equal(t, 1904.8, doc.Results[0].AvgSpeed)
	require.Equal(t, "http_status", doc.Results[1].ErrorKind)
	require.Empty(t, doc.Results[0].Error)

	require.NotContains(t, buf.String(), `"error":""`)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixture()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	require.Equal(t, Columns, records[0])
	require.Equal(t, []string{"1", "https://a.example/", "2400", "3", "1.3", "1904.8", "success", ""}, records[1])
	// ties keep input order: b (error, 0) before c (success, 0)
	require.Equal(t, "https://b.example", records[2][1])
	require.Equal(t, "error", records[2][6])
	require.Equal(t, "page 1: HTTP 500: internal server error", records[2][7])
	require.Equal(t, "http://c.example/shop", records[3][1])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, fixture()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetDomains)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, Columns, rows[0])
	require.Equal(t, "https://a.example/", rows[1][1])
	require.Equal(t, "2400", rows[1][2])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Equal(t, []string{"total_orders", "2400"}, summary[5])
}

func TestFileSink_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	sink := NewFileSink(dir, FormatJSON, FormatCSV, FormatXLSX)

	s := fixture()
	paths, err := sink.Save(s)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	base := BaseName(s.FinishedAt.Local())
	for i, ext := range []string{".json", ".csv", ".xlsx"} {
		require.Equal(t, filepath.Join(dir, base+ext), paths[i])
		info, err := os.Stat(paths[i])
		require.NoError(t, err)
		require.Positive(t, info.Size())
	}
}

func TestFileSink_DefaultFormats(t *testing.T) {
	paths, err := NewFileSink(t.TempDir()).Save(fixture())
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.True(t, strings.HasSuffix(paths[0], ".json"))
	require.True(t, strings.HasSuffix(paths[1], ".csv"))
}

func TestConsole_Preview(t *testing.T) {
	var buf bytes.Buffer
	domains := make([]string, 8)
	for i := range domains {
		domains[i] = fmt.Sprintf("https://d%d.example", i+1)
	}

	NewConsole(&buf).Preview(domains)
	out := buf.String()

	require.Contains(t, out, "Found 8 domains")
	require.Contains(t, out, "5. https://d5.example")
	require.NotContains(t, out, "https://d6.example")
	require.Contains(t, out, "... and 3 more")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Summary(fixture())
	out := buf.String()

	require.Contains(t, out, "Total orders:  2,400")
	require.Contains(t, out, "Successful:    2")
	require.Contains(t, out, "Errors:        1")
	require.Contains(t, out, "a.example")
	require.Contains(t, out, "Domains without orders: 1")
	require.Contains(t, out, "c.example")
	require.Contains(t, out, "Domains with errors: 1")
	require.Contains(t, out, "http_status")
	require.NotContains(t, out, "Change")
}

func TestConsole_SummaryLimits(t *testing.T) {
	var results []pagination.DomainResult
	for i := 0; i < 25; i++ {
		results = append(results, pagination.DomainResult{Domain: fmt.Sprintf("https://empty%02d.example", i), Status: pagination.StatusSuccess})
	}
	for i := 0; i < 12; i++ {
		results = append(results, pagination.DomainResult{
			Domain: fmt.Sprintf("https://bad%02d.example", i),
			Status: pagination.StatusError,
			Error:  "page 1: " + strings.Repeat("e", 100),
		})
	}
	for i := 0; i < 11; i++ {
		results = append(results, pagination.DomainResult{Domain: fmt.Sprintf("https://full%02d.example", i), Status: pagination.StatusSuccess, TotalOrders: 100 - i})
	}

	ranked := runner.Rank(results)
	s := runner.Summary{Results: results, Ranked: ranked}
	s.NonEmpty, s.Empty, s.Failed = runner.Partition(ranked)

	var buf bytes.Buffer
	NewConsole(&buf).Summary(s)
	out := buf.String()

	require.Contains(t, out, "full09.example")
	require.NotContains(t, out, "full10.example")
	require.Contains(t, out, "empty19.example")
	require.NotContains(t, out, "empty20.example")
	require.Contains(t, out, "... and 5 more")
	require.Contains(t, out, "bad09.example")
	require.NotContains(t, out, "bad10.example")
	require.Contains(t, out, "... and 2 more")
	require.NotContains(t, out, strings.Repeat("e", 43))
}

func TestConsole_SummaryWithDelta(t *testing.T) {
	s := fixture()
	prev := s.Results[0]
	prev.TotalOrders = 2000
	s.Previous = map[string]pagination.DomainResult{prev.Domain: prev}

	var buf bytes.Buffer
	NewConsole(&buf).Summary(s)

	require.Contains(t, buf.String(), "Change")
	require.Contains(t, buf.String(), "+400")
}

func TestConsole_Progress(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Start(2, 4, "https://b.example")
	c.Progress(runner.Progress{
		Index:   2,
		Total:   4,
		Domain:  "https://b.example",
		Result:  fixture().Results[1],
		Elapsed: 12 * time.Second,
		ETA:     24 * time.Second,
	})

	out := buf.String()
	require.Contains(t, out, "[2/4] Counting https://b.example")
	require.Contains(t, out, "Failed on page 1")
	require.Contains(t, out, "Progress: 2/4 (50.0%)")
	require.Contains(t, out, "remaining: ~24 sec")
}
