package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
	"github.com/Sternrassler/domain-order-counter/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// FilePrefix starts every result file name.
const FilePrefix = "domain_stats_"

// timestampLayout renders YYYYMMDD_HHMMSS.
const timestampLayout = "20060102_150405"

// Format is a result file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultFormats are written when none are configured.
var DefaultFormats = []Format{FormatJSON, FormatCSV}

// ParseFormats parses format names such as "json,csv,xlsx".
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			f := Format(strings.ToLower(strings.TrimSpace(name)))
			if f == "" || seen[f] {
				continue
			}
			switch f {
			case FormatJSON, FormatCSV, FormatXLSX:
			default:
				return nil, fmt.Errorf("unknown output format %q (want json, csv or xlsx)", name)
			}
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return DefaultFormats, nil
	}
	return formats, nil
}

// BaseName returns the file name without extension for a run at t.
func BaseName(t time.Time) string {
	return FilePrefix + t.Format(timestampLayout)
}

// Columns of the tabular outputs.
var Columns = []string{"#", "domain", "orders", "pages", "seconds", "orders_per_second", "status", "error"}

// Record is a DomainResult as written to files, with times rounded.
type Record struct {
	Domain         string  `json:"domain"`
	TotalOrders    int     `json:"total_orders"`
	PagesProcessed int     `json:"pages_processed"`
	ElapsedSeconds float64 `json:"time_spent_seconds"`
	Status         string  `json:"status"`
	Reason         string  `json:"reason"`
	Error          string  `json:"error,omitempty"`
	ErrorKind      string  `json:"error_kind,omitempty"`
	AvgSpeed       float64 `json:"avg_speed"`
}

// NewRecord converts r.
func NewRecord(r pagination.DomainResult) Record {
	return Record{
		Domain:         r.Domain,
		TotalOrders:    r.TotalOrders,
		PagesProcessed: r.PagesProcessed,
		ElapsedSeconds: Round(r.ElapsedSeconds, 1),
		Status:         string(r.Status),
		Reason:         string(r.Reason),
		Error:          r.Error,
		ErrorKind:      string(r.ErrorKind),
		AvgSpeed:       Round(r.AvgSpeed, 1),
	}
}

// Document is the JSON file layout.
type Document struct {
	RunID          string   `json:"run_id"`
	StartedAt      string   `json:"started_at"`
	FinishedAt     string   `json:"finished_at"`
	TotalDomains   int      `json:"total_domains"`
	Processed      int      `json:"processed_domains"`
	Successful     int      `json:"successful_domains"`
	Errors         int      `json:"error_domains"`
	TotalOrders    int      `json:"total_orders"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	AvgSpeed       float64  `json:"avg_speed"`
	Interrupted    bool     `json:"interrupted,omitempty"`
	Results        []Record `json:"results"`
}

// NewDocument builds the JSON document. Results keep input order.
func NewDocument(s runner.Summary) Document {
	doc := Document{
		RunID:          s.RunID,
		StartedAt:      s.StartedAt.Format(time.RFC3339),
		FinishedAt:     s.FinishedAt.Format(time.RFC3339),
		TotalDomains:   s.Selected,
		Processed:      s.Processed(),
		Successful:     s.Successful,
		Errors:         s.Errors,
		TotalOrders:    s.TotalOrders,
		ElapsedSeconds: Round(s.Elapsed, 1),
		AvgSpeed:       Round(s.AvgSpeed, 2),
		Interrupted:    s.Interrupted,
		Results:        make([]Record, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		doc.Results = append(doc.Results, NewRecord(r))
	}
	return doc
}

// WriteJSON writes the indented JSON document.
func WriteJSON(w io.Writer, s runner.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(NewDocument(s)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// rows returns the tabular rows in ranked order.
func rows(s runner.Summary) [][]string {
	ranked := s.Ranked
	if ranked == nil {
		ranked = runner.Rank(s.Results)
	}

	out := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		rec := NewRecord(r)
		out = append(out, []string{
			strconv.Itoa(i + 1),
			rec.Domain,
			strconv.Itoa(rec.TotalOrders),
			strconv.Itoa(rec.PagesProcessed),
			strconv.FormatFloat(rec.ElapsedSeconds, 'f', -1, 64),
			strconv.FormatFloat(rec.AvgSpeed, 'f', -1, 64),
			rec.Status,
			rec.Error,
		})
	}
	return out
}

// WriteCSV writes the ranked table with a header row.
func WriteCSV(w io.Writer, s runner.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows(s)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// Sheet names of the XLSX output.
const (
	SheetDomains = "Domains"
	SheetSummary = "Summary"
)

// WriteXLSX writes a workbook with the ranked table and the run totals.
func WriteXLSX(w io.Writer, s runner.Summary) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetDomains); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetDomains, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	ranked := s.Ranked
	if ranked == nil {
		ranked = runner.Rank(s.Results)
	}
	for i, r := range ranked {
		rec := NewRecord(r)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{i + 1, rec.Domain, rec.TotalOrders, rec.PagesProcessed, rec.ElapsedSeconds, rec.AvgSpeed, rec.Status, rec.Error}
		if err := f.SetSheetRow(SheetDomains, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(SheetDomains, "A1", "H1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetDomains, "B", "B", 45); err != nil {
		return fmt.Errorf("set width: %w", err)
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	doc := NewDocument(s)
	totals := [][]any{
		{"run_id", doc.RunID},
		{"started_at", doc.StartedAt},
		{"total_domains", doc.TotalDomains},
		{"successful_domains", doc.Successful},
		{"error_domains", doc.Errors},
		{"total_orders", doc.TotalOrders},
		{"elapsed_seconds", doc.ElapsedSeconds},
		{"avg_speed", doc.AvgSpeed},
	}
	for i, row := range totals {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileSink writes result files into a directory.
type FileSink struct {
	dir     string
	formats []Format
	logger  zerolog.Logger
}

// NewFileSink creates a sink. No formats means DefaultFormats.
func NewFileSink(dir string, formats ...Format) *FileSink {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	return &FileSink{
		dir:     dir,
		formats: formats,
		logger:  log.With().Str("component", "report").Logger(),
	}
}

// Save writes one file per format named after the run's finish time and
// returns their paths. Already written files are kept when a later one fails.
func (fs *FileSink) Save(s runner.Summary) ([]string, error) {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	stamp := s.FinishedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	base := filepath.Join(fs.dir, BaseName(stamp.Local()))

	var paths []string
	for _, format := range fs.formats {
		var buf bytes.Buffer
		var err error
		switch format {
		case FormatJSON:
			err = WriteJSON(&buf, s)
		case FormatCSV:
			err = WriteCSV(&buf, s)
		case FormatXLSX:
			err = WriteXLSX(&buf, s)
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return paths, err
		}

		path := base + "." + string(format)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		fs.logger.Info().Str("path", path).Int("bytes", buf.Len()).Msg("Results saved")
		paths = append(paths, path)
	}
	return paths, nil
}
