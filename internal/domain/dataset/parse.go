package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxFileBytes bounds how much of an upload is read.
const MaxFileBytes = 20 << 20

// Parse reads a .csv or .xlsx upload into headers and rows. The first
// non-empty row is the header row.
func Parse(fileName string, r io.Reader) (*Parsed, error) {
	limited := &io.LimitedReader{R: r, N: MaxFileBytes + 1}

	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		records, err = readCSV(limited)
	case ".xlsx", ".xlsm":
		records, err = readXLSX(limited)
	default:
		return nil, &ParseError{FileName: fileName, Err: ErrUnsupportedFormat}
	}
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}
	if limited.N <= 0 {
		return nil, &ParseError{FileName: fileName, Err: fmt.Errorf("%w: file exceeds %d bytes", ErrMalformed, MaxFileBytes)}
	}

	parsed, err := fromRecords(records)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}
	return parsed, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rows, nil
}

func fromRecords(records [][]string) (*Parsed, error) {
	start := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformed)
	}

	headers := make([]string, 0, len(records[start]))
	for i, h := range records[start] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers = append(headers, h)
	}

	rows := make([][]string, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if blankRecord(rec) {
			continue
		}
		row := make([]string, len(headers))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}

	return &Parsed{
		Headers:  headers,
		Rows:     rows,
		RowCount: len(rows),
		Summary:  Summarize(headers, rows),
	}, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Summarize builds a one-paragraph description of the data: row and column
// counts, column names, and min/max/sum for numeric columns.
func Summarize(headers []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d columns: %s.", len(rows), len(headers), strings.Join(headers, ", "))

	var numeric []string
	for col, name := range headers {
		stats, ok := numericStats(rows, col)
		if !ok {
			continue
		}
		numeric = append(numeric, fmt.Sprintf("%s min=%s max=%s sum=%s",
			name, formatNumber(stats.min), formatNumber(stats.max), formatNumber(stats.sum)))
	}
	if len(numeric) > 0 {
		b.WriteString(" Numeric: ")
		b.WriteString(strings.Join(numeric, "; "))
		b.WriteString(".")
	}
	return b.String()
}

type colStats struct {
	min, max, sum float64
}

func numericStats(rows [][]string, col int) (colStats, bool) {
	var stats colStats
	seen := 0
	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		v, err := parseNumber(row[col])
		if err != nil {
			return colStats{}, false
		}
		if seen == 0 || v < stats.min {
			stats.min = v
		}
		if seen == 0 || v > stats.max {
			stats.max = v
		}
		stats.sum += v
		seen++
	}
	return stats, seen > 0
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, errors.New("empty")
	}
	return strconv.ParseFloat(s, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
