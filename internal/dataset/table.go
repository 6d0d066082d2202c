// Package dataset loads transaction CSV files and turns them into the
// feature matrices and label vectors consumed by the rest of the pipeline.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/fileutil"
	"github.com/fedfraud/fedfraud/internal/logging"
)

// ErrEmpty is returned for a CSV without a header row.
var ErrEmpty = errors.New("csv file is empty")

// Table is a CSV file held as strings. Header names are unique.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// ReadCSV opens path and parses it. Failures are logged before being returned.
func ReadCSV(path string, logger hclog.Logger) (*Table, error) {
	logger = logging.OrNull(logger)

	f, err := os.Open(path)
	if err != nil {
		logger.Error("error loading data", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	t, err := ParseCSV(f)
	if err != nil {
		logger.Error("error loading data", "path", path, "error", err)
		return nil, err
	}
	logger.Info("data loaded", "path", path, "rows", t.Len(), "columns", len(t.Header))
	return t, nil
}

// ParseCSV reads a header row followed by data rows. Every row must have as
// many fields as the header.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return NewTable(records[0], records[1:])
}

// NewTable builds a table from a header and rows.
func NewTable(header []string, rows [][]string) (*Table, error) {
	t := &Table{
		Header: header,
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		t.Header[i] = name
		t.index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("inconsistent number of columns at row %d: got %d, want %d", i+1, len(row), len(header))
		}
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of a column.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the table has the column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the cells of one column.
func (t *Table) Column(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, &MissingColumnsError{Columns: []string{name}}
	}
	col := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		col[i] = row[j]
	}
	return col, nil
}

// Floats parses a column as numbers. Missing cells become NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, s := range col {
		if IsMissing(s) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse value at row %d, column %q: %w", i+1, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// IsNumeric reports whether every present cell of the column parses as a
// number and at least one cell is present.
func (t *Table) IsNumeric(name string) bool {
	j, ok := t.index[name]
	if !ok {
		return false
	}
	present := 0
	for _, row := range t.Rows {
		s := row[j]
		if IsMissing(s) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return false
		}
		present++
	}
	return present > 0
}

// NumericColumns returns the numeric columns in header order.
func (t *Table) NumericColumns() []string {
	var cols []string
	for _, name := range t.Header {
		if t.IsNumeric(name) {
			cols = append(cols, name)
		}
	}
	return cols
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// MissingCounts returns the number of missing cells per column in header order.
func (t *Table) MissingCounts() []ColumnCount {
	counts := make([]ColumnCount, len(t.Header))
	for j, name := range t.Header {
		counts[j].Column = name
		for _, row := range t.Rows {
			if IsMissing(row[j]) {
				counts[j].Count++
			}
		}
	}
	return counts
}

// WriteCSV writes the header and rows to path, creating its directory.
func (t *Table) WriteCSV(path string) error {
	return writeRecords(path, t.Header, t.Rows)
}

func writeRecords(path string, header []string, rows [][]string) (err error) {
	f, err := fileutil.Create(path)
	if err != nil {
		return err
	}
	defer fileutil.Close(f, &err)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// IsMissing reports whether a cell holds no value.
func IsMissing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL":
		return true
	}
	return false
}
