package eda

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/fileutil"
)

// AmountBins is the number of bins of the amount histogram.
const AmountBins = 30

// Chart series file names written by WriteCharts.
const (
	FraudDistributionFile  = "fraud_distribution.csv"
	AmountDistributionFile = "amount_distribution.csv"
	DailyTransactionsFile  = "daily_transactions.csv"
)

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo, Hi float64
	Count  int
}

// AmountHistogram buckets the amount column into bins equal-width bins.
func AmountHistogram(t *dataset.Table, bins int) ([]Bin, error) {
	vals, err := t.Floats(dataset.ColAmount)
	if err != nil {
		return nil, err
	}
	x := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	if len(x) == 0 || bins < 1 {
		return nil, nil
	}
	slices.Sort(x)

	lo, hi := x[0], x[len(x)-1]
	if hi == lo {
		hi = lo + 1
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// The top divider is exclusive; nudge it so the maximum lands in the last bin.
	dividers[bins] = math.Nextafter(dividers[bins], math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	return out, nil
}

// WriteCharts writes the data behind the fraud distribution, amount
// distribution and daily volume charts as CSV files in dir.
func WriteCharts(t *dataset.Table, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := FraudStats(t)
	if err != nil {
		return nil, err
	}
	hist, err := AmountHistogram(t, AmountBins)
	if err != nil {
		return nil, err
	}
	daily, err := DailyVolume(t)
	if err != nil {
		return nil, err
	}

	var written []string
	write := func(name string, records [][]string) error {
		path := filepath.Join(dir, name)
		if err := writeCSV(path, records); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if err := write(FraudDistributionFile, [][]string{
		{"label", "count"},
		{"Legit", strconv.Itoa(f.Total - f.Fraud)},
		{"Fraud", strconv.Itoa(f.Fraud)},
	}); err != nil {
		return written, err
	}

	records := [][]string{{"bin_start", "bin_end", "count"}}
	for _, b := range hist {
		records = append(records, []string{formatFloat(b.Lo), formatFloat(b.Hi), strconv.Itoa(b.Count)})
	}
	if err := write(AmountDistributionFile, records); err != nil {
		return written, err
	}

	records = [][]string{{"date", "transactions"}}
	for _, d := range daily {
		records = append(records, []string{d.Day.Format("2006-01-02"), strconv.Itoa(d.Count)})
	}
	if err := write(DailyTransactionsFile, records); err != nil {
		return written, err
	}
	return written, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeCSV(path string, records [][]string) (err error) {
	f, err := fileutil.Create(path)
	if err != nil {
		return err
	}
	defer fileutil.Close(f, &err)

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
