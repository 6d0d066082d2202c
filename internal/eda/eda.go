// Package eda computes exploratory statistics over a transactions table.
package eda

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/fedfraud/fedfraud/internal/dataset"
)

// ColumnSummary describes one column. Numeric columns fill the moment and
// quantile fields; other columns fill Unique, Top and Freq.
type ColumnSummary struct {
	Column  string
	Numeric bool
	Count   int

	Unique int
	Top    string
	Freq   int

	Mean, Std          float64
	Min, Q25, Q50, Q75 float64
	Max                float64
}

// Summary describes every column of t in header order.
func Summary(t *dataset.Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.Header))
	for _, name := range t.Header {
		cells, _ := t.Column(name)
		s := ColumnSummary{Column: name}
		if t.IsNumeric(name) {
			vals, _ := t.Floats(name)
			describeNumeric(&s, vals)
		} else {
			describeCategorical(&s, cells)
		}
		out = append(out, s)
	}
	return out
}

func describeNumeric(s *ColumnSummary, vals []float64) {
	s.Numeric = true
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	s.Count = len(present)
	slices.Sort(present)

	s.Mean, s.Std = stat.MeanStdDev(present, nil)
	s.Min = present[0]
	s.Max = present[len(present)-1]
	s.Q25 = stat.Quantile(0.25, stat.LinInterp, present, nil)
	s.Q50 = stat.Quantile(0.5, stat.LinInterp, present, nil)
	s.Q75 = stat.Quantile(0.75, stat.LinInterp, present, nil)
}

func describeCategorical(s *ColumnSummary, cells []string) {
	counts := make(map[string]int)
	var order []string
	for _, c := range cells {
		if dataset.IsMissing(c) {
			continue
		}
		s.Count++
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	s.Unique = len(order)
	for _, c := range order {
		if counts[c] > s.Freq {
			s.Top, s.Freq = c, counts[c]
		}
	}
}

// Fraud holds the headline fraud numbers of a table.
type Fraud struct {
	Total int
	Fraud int
	// Rate is the fraud share in [0, 1].
	Rate float64
}

// FraudStats counts fraudulent rows.
func FraudStats(t *dataset.Table) (Fraud, error) {
	y, err := t.Labels(dataset.ColIsFraud)
	if err != nil {
		return Fraud{}, err
	}
	f := Fraud{Total: len(y)}
	for _, v := range y {
		if v == 1 {
			f.Fraud++
		}
	}
	if f.Total > 0 {
		f.Rate = float64(f.Fraud) / float64(f.Total)
	}
	return f, nil
}

// GroupRate is the fraud rate of one value of a grouping column.
type GroupRate struct {
	Group string
	Count int
	Rate  float64
}

// FraudRateBy returns the mean of is_fraud per distinct value of column,
// ordered by group name.
func FraudRateBy(t *dataset.Table, column string) ([]GroupRate, error) {
	groups, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	y, err := t.Labels(dataset.ColIsFraud)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []GroupRate
	for i, g := range groups {
		j, ok := index[g]
		if !ok {
			j = len(out)
			index[g] = j
			out = append(out, GroupRate{Group: g})
		}
		out[j].Count++
		out[j].Rate += y[i]
	}
	for i := range out {
		out[i].Rate /= float64(out[i].Count)
	}
	slices.SortFunc(out, func(a, b GroupRate) int { return strings.Compare(a.Group, b.Group) })
	return out, nil
}

// HighRiskLocations returns the fraud rate per location, highest first.
func HighRiskLocations(t *dataset.Table) ([]GroupRate, error) {
	rates, err := FraudRateBy(t, dataset.ColLocation)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rates, func(a, b GroupRate) int {
		switch {
		case a.Rate > b.Rate:
			return -1
		case a.Rate < b.Rate:
			return 1
		}
		return 0
	})
	return rates, nil
}

// GroupCount is a number of rows for one value of a grouping column.
type GroupCount struct {
	Group string
	Count int
}

// TopUsersByFraud returns up to n users with the most fraudulent
// transactions, most first. Ties are ordered by user id.
func TopUsersByFraud(t *dataset.Table, n int) ([]GroupCount, error) {
	users, err := t.Column(dataset.ColUserID)
	if err != nil {
		return nil, err
	}
	y, err := t.Labels(dataset.ColIsFraud)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i, u := range users {
		if y[i] == 1 {
			counts[u]++
		}
	}
	out := make([]GroupCount, 0, len(counts))
	for u, c := range counts {
		out = append(out, GroupCount{Group: u, Count: c})
	}
	slices.SortFunc(out, func(a, b GroupCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Group, b.Group)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// String formats a fraud summary for display.
func (f Fraud) String() string {
	return fmt.Sprintf("Total Transactions: %d\nFraudulent Transactions: %d\nFraud Rate: %.2f%%", f.Total, f.Fraud, f.Rate*100)
}
