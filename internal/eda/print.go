package eda

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fedfraud/fedfraud/internal/dataset"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// PrintSummary writes summaries as an aligned table, one row per column.
func PrintSummary(w io.Writer, summaries []ColumnSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tunique\ttop\tfreq\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, s := range summaries {
		if s.Numeric {
			fmt.Fprintf(tw, "%s\t%d\t\t\t\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t\t\t\t\t\t\t\t\n", s.Column, s.Count, s.Unique, s.Top, s.Freq)
	}
	return tw.Flush()
}

// PrintMissing writes the missing-value count of each column.
func PrintMissing(w io.Writer, counts []dataset.ColumnCount) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Column, c.Count)
	}
	return tw.Flush()
}

// PrintGroupRates writes one group and its fraud rate per line.
func PrintGroupRates(w io.Writer, title string, rates []GroupRate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, title)
	for _, r := range rates {
		fmt.Fprintf(tw, "%s\t%s\n", r.Group, num(r.Rate))
	}
	return tw.Flush()
}

// PrintGroupCounts writes one group and its count per line.
func PrintGroupCounts(w io.Writer, title string, counts []GroupCount) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, title)
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Group, c.Count)
	}
	return tw.Flush()
}
