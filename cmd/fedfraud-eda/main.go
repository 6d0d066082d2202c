// Package main - Exploratory analysis of a transactions CSV.
// Prints summary statistics, fraud statistics and risk breakdowns, and
// writes the data behind the standard charts as CSV files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/eda"
	"github.com/fedfraud/fedfraud/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fedfraud-eda", flag.ContinueOnError)
	fs.SetOutput(stdout)
	csvPath := fs.String("csv", "data/synthetic_data.csv", "Transactions CSV file")
	summary := fs.Bool("summary", false, "Show data summary")
	fraud := fs.Bool("fraud", false, "Show fraud statistics")
	charts := fs.Bool("charts", false, "Write chart data as CSV")
	risks := fs.Bool("risks", false, "Show risk analysis")
	outDir := fs.String("out", "docs", "Directory for chart data")
	topN := fs.Int("top", 5, "Number of users in the top fraud list")
	logLevel := fs.String("log_level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Name: "fedfraud-eda", Level: *logLevel})
	if err != nil {
		return err
	}
	defer closer.Close()

	// No action prints the usage and succeeds.
	if !*summary && !*fraud && !*charts && !*risks {
		fs.Usage()
		return nil
	}

	t, err := dataset.ReadCSV(*csvPath, logger)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		logger.Error("analysis failed", "error", err)
		return err
	}

	if *summary {
		fmt.Fprintln(stdout, "=== Summary Statistics ===")
		if err := eda.PrintSummary(stdout, eda.Summary(t)); err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout, "\nMissing Values:")
		if err := eda.PrintMissing(stdout, t.MissingCounts()); err != nil {
			return fail(err)
		}
	}

	if *fraud {
		f, err := eda.FraudStats(t)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "\n%s\n", f)
	}

	if *charts {
		paths, err := eda.WriteCharts(t, *outDir)
		if err != nil {
			return fail(err)
		}
		for _, p := range paths {
			logger.Info("chart data written", "path", p)
		}
	}

	if *risks {
		byType, err := eda.FraudRateBy(t, dataset.ColTransactionType)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout)
		eda.PrintGroupRates(stdout, "Fraud Rate by Transaction Type:", byType)

		locations, err := eda.HighRiskLocations(t)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout)
		eda.PrintGroupRates(stdout, "High Risk Locations (by fraud rate):", locations)

		users, err := eda.TopUsersByFraud(t, *topN)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout)
		eda.PrintGroupCounts(stdout, fmt.Sprintf("Top %d Users with Most Fraudulent Transactions:", *topN), users)
	}
	return nil
}
