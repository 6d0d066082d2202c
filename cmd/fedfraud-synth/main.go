// Package main - Generate a synthetic transactions CSV with the columns the
// other fedfraud tools expect.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fedfraud-synth", flag.ContinueOnError)
	fs.SetOutput(stdout)
	rows := fs.Int("rows", 1000, "Number of transactions")
	fraudRate := fs.Float64("fraud_rate", 0.05, "Expected fraction of fraudulent transactions")
	seed := fs.Int64("seed", 42, "Random seed")
	out := fs.String("out", "data/synthetic_transactions.csv", "Output CSV file")
	logLevel := fs.String("log_level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Name: "fedfraud-synth", Level: *logLevel})
	if err != nil {
		return err
	}
	defer closer.Close()

	switch {
	case *rows < 1:
		err = fmt.Errorf("--rows must be positive, got %d", *rows)
	case *fraudRate < 0 || *fraudRate > 1:
		err = fmt.Errorf("--fraud_rate must be in [0, 1], got %v", *fraudRate)
	case *out == "":
		err = errors.New("--out is required")
	}
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		return err
	}

	t := dataset.Synthesize(*rows, *fraudRate, *seed)
	if err := t.WriteCSV(*out); err != nil {
		logger.Error("writing dataset", "path", *out, "error", err)
		return err
	}

	y, _ := t.Labels(dataset.ColIsFraud)
	logger.Info("dataset written", "path", *out, "rows", t.Len(), "fraud_rate", dataset.PositiveRate(y))
	fmt.Fprintf(stdout, "Wrote %d transactions to %s\n", t.Len(), *out)
	return nil
}
