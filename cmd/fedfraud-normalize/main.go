// Package main - Normalize the numeric columns of a CSV file with a min-max
// or standard scaler, optionally saving the fitted scaler.
package main

import (
	"errors"
	"flag"
	"io"
	"os"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/logging"
	"github.com/fedfraud/fedfraud/internal/scale"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fedfraud-normalize", flag.ContinueOnError)
	fs.SetOutput(stdout)
	input := fs.String("input", "", "Input CSV file (required)")
	output := fs.String("output", "normalized_output.csv", "Output CSV file")
	method := fs.String("method", scale.MethodMinMax, "Scaling method: minmax or standard")
	scalerPath := fs.String("save_scaler", "", "Path to save the fitted scaler")
	logLevel := fs.String("log_level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Name: "fedfraud-normalize", Level: *logLevel})
	if err != nil {
		return err
	}
	defer closer.Close()

	if *input == "" {
		fs.Usage()
		err := errors.New("--input is required")
		logger.Error("invalid arguments", "error", err)
		return err
	}

	s, err := dataset.NormalizeCSV(*input, *output, *method, logger)
	if err != nil {
		logger.Error("normalization failed", "error", err)
		return err
	}

	if *scalerPath != "" {
		if err := scale.Save(s, *scalerPath); err != nil {
			logger.Error("saving scaler", "path", *scalerPath, "error", err)
			return err
		}
		logger.Info("scaler saved", "path", *scalerPath)
	}
	return nil
}
