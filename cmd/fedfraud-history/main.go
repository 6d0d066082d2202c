// Package main - List the training runs recorded by fedfraud-train, or show
// the metrics and per-round results of one run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fedfraud/fedfraud/internal/history"
	"github.com/fedfraud/fedfraud/internal/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fedfraud-history", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "", "Run history database written by fedfraud-train --history (required)")
	runID := fs.String("run", "", "Show the metrics and rounds of this run")
	logLevel := fs.String("log_level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Name: "fedfraud-history", Level: *logLevel})
	if err != nil {
		return err
	}
	defer closer.Close()

	if *dbPath == "" {
		fs.Usage()
		err := errors.New("--db is required")
		logger.Error("invalid arguments", "error", err)
		return err
	}
	if _, err := os.Stat(*dbPath); err != nil {
		err = fmt.Errorf("history database not found: %s: %w", *dbPath, err)
		logger.Error("opening history", "error", err)
		return err
	}

	store, err := history.Open(ctx, *dbPath)
	if err != nil {
		logger.Error("opening history", "path", *dbPath, "error", err)
		return err
	}
	defer store.Close()

	if *runID != "" {
		err = showRun(ctx, store, *runID, stdout)
	} else {
		err = listRuns(ctx, store, stdout)
	}
	if err != nil {
		logger.Error("reading history", "error", err)
	}
	return err
}

func listRuns(ctx context.Context, store *history.Store, w io.Writer) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tSTATUS\tSTARTED\tDURATION\tF1\tROC AUC")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Mode, r.Status, r.StartedAt.Format(time.DateTime), duration(r),
			metric(r.Metrics, "f1_score"), metric(r.Metrics, "roc_auc"))
	}
	return tw.Flush()
}

func showRun(ctx context.Context, store *history.Store, id string, w io.Writer) error {
	r, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Run:      %s\n", r.ID)
	fmt.Fprintf(w, "Mode:     %s\n", r.Mode)
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	fmt.Fprintf(w, "Started:  %s\n", r.StartedAt.Format(time.DateTime))
	fmt.Fprintf(w, "Duration: %s\n", duration(r))
	if r.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", r.Error)
	}

	if len(r.Metrics) > 0 {
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "\nMetrics:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(tw, "  %s\t%.4f\n", name, r.Metrics[name])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	rounds, err := store.Rounds(ctx, id)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nRounds:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ROUND\tCLIENTS\tSAMPLES\tCLIENT LOSS\tGLOBAL LOSS\tGLOBAL ACC\tDURATION\t")
	for _, rr := range rounds {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%s\t\n",
			rr.Round, rr.Clients, rr.Samples, rr.ClientLoss, rr.GlobalLoss, rr.GlobalAccuracy, rr.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}

func duration(r *history.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func metric(m map[string]float64, name string) string {
	v, ok := m[name]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}
