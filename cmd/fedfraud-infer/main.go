// Package main - Score transactions with a trained fraud model, either a
// list of amounts or a whole CSV file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/logging"
	"github.com/fedfraud/fedfraud/internal/metrics"
	"github.com/fedfraud/fedfraud/internal/net"
	"github.com/fedfraud/fedfraud/internal/scale"
)

// Columns of the predictions file.
const (
	ColProbability = "fraud_probability"
	ColPrediction  = "prediction"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

type options struct {
	model     string
	scaler    string
	encoders  string
	csv       string
	features  []string
	threshold float64
	save      string
	amounts   []float64
}

func parse(args []string, stdout io.Writer) (*options, string, error) {
	fs := flag.NewFlagSet("fedfraud-infer", flag.ContinueOnError)
	fs.SetOutput(stdout)
	modelPath := fs.String("model", "models/fraud_model.gob", "Trained model file")
	scalerPath := fs.String("scaler", "", "Fitted scaler file")
	encodersPath := fs.String("encoders", "", "Label encoders saved at training time")
	csvPath := fs.String("csv", "", "Transactions CSV to score")
	features := fs.String("features", strings.Join(dataset.DefaultFeatures, ","), "Comma-separated feature columns")
	threshold := fs.Float64("threshold", metrics.DefaultThreshold, "Decision threshold")
	save := fs.String("save", "", "Write predictions to this CSV file")
	amounts := fs.String("amounts", "120,5000,75.5", "Comma-separated amounts to score when no CSV is given")
	logLevel := fs.String("log_level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	o := &options{
		model:     *modelPath,
		scaler:    *scalerPath,
		encoders:  *encodersPath,
		csv:       *csvPath,
		features:  splitList(*features),
		threshold: *threshold,
		save:      *save,
	}
	if len(o.features) == 0 {
		return nil, *logLevel, errors.New("--features must name at least one column")
	}
	if o.threshold <= 0 || o.threshold >= 1 {
		return nil, *logLevel, fmt.Errorf("--threshold must be in (0, 1), got %v", o.threshold)
	}
	for _, s := range splitList(*amounts) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, *logLevel, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		o.amounts = append(o.amounts, v)
	}
	return o, *logLevel, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(args []string, stdout io.Writer) error {
	o, level, err := parse(args, stdout)
	if err != nil && o == nil && level == "" {
		return err
	}

	logger, closer, lerr := logging.New(logging.Options{Name: "fedfraud-infer", Level: level})
	if lerr != nil {
		return lerr
	}
	defer closer.Close()
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		return err
	}

	if err := infer(o, logger, stdout); err != nil {
		logger.Error("inference failed", "error", err)
		return err
	}
	return nil
}

func infer(o *options, logger hclog.Logger, stdout io.Writer) error {
	model, err := net.Load(o.model)
	if err != nil {
		return err
	}
	if in := model.Layers()[0].InSize(); in != len(o.features) {
		return fmt.Errorf("model expects %d features, got %d (%s)", in, len(o.features), strings.Join(o.features, ","))
	}
	logger.Info("model loaded", "path", o.model, "params", model.NumParams())

	var scaler scale.Scaler
	if o.scaler != "" {
		if scaler, err = scale.Load(o.scaler); err != nil {
			return err
		}
		logger.Info("scaler loaded", "path", o.scaler, "method", scaler.Method())
	}

	if o.csv != "" {
		return scoreCSV(o, model, scaler, logger, stdout)
	}
	return scoreAmounts(o, model, scaler, stdout)
}

// scoreAmounts scores one synthetic transaction per amount. Features other
// than amount are held at zero after scaling, which is the training mean
// for a standard scaler.
func scoreAmounts(o *options, model *net.Network, scaler scale.Scaler, stdout io.Writer) error {
	col := -1
	for j, f := range o.features {
		if f == dataset.ColAmount {
			col = j
		}
	}
	if col < 0 {
		return fmt.Errorf("--amounts needs %q among the features", dataset.ColAmount)
	}
	if len(o.amounts) == 0 {
		return errors.New("no amounts to score")
	}

	x := make([][]float64, len(o.amounts))
	for i, a := range o.amounts {
		x[i] = make([]float64, len(o.features))
		x[i][col] = a
	}
	if scaler != nil {
		scaled, err := scaler.Transform(x)
		if err != nil {
			return err
		}
		for i := range scaled {
			for j := range scaled[i] {
				if j != col {
					scaled[i][j] = 0
				}
			}
		}
		x = scaled
	}

	for i, p := range model.PredictProba(x) {
		fmt.Fprintf(stdout, "Transaction: $%.2f -> Fraud Probability: %.4f\n", o.amounts[i], p)
	}
	return nil
}

func scoreCSV(o *options, model *net.Network, scaler scale.Scaler, logger hclog.Logger, stdout io.Writer) error {
	t, err := dataset.ReadCSV(o.csv, logger.Named("dataset"))
	if err != nil {
		return err
	}
	var encoders map[string]*dataset.LabelEncoder
	if o.encoders != "" {
		if encoders, err = dataset.LoadEncoders(o.encoders); err != nil {
			return err
		}
		logger.Info("encoders loaded", "path", o.encoders, "columns", len(encoders))
	}
	prep, err := dataset.WithScaler(t, o.features, scaler, encoders, logger.Named("dataset"))
	if err != nil {
		return err
	}
	x, err := prep.Transform(t)
	if err != nil {
		return err
	}
	probs := model.PredictProba(x)

	flagged := 0
	for _, p := range probs {
		if p >= o.threshold {
			flagged++
		}
	}
	fmt.Fprintf(stdout, "Scored %d transactions, %d flagged as fraud (threshold %.2f)\n", len(probs), flagged, o.threshold)

	if t.Has(dataset.ColIsFraud) {
		y, err := t.Labels(dataset.ColIsFraud)
		if err != nil {
			return err
		}
		report, err := metrics.FromScores(y, probs, o.threshold)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "=== Classification Report ===")
		fmt.Fprintln(stdout, metrics.ClassificationReport(report.YTrue, report.YPred))
		metrics.Log(logger, "Inference", report.Metrics())
	}

	if o.save != "" {
		if err := savePredictions(t, probs, o.threshold, o.save); err != nil {
			return err
		}
		logger.Info("predictions saved", "path", o.save)
	}
	return nil
}

// savePredictions writes the transaction id (when present), the fraud
// probability and the thresholded prediction of every row.
func savePredictions(t *dataset.Table, probs []float64, threshold float64, path string) error {
	ids, _ := t.Column(dataset.ColTransactionID)

	header := []string{ColProbability, ColPrediction}
	if ids != nil {
		header = append([]string{dataset.ColTransactionID}, header...)
	}
	rows := make([][]string, len(probs))
	for i, p := range probs {
		pred := "0"
		if p >= threshold {
			pred = "1"
		}
		row := []string{strconv.FormatFloat(p, 'f', 6, 64), pred}
		if ids != nil {
			row = append([]string{ids[i]}, row...)
		}
		rows[i] = row
	}

	out, err := dataset.NewTable(header, rows)
	if err != nil {
		return err
	}
	return out.WriteCSV(path)
}
