package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/fileutil"
	"github.com/fedfraud/fedfraud/internal/logging"
)

// Export formats accepted by Save.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// UnsupportedFormatError reports an unknown export format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: use %q or %q", e.Format, FormatJSON, FormatCSV)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Log writes every metric as a structured field of one log line.
func Log(logger hclog.Logger, prefix string, metrics map[string]float64) {
	args := make([]interface{}, 0, 2*len(metrics))
	for _, k := range sortedKeys(metrics) {
		args = append(args, k, metrics[k])
	}
	msg := "metrics"
	if prefix != "" {
		msg = prefix + " metrics"
	}
	logging.OrNull(logger).Info(msg, args...)
}

// Save writes metrics to path as JSON or as a Metric,Value CSV. The parent
// directory is created if needed.
func Save(metrics map[string]float64, path, format string) (err error) {
	if format != FormatJSON && format != FormatCSV {
		return &UnsupportedFormatError{Format: format}
	}
	f, err := fileutil.Create(path)
	if err != nil {
		return err
	}
	defer fileutil.Close(f, &err)

	if format == FormatJSON {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "    ")
		return enc.Encode(metrics)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	for _, k := range sortedKeys(metrics) {
		if err := w.Write([]string{k, strconv.FormatFloat(metrics[k], 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ClassificationReport renders per-class precision, recall, F1 and support
// followed by accuracy, macro and weighted averages.
func ClassificationReport(yTrue, yPred []int) string {
	c := NewConfusion(yTrue, yPred)
	// Class 0 is scored by swapping the roles of positives and negatives.
	neg := Confusion{TN: c.TP, FP: c.FN, FN: c.FP, TP: c.TN}

	type row struct {
		name             string
		p, r, f, support float64
	}
	classes := []row{
		{"0", neg.Precision(), neg.Recall(), neg.F1(), float64(c.TN + c.FP)},
		{"1", c.Precision(), c.Recall(), c.F1(), float64(c.TP + c.FN)},
	}
	total := float64(c.Total())

	var macro, weighted row
	for _, cl := range classes {
		macro.p += cl.p / 2
		macro.r += cl.r / 2
		macro.f += cl.f / 2
		if total > 0 {
			weighted.p += cl.p * cl.support / total
			weighted.r += cl.r * cl.support / total
			weighted.f += cl.f * cl.support / total
		}
	}

	const width = len("weighted avg")
	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, cl := range classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, cl.name, cl.p, cl.r, cl.f, int(cl.support))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", c.Accuracy(), c.Total())
	fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, "macro avg", macro.p, macro.r, macro.f, c.Total())
	fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, "weighted avg", weighted.p, weighted.r, weighted.f, c.Total())
	return b.String()
}
