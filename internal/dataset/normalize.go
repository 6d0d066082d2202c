package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/logging"
	"github.com/fedfraud/fedfraud/internal/scale"
)

// ErrNoNumericColumns is returned when a file has nothing to scale.
var ErrNoNumericColumns = errors.New("no numeric columns")

// NormalizeCSV scales every numeric column of the input file and writes only
// those columns to output. Missing cells are ignored by the fit and written
// back empty. The fitted scaler is returned.
func NormalizeCSV(input, output, method string, logger hclog.Logger) (scale.Scaler, error) {
	logger = logging.OrNull(logger)

	s, err := scale.New(method)
	if err != nil {
		return nil, err
	}
	t, err := ReadCSV(input, logger)
	if err != nil {
		return nil, err
	}

	cols := t.NumericColumns()
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: %w", input, ErrNoNumericColumns)
	}
	x := make([][]float64, t.Len())
	for i := range x {
		x[i] = make([]float64, len(cols))
	}
	for j, name := range cols {
		vals, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			x[i][j] = v
		}
	}

	scaled, err := scale.FitTransform(s, x)
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(output, cols, scaled); err != nil {
		return nil, err
	}
	logger.Info("normalized data saved", "path", output, "method", method, "columns", len(cols))
	return s, nil
}

func writeMatrix(path string, header []string, x [][]float64) error {
	rows := make([][]string, len(x))
	for i, row := range x {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			rows[i][j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return writeRecords(path, header, rows)
}
