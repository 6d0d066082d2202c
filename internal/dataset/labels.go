package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNonBinaryLabel is returned when a label is not 0 or 1.
var ErrNonBinaryLabel = errors.New("label is not binary")

// Labels parses the target column as 0/1 values.
func (t *Table) Labels(target string) ([]float64, error) {
	col, err := t.Column(target)
	if err != nil {
		return nil, err
	}
	y := make([]float64, len(col))
	for i, s := range col {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || (v != 0 && v != 1) {
			return nil, fmt.Errorf("row %d, column %q, value %q: %w", i+1, target, s, ErrNonBinaryLabel)
		}
		y[i] = v
	}
	return y, nil
}

// PositiveRate returns the share of labels equal to 1, or 0 for no labels.
func PositiveRate(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	return float64(pos) / float64(len(y))
}
