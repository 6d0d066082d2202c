package dataset

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEncoderNotFitted is returned by a LabelEncoder used before Fit.
var ErrEncoderNotFitted = errors.New("label encoder is not fitted")

// LabelEncoder maps category strings to integer codes. Classes are sorted so
// the encoding does not depend on row order.
type LabelEncoder struct {
	Classes []string

	codes map[string]int
}

// Fit learns the distinct categories in values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{})
	e.Classes = make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			e.Classes = append(e.Classes, v)
		}
	}
	slices.Sort(e.Classes)
	e.index()
}

func (e *LabelEncoder) index() {
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.codes[c] = i
	}
}

// Transform encodes values. Unknown categories are an error.
func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	if e.Classes == nil {
		return nil, ErrEncoderNotFitted
	}
	if e.codes == nil {
		e.index()
	}
	out := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.codes[v]
		if !ok {
			return nil, fmt.Errorf("row %d: unseen label %q", i+1, v)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// FitTransform fits on values and encodes them.
func (e *LabelEncoder) FitTransform(values []string) []float64 {
	e.Fit(values)
	out, _ := e.Transform(values)
	return out
}

// InverseTransform decodes integer codes back to categories.
func (e *LabelEncoder) InverseTransform(codes []float64) ([]string, error) {
	if e.Classes == nil {
		return nil, ErrEncoderNotFitted
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		k := int(c)
		if float64(k) != c || k < 0 || k >= len(e.Classes) {
			return nil, fmt.Errorf("code %v out of range", c)
		}
		out[i] = e.Classes[k]
	}
	return out, nil
}
