// Package scale provides fitted feature scalers.
//
// A scaler is fit once on training data and then reused, unchanged, on any
// data that must be fed to the same model. Transform and InverseTransform
// return ErrNotFitted until Fit has been called.
package scale

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Supported scaling methods.
const (
	MethodMinMax   = "minmax"
	MethodStandard = "standard"
)

var (
	// ErrNotFitted is returned by Transform and InverseTransform before Fit.
	ErrNotFitted = errors.New("scaler is not fitted")
	// ErrEmpty is returned when fitting on zero rows.
	ErrEmpty = errors.New("cannot fit scaler on empty data")
)

// UnsupportedMethodError reports an unknown scaling method name.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported scaling method: %q (want %q or %q)", e.Method, MethodMinMax, MethodStandard)
}

// WidthError reports a row whose width differs from the fitted width.
type WidthError struct {
	Row, Got, Want int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("row %d has %d columns, scaler was fitted on %d", e.Row, e.Got, e.Want)
}

// Scaler is a fitted, invertible per-column transform.
type Scaler interface {
	Fit(x [][]float64) error
	Transform(x [][]float64) ([][]float64, error)
	InverseTransform(x [][]float64) ([][]float64, error)
	Method() string
}

// New returns an unfitted scaler for method.
func New(method string) (Scaler, error) {
	switch method {
	case MethodMinMax:
		return &MinMax{}, nil
	case MethodStandard:
		return &Standard{}, nil
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}
}

// FitTransform fits s on x and returns the transformed rows.
func FitTransform(s Scaler, x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// Normalize scales x. When fitted is nil a new scaler for method is fit on x;
// otherwise fitted is only applied. The scaler used is returned.
func Normalize(x [][]float64, method string, fitted Scaler) ([][]float64, Scaler, error) {
	if fitted != nil {
		out, err := fitted.Transform(x)
		return out, fitted, err
	}
	s, err := New(method)
	if err != nil {
		return nil, nil, err
	}
	out, err := FitTransform(s, x)
	if err != nil {
		return nil, nil, err
	}
	return out, s, nil
}

// columns copies x into a dense matrix and returns each column as a slice.
func columns(x [][]float64) ([][]float64, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, ErrEmpty
	}
	width := len(x[0])
	data := make([]float64, 0, len(x)*width)
	for i, row := range x {
		if len(row) != width {
			return nil, &WidthError{Row: i, Got: len(row), Want: width}
		}
		data = append(data, row...)
	}
	m := mat.NewDense(len(x), width, data)

	cols := make([][]float64, width)
	for j := range cols {
		cols[j] = mat.Col(nil, j, m)
	}
	return cols, nil
}

// apply maps f over every cell of x, checking the row width.
func apply(x [][]float64, width int, f func(j int, v float64) float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != width {
			return nil, &WidthError{Row: i, Got: len(row), Want: width}
		}
		r := make([]float64, width)
		for j, v := range row {
			r[j] = f(j, v)
		}
		out[i] = r
	}
	return out, nil
}

// present returns the non-NaN values of c. Missing cells are ignored when
// fitting and stay NaN through Transform and InverseTransform.
func present(c []float64) []float64 {
	out := make([]float64, 0, len(c))
	for _, v := range c {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MinMax scales each column to [0, 1]. Constant columns map to 0.
type MinMax struct {
	Min []float64
	Max []float64
}

func (s *MinMax) Method() string { return MethodMinMax }

// Fit records per-column minima and maxima of the non-NaN values. A column
// with no values gets NaN bounds.
func (s *MinMax) Fit(x [][]float64) error {
	cols, err := columns(x)
	if err != nil {
		return err
	}
	s.Min = make([]float64, len(cols))
	s.Max = make([]float64, len(cols))
	for j, c := range cols {
		c = present(c)
		if len(c) == 0 {
			s.Min[j], s.Max[j] = math.NaN(), math.NaN()
			continue
		}
		s.Min[j] = floats.Min(c)
		s.Max[j] = floats.Max(c)
	}
	return nil
}

func (s *MinMax) span(j int) float64 {
	if d := s.Max[j] - s.Min[j]; d != 0 {
		return d
	}
	return 1
}

// Transform maps x into the fitted range.
func (s *MinMax) Transform(x [][]float64) ([][]float64, error) {
	if s.Min == nil {
		return nil, ErrNotFitted
	}
	return apply(x, len(s.Min), func(j int, v float64) float64 {
		return (v - s.Min[j]) / s.span(j)
	})
}

// InverseTransform maps scaled values back to the original units.
func (s *MinMax) InverseTransform(x [][]float64) ([][]float64, error) {
	if s.Min == nil {
		return nil, ErrNotFitted
	}
	return apply(x, len(s.Min), func(j int, v float64) float64 {
		return v*s.span(j) + s.Min[j]
	})
}

// Standard scales each column to zero mean and unit population variance.
// Constant columns use a unit scale.
type Standard struct {
	Mean []float64
	Std  []float64
}

func (s *Standard) Method() string { return MethodStandard }

// Fit records per-column mean and population standard deviation of the
// non-NaN values.
func (s *Standard) Fit(x [][]float64) error {
	cols, err := columns(x)
	if err != nil {
		return err
	}
	s.Mean = make([]float64, len(cols))
	s.Std = make([]float64, len(cols))
	for j, c := range cols {
		c = present(c)
		if len(c) == 0 {
			s.Mean[j], s.Std[j] = math.NaN(), 1
			continue
		}
		n := float64(len(c))
		mean, variance := stat.MeanVariance(c, nil)
		if n > 1 {
			variance *= (n - 1) / n
		} else {
			variance = 0
		}
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

// Transform standardizes x.
func (s *Standard) Transform(x [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	return apply(x, len(s.Mean), func(j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	})
}

// InverseTransform undoes Transform.
func (s *Standard) InverseTransform(x [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	return apply(x, len(s.Mean), func(j int, v float64) float64 {
		return v*s.Std[j] + s.Mean[j]
	})
}
