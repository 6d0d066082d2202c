package dataset

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/logging"
	"github.com/fedfraud/fedfraud/internal/scale"
)

// Preprocessor holds the transforms fitted by Prepare so the same encoding
// and scaling can be applied to later data.
type Preprocessor struct {
	Features []string
	Target   string
	Encoders map[string]*LabelEncoder
	Scaler   scale.Scaler
}

// Prepare validates the table, label-encodes non-numeric feature columns,
// standard-scales the features and parses the target.
func Prepare(t *Table, features []string, target string, logger hclog.Logger) ([][]float64, []float64, *Preprocessor, error) {
	logger = logging.OrNull(logger)

	if err := t.Validate(append(append([]string{}, features...), target)...); err != nil {
		return nil, nil, nil, err
	}

	p := &Preprocessor{Features: features, Target: target}
	p.fitEncoders(t, logger)

	raw, err := p.matrix(t)
	if err != nil {
		return nil, nil, nil, err
	}
	y, err := t.Labels(target)
	if err != nil {
		return nil, nil, nil, err
	}

	p.Scaler = &scale.Standard{}
	x, err := scale.FitTransform(p.Scaler, raw)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to scale features: %w", err)
	}
	logger.Info("features scaled", "rows", len(x), "features", len(features))
	return x, y, p, nil
}

// WithScaler returns a Preprocessor for scoring t with an already fitted
// scaler and the label encoders saved at training time. A non-numeric
// feature column without a saved encoder is label-encoded from t itself.
func WithScaler(t *Table, features []string, s scale.Scaler, encoders map[string]*LabelEncoder, logger hclog.Logger) (*Preprocessor, error) {
	if err := t.Validate(features...); err != nil {
		return nil, err
	}
	logger = logging.OrNull(logger)

	p := &Preprocessor{Features: features, Scaler: s, Encoders: make(map[string]*LabelEncoder)}
	for _, col := range features {
		if enc, ok := encoders[col]; ok {
			p.Encoders[col] = enc
			continue
		}
		if t.IsNumeric(col) {
			continue
		}
		p.fitEncoder(t, col, logger)
		logger.Warn("no saved encoder, fitted on scoring data", "column", col)
	}
	return p, nil
}

func (p *Preprocessor) fitEncoders(t *Table, logger hclog.Logger) {
	p.Encoders = make(map[string]*LabelEncoder)
	for _, col := range p.Features {
		if !t.IsNumeric(col) {
			p.fitEncoder(t, col, logger)
		}
	}
}

func (p *Preprocessor) fitEncoder(t *Table, col string, logger hclog.Logger) {
	cells, _ := t.Column(col)
	enc := &LabelEncoder{}
	enc.Fit(cells)
	p.Encoders[col] = enc
	logger.Info("encoded column", "column", col, "classes", len(enc.Classes))
}

// Transform applies the fitted encoders and scaler to another table.
func (p *Preprocessor) Transform(t *Table) ([][]float64, error) {
	if err := t.Validate(p.Features...); err != nil {
		return nil, err
	}
	raw, err := p.matrix(t)
	if err != nil {
		return nil, err
	}
	if p.Scaler == nil {
		return raw, nil
	}
	return p.Scaler.Transform(raw)
}

// matrix assembles the unscaled feature rows.
func (p *Preprocessor) matrix(t *Table) ([][]float64, error) {
	cols := make([][]float64, len(p.Features))
	for j, name := range p.Features {
		var (
			vals []float64
			err  error
		)
		if enc, ok := p.Encoders[name]; ok {
			cells, _ := t.Column(name)
			vals, err = enc.Transform(cells)
		} else {
			vals, err = t.Floats(name)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("column %q row %d: missing value", name, i+1)
			}
		}
		cols[j] = vals
	}

	x := make([][]float64, t.Len())
	for i := range x {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		x[i] = row
	}
	return x, nil
}
