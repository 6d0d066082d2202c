// Package layer provides unit tests for neural network layers.
package layer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/fedfraud/fedfraud/internal/activations"
)

// TestDenseForward tests forward pass with identity weights.
func TestDenseForward(t *testing.T) {
	d := NewDense(2, 2, activations.Tanh{})

	d.SetWeight(0, 0, 1.0)
	d.SetWeight(0, 1, 0.0)
	d.SetWeight(1, 0, 0.0)
	d.SetWeight(1, 1, 1.0)
	d.SetBias(0, 0.0)
	d.SetBias(1, 0.0)

	output := d.Forward([]float64{1.0, 2.0})

	if math.Abs(output[0]-math.Tanh(1.0)) > 1e-9 {
		t.Errorf("output[0] = %v, want %v", output[0], math.Tanh(1.0))
	}
	if math.Abs(output[1]-math.Tanh(2.0)) > 1e-9 {
		t.Errorf("output[1] = %v, want %v", output[1], math.Tanh(2.0))
	}
}

// TestDenseBackwardNumeric checks weight gradients against central differences
// of a scalar objective sum(output).
func TestDenseBackwardNumeric(t *testing.T) {
	d := NewDenseRand(3, 2, activations.Sigmoid{}, rand.New(rand.NewSource(1)))
	x := []float64{0.3, -1.2, 0.8}

	objective := func() float64 {
		out := d.Forward(x)
		return out[0] + out[1]
	}

	d.ZeroGrad()
	d.Forward(x)
	d.Backward([]float64{1, 1})
	analytic := d.Gradients()

	params := d.Params()
	const h = 1e-6
	for i := range params {
		orig := params[i]
		params[i] = orig + h
		d.SetParams(params)
		plus := objective()
		params[i] = orig - h
		d.SetParams(params)
		minus := objective()
		params[i] = orig
		d.SetParams(params)

		numeric := (plus - minus) / (2 * h)
		if math.Abs(numeric-analytic[i]) > 1e-6 {
			t.Errorf("grad[%d] = %v, numeric %v", i, analytic[i], numeric)
		}
	}
}

// TestDenseGradientAccumulation tests that Backward accumulates until ZeroGrad.
func TestDenseGradientAccumulation(t *testing.T) {
	d := NewDense(2, 1, activations.Linear{})
	x := []float64{1, 2}

	d.Forward(x)
	d.Backward([]float64{1})
	once := d.Gradients()

	d.Forward(x)
	d.Backward([]float64{1})
	twice := d.Gradients()

	for i := range once {
		if math.Abs(twice[i]-2*once[i]) > 1e-12 {
			t.Errorf("grad[%d] = %v after two passes, want %v", i, twice[i], 2*once[i])
		}
	}

	d.ZeroGrad()
	for i, g := range d.Gradients() {
		if g != 0 {
			t.Errorf("grad[%d] = %v after ZeroGrad", i, g)
		}
	}
}

// TestDenseParamsAndSetParams tests parameter handling.
func TestDenseParamsAndSetParams(t *testing.T) {
	d := NewDense(2, 3, activations.ReLU{})

	params := d.Params()
	if len(params) != 2*3+3 {
		t.Fatalf("len(Params) = %d, want 9", len(params))
	}

	for i := range params {
		params[i] = float64(i)
	}
	d.SetParams(params)

	got := d.Params()
	for i := range got {
		if got[i] != float64(i) {
			t.Errorf("param[%d] = %v, want %v", i, got[i], float64(i))
		}
	}

	// Params returns a copy
	got[0] = 100
	if d.Params()[0] == 100 {
		t.Error("Params should return a copy")
	}
}

// TestDenseSeededInit tests that the same seed yields the same weights.
func TestDenseSeededInit(t *testing.T) {
	a := NewDenseRand(4, 3, activations.ReLU{}, rand.New(rand.NewSource(7)))
	b := NewDenseRand(4, 3, activations.ReLU{}, rand.New(rand.NewSource(7)))
	pa, pb := a.Params(), b.Params()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("param[%d] differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}
