// Package loss provides unit tests for loss functions.
package loss

import (
	"math"
	"testing"
)

// TestMSEForward tests MSE forward pass.
func TestMSEForward(t *testing.T) {
	mse := MSE{}

	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"Perfect prediction", []float64{1.0, 2.0, 3.0}, []float64{1.0, 2.0, 3.0}, 0.0},
		{"Single error", []float64{1.0, 2.0}, []float64{1.5, 2.0}, 0.125},
		{"Multiple errors", []float64{1.0, 2.0, 3.0}, []float64{0.0, 1.0, 2.0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mse.Forward(tt.yPred, tt.yTrue)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("MSE.Forward() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestMSEForwardLengthMismatch tests error handling.
func TestMSEForwardLengthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for length mismatch")
		}
	}()

	MSE{}.Forward([]float64{1.0, 2.0}, []float64{1.0})
}

// TestBCEForward tests binary cross entropy against hand-computed values.
func TestBCEForward(t *testing.T) {
	bce := BCELoss{}

	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"Confident positive", []float64{0.9}, []float64{1}, -math.Log(0.9)},
		{"Confident negative", []float64{0.2}, []float64{0}, -math.Log(0.8)},
		{"Half", []float64{0.5}, []float64{1}, math.Log(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bce.Forward(tt.yPred, tt.yTrue)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("BCELoss.Forward() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestBCEClipping tests that saturated predictions stay finite.
func TestBCEClipping(t *testing.T) {
	bce := BCELoss{}
	l := bce.Forward([]float64{0}, []float64{1})
	if math.IsInf(l, 0) || math.IsNaN(l) {
		t.Fatalf("BCELoss.Forward(0, 1) = %v, want finite", l)
	}
	g := bce.Backward([]float64{1}, []float64{0})
	if math.IsInf(g[0], 0) || math.IsNaN(g[0]) {
		t.Fatalf("BCELoss.Backward(1, 0) = %v, want finite", g[0])
	}
}

// TestBCEBackwardNumeric compares the analytical gradient with a central difference.
func TestBCEBackwardNumeric(t *testing.T) {
	bce := BCELoss{}
	const h = 1e-6
	for _, p := range []float64{0.1, 0.4, 0.8} {
		for _, y := range []float64{0, 1} {
			numeric := (bce.Forward([]float64{p + h}, []float64{y}) - bce.Forward([]float64{p - h}, []float64{y})) / (2 * h)
			got := bce.Backward([]float64{p}, []float64{y})[0]
			if math.Abs(numeric-got) > 1e-4 {
				t.Errorf("BCE grad at p=%v y=%v = %v, numeric %v", p, y, got, numeric)
			}
		}
	}
}

// TestNameRoundTrip tests loss registry names.
func TestNameRoundTrip(t *testing.T) {
	if Name(FromName("MSE")) != "MSE" || Name(FromName("BCE")) != "BCE" {
		t.Error("loss name round trip failed")
	}
}
