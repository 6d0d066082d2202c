// Package loss provides loss functions for binary fraud classifiers.
package loss

import "math"

// BackwardInPlacer is an optional interface for loss functions that support
// in-place gradient computation to avoid allocations.
type BackwardInPlacer interface {
	BackwardInPlace(yPred, yTrue, grad []float64)
}

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// Backward computes the gradient of the loss w.r.t. prediction.
	// This creates a new slice and should be avoided in hot loops.
	Backward(yPred, yTrue []float64) []float64
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (m MSE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("MSE: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yPred[i] - yTrue[i]
		sum += diff * diff
	}
	return sum / float64(n)
}

// Backward computes gradient: dL/dy_pred = (2/n) * (y_pred - y_true)
func (m MSE) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	m.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient and stores it in the grad slice.
func (m MSE) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("MSE: slices must have same length")
	}

	factor := 2.0 / float64(n)
	for i := 0; i < n; i++ {
		grad[i] = factor * (yPred[i] - yTrue[i])
	}
}

// bceEps clips predictions away from 0 and 1 so log and division stay finite.
const bceEps = 1e-7

func clip(p float64) float64 {
	if p < bceEps {
		return bceEps
	}
	if p > 1-bceEps {
		return 1 - bceEps
	}
	return p
}

// BCELoss (Binary Cross Entropy) loss.
// Requires predictions to be in range (0, 1), i.e. a Sigmoid output layer.
type BCELoss struct{}

// Forward computes binary cross entropy: -(1/n) * sum(y*log(p) + (1-y)*log(1-p))
func (b BCELoss) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCELoss: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		pred := clip(yPred[i])
		sum += yTrue[i]*math.Log(pred) + (1.0-yTrue[i])*math.Log(1.0-pred)
	}
	return -sum / float64(n)
}

// Backward computes gradient for BCE loss.
// Gradient: (pred - y) / (pred * (1-pred)) / n
func (b BCELoss) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	b.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient and stores it in the grad slice.
func (b BCELoss) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("BCELoss: slices must have same length")
	}

	for i := 0; i < n; i++ {
		pred := clip(yPred[i])
		grad[i] = (pred - yTrue[i]) / (pred * (1.0 - pred) * float64(n))
	}
}

// Name returns the registry name of a loss, used by model serialization.
func Name(l Loss) string {
	switch l.(type) {
	case BCELoss:
		return "BCE"
	case MSE:
		return "MSE"
	default:
		return "BCE"
	}
}

// FromName is the inverse of Name.
func FromName(name string) Loss {
	if name == "MSE" {
		return MSE{}
	}
	return BCELoss{}
}
