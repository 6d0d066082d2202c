// Package opt provides optimization algorithms.
package opt

import (
	"fmt"
	"math"
)

// Optimizer updates network parameters based on gradients.
//
// The network passes its whole flattened parameter vector in one call, so a
// stateful optimizer sees the same parameter layout on every step.
type Optimizer interface {
	// Step updates params in place.
	Step(params, gradients []float64)

	// Reset discards any per-parameter state.
	Reset()
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Step updates params in place: params = params - lr * gradients
func (s *SGD) Step(params, gradients []float64) {
	for i := range params {
		params[i] -= s.LearningRate * gradients[i]
	}
}

// Reset is a no-op; SGD keeps no state.
func (s *SGD) Reset() {}

// Adam optimizer.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	m []float64
	v []float64
	t int
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// Step updates params in place using Adam.
// Moment buffers are (re)allocated when the parameter count changes.
func (a *Adam) Step(params, gradients []float64) {
	if len(a.m) != len(params) {
		a.m = make([]float64, len(params))
		a.v = make([]float64, len(params))
		a.t = 0
	}
	a.t++

	bc1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for i := range params {
		g := gradients[i]
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		mHat := a.m[i] / bc1
		vHat := a.v[i] / bc2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}

// Reset clears the moment estimates.
func (a *Adam) Reset() {
	a.m, a.v, a.t = nil, nil, 0
}

// UnsupportedError reports an optimizer name that New does not know.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported optimizer: %q", e.Name)
}

// New returns a fresh optimizer by name ("adam" or "sgd").
func New(name string, learningRate float64) (Optimizer, error) {
	switch name {
	case "adam":
		return NewAdam(learningRate), nil
	case "sgd":
		return &SGD{LearningRate: learningRate}, nil
	default:
		return nil, &UnsupportedError{Name: name}
	}
}

// Name returns the registry name of an optimizer.
func Name(o Optimizer) string {
	switch o.(type) {
	case *Adam:
		return "adam"
	default:
		return "sgd"
	}
}

// LearningRate reports the learning rate of a known optimizer.
func LearningRate(o Optimizer) float64 {
	switch v := o.(type) {
	case *Adam:
		return v.LearningRate
	case *SGD:
		return v.LearningRate
	default:
		return 0
	}
}
