// Package model builds the binary fraud classifiers used by training and
// federated simulation.
package model

import (
	"fmt"
	"math/rand"

	"github.com/fedfraud/fedfraud/internal/activations"
	"github.com/fedfraud/fedfraud/internal/layer"
	"github.com/fedfraud/fedfraud/internal/loss"
	"github.com/fedfraud/fedfraud/internal/net"
	"github.com/fedfraud/fedfraud/internal/opt"
)

// Architecture names.
const (
	Simple    = "simple"
	Wide      = "wide"
	Deep      = "deep"
	Federated = "federated"
)

// Default learning rates per optimizer.
const (
	DefaultAdamRate = 0.001
	DefaultSGDRate  = 0.01
)

// UnsupportedArchitectureError reports an unknown architecture name.
type UnsupportedArchitectureError struct {
	Name string
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported architecture: %q", e.Name)
}

// Config describes a classifier.
type Config struct {
	InputSize    int
	Architecture string
	Optimizer    string
	// LearningRate of zero selects the optimizer default.
	LearningRate float64
	// Dropout rate inserted after each hidden layer of the deep architecture.
	Dropout float64
	// Seed for weight initialization and dropout masks.
	Seed int64
}

// hidden returns the hidden layer widths of an architecture.
func hidden(arch string) ([]int, error) {
	switch arch {
	case Simple:
		return []int{16}, nil
	case Wide:
		return []int{64, 32}, nil
	case Deep:
		return []int{64, 32, 16, 8}, nil
	case Federated:
		return []int{8, 4}, nil
	default:
		return nil, &UnsupportedArchitectureError{Name: arch}
	}
}

// Build returns a compiled network: ReLU hidden layers, a single sigmoid
// output and binary cross-entropy loss.
func Build(cfg Config) (*net.Network, error) {
	if cfg.InputSize < 1 {
		return nil, fmt.Errorf("input size must be positive, got %d", cfg.InputSize)
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return nil, fmt.Errorf("dropout must be in [0, 1), got %v", cfg.Dropout)
	}
	widths, err := hidden(cfg.Architecture)
	if err != nil {
		return nil, err
	}

	lr := cfg.LearningRate
	if lr == 0 {
		lr = DefaultAdamRate
		if cfg.Optimizer == "sgd" {
			lr = DefaultSGDRate
		}
	}
	optimizer, err := opt.New(cfg.Optimizer, lr)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var layers []layer.Layer
	in := cfg.InputSize
	for i, w := range widths {
		layers = append(layers, layer.NewDenseRand(in, w, activations.ReLU{}, rng))
		if cfg.Architecture == Deep && cfg.Dropout > 0 {
			layers = append(layers, layer.NewDropoutSeed(cfg.Dropout, w, cfg.Seed+int64(i)+1))
		}
		in = w
	}
	layers = append(layers, layer.NewDenseRand(in, 1, activations.Sigmoid{}, rng))

	m := net.NewSequential(layers...)
	m.Compile(optimizer, loss.BCELoss{})
	return m.Network, nil
}

// Factory returns a constructor that builds identical fresh networks.
func Factory(cfg Config) func() (*net.Network, error) {
	return func() (*net.Network, error) {
		return Build(cfg)
	}
}

// Targets reshapes a label vector into the single-column form Fit expects.
func Targets(y []float64) [][]float64 {
	out := make([][]float64, len(y))
	for i, v := range y {
		out[i] = []float64{v}
	}
	return out
}
