package net

import (
	"fmt"
	"io"
	"strings"

	"github.com/fedfraud/fedfraud/internal/layer"
	"github.com/fedfraud/fedfraud/internal/loss"
	"github.com/fedfraud/fedfraud/internal/opt"
)

// Sequential is a high-level wrapper around Network to provide a Keras-like API.
type Sequential struct {
	*Network
}

// NewSequential creates a new Sequential model.
func NewSequential(layers ...layer.Layer) *Sequential {
	return &Sequential{
		Network: &Network{
			layers: layers,
		},
	}
}

// Compile configures the model for training.
func (s *Sequential) Compile(optimizer opt.Optimizer, lossFn loss.Loss) {
	s.opt = optimizer
	s.loss = lossFn
}

// Summary writes a Keras-style table of the layers, their output widths and
// parameter counts.
func (n *Network) Summary(w io.Writer) {
	const rule = "_________________________________________________________________"
	fmt.Fprintln(w, "Model: Sequential")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, strings.Repeat("=", len(rule)))

	total := 0
	for i, l := range n.layers {
		name := fmt.Sprintf("%T", l)
		name = name[strings.LastIndex(name, ".")+1:]
		params := len(l.Params())
		total += params
		fmt.Fprintf(w, "%-25s %-20s %-10d\n", fmt.Sprintf("%s_%d", strings.ToLower(name), i), fmt.Sprintf("(None, %d)", l.OutSize()), params)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	fmt.Fprintf(w, "Total params: %d\n", total)
	fmt.Fprintln(w, rule)
}
