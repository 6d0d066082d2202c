package model

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/fedfraud/fedfraud/internal/layer"
	"github.com/fedfraud/fedfraud/internal/net"
	"github.com/fedfraud/fedfraud/internal/opt"
)

func TestBuildShapes(t *testing.T) {
	tests := []struct {
		arch    string
		dropout float64
		sizes   []int
		params  int
	}{
		{Simple, 0, []int{16, 1}, 3*16 + 16 + 16 + 1},
		{Wide, 0, []int{64, 32, 1}, 3*64 + 64 + 64*32 + 32 + 32 + 1},
		{Deep, 0, []int{64, 32, 16, 8, 1}, 3*64 + 64 + 64*32 + 32 + 32*16 + 16 + 16*8 + 8 + 8 + 1},
		{Deep, 0.3, []int{64, 64, 32, 32, 16, 16, 8, 8, 1}, 3*64 + 64 + 64*32 + 32 + 32*16 + 16 + 16*8 + 8 + 8 + 1},
		{Federated, 0, []int{8, 4, 1}, 3*8 + 8 + 8*4 + 4 + 4 + 1},
		{Simple, 0.5, []int{16, 1}, 3*16 + 16 + 16 + 1},
	}
	for _, tt := range tests {
		n, err := Build(Config{InputSize: 3, Architecture: tt.arch, Optimizer: "adam", Dropout: tt.dropout})
		if err != nil {
			t.Fatalf("%s: %v", tt.arch, err)
		}
		var sizes []int
		for _, l := range n.Layers() {
			sizes = append(sizes, l.OutSize())
		}
		if len(sizes) != len(tt.sizes) {
			t.Fatalf("%s dropout=%v: sizes = %v, want %v", tt.arch, tt.dropout, sizes, tt.sizes)
		}
		for i := range sizes {
			if sizes[i] != tt.sizes[i] {
				t.Errorf("%s dropout=%v: sizes = %v, want %v", tt.arch, tt.dropout, sizes, tt.sizes)
				break
			}
		}
		if got := n.NumParams(); got != tt.params {
			t.Errorf("%s: NumParams = %d, want %d", tt.arch, got, tt.params)
		}
	}
}

func TestBuildSummary(t *testing.T) {
	n, err := Build(Config{InputSize: 3, Architecture: Deep, Optimizer: "adam", Dropout: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n.Summary(&buf)
	out := buf.String()
	for _, want := range []string{
		"dense_0", "dropout_1", "(None, 64)",
		fmt.Sprintf("Total params: %d", n.NumParams()),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestBuildDropoutLayers(t *testing.T) {
	n, err := Build(Config{InputSize: 2, Architecture: Deep, Optimizer: "sgd", Dropout: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	drops := 0
	for _, l := range n.Layers() {
		if d, ok := l.(*layer.Dropout); ok {
			drops++
			if d.Rate() != 0.25 {
				t.Errorf("dropout rate = %v", d.Rate())
			}
		}
	}
	if drops != 4 {
		t.Errorf("got %d dropout layers, want 4", drops)
	}
}

func TestBuildOptimizerDefaults(t *testing.T) {
	n, err := Build(Config{InputSize: 1, Architecture: Simple, Optimizer: "sgd"})
	if err != nil {
		t.Fatal(err)
	}
	if opt.Name(n.Optimizer()) != "sgd" || opt.LearningRate(n.Optimizer()) != DefaultSGDRate {
		t.Errorf("optimizer = %s lr %v", opt.Name(n.Optimizer()), opt.LearningRate(n.Optimizer()))
	}
	n, err = Build(Config{InputSize: 1, Architecture: Simple, Optimizer: "adam", LearningRate: 0.05})
	if err != nil {
		t.Fatal(err)
	}
	if opt.LearningRate(n.Optimizer()) != 0.05 {
		t.Errorf("lr = %v, want 0.05", opt.LearningRate(n.Optimizer()))
	}
}

func TestBuildRejectsUnknownNames(t *testing.T) {
	_, err := Build(Config{InputSize: 3, Architecture: "transformer", Optimizer: "adam"})
	var ae *UnsupportedArchitectureError
	if !errors.As(err, &ae) || ae.Name != "transformer" {
		t.Errorf("expected UnsupportedArchitectureError, got %v", err)
	}

	_, err = Build(Config{InputSize: 3, Architecture: Simple, Optimizer: "rmsprop"})
	var oe *opt.UnsupportedError
	if !errors.As(err, &oe) || oe.Name != "rmsprop" {
		t.Errorf("expected opt.UnsupportedError, got %v", err)
	}

	if _, err := Build(Config{InputSize: 0, Architecture: Simple, Optimizer: "adam"}); err == nil {
		t.Error("expected error for zero input size")
	}
	if _, err := Build(Config{InputSize: 1, Architecture: Deep, Optimizer: "adam", Dropout: 1}); err == nil {
		t.Error("expected error for dropout 1")
	}
}

func TestFactoryIsDeterministic(t *testing.T) {
	f := Factory(Config{InputSize: 4, Architecture: Wide, Optimizer: "adam", Seed: 9})
	a, _ := f()
	b, _ := f()
	pa, pb := a.Params(), b.Params()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("param %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestSimpleLearnsThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var x [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		v := rng.Float64()*2 - 1
		x = append(x, []float64{v})
		if v > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	n, err := Build(Config{InputSize: 1, Architecture: Simple, Optimizer: "adam", LearningRate: 0.05, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	h := n.Fit(x, Targets(y), net.FitConfig{Epochs: 60, BatchSize: 16, Shuffle: true, Seed: 1})
	if last := h.Accuracy[len(h.Accuracy)-1]; last < 0.9 {
		t.Errorf("final accuracy = %v, want >= 0.9", last)
	}
	if h.Loss[len(h.Loss)-1] >= h.Loss[0] {
		t.Errorf("loss did not decrease: %v -> %v", h.Loss[0], h.Loss[len(h.Loss)-1])
	}
}
