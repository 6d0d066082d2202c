package net

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fedfraud/fedfraud/internal/activations"
	"github.com/fedfraud/fedfraud/internal/fileutil"
	"github.com/fedfraud/fedfraud/internal/layer"
	"github.com/fedfraud/fedfraud/internal/loss"
	"github.com/fedfraud/fedfraud/internal/opt"
)

// LayerConfig holds the configuration needed to reconstruct a layer.
type LayerConfig struct {
	Type    string
	InSize  int
	OutSize int
	// Activation type for Dense layers
	Activation string
	// Rate for Dropout layers
	Rate float64
}

// ExtractLayerConfig extracts the configuration from a layer.
func ExtractLayerConfig(l layer.Layer) (LayerConfig, error) {
	switch v := l.(type) {
	case *layer.Dense:
		return LayerConfig{
			Type:       "Dense",
			InSize:     v.InSize(),
			OutSize:    v.OutSize(),
			Activation: activations.Name(v.Activation()),
		}, nil
	case *layer.Dropout:
		return LayerConfig{
			Type:    "Dropout",
			InSize:  v.InSize(),
			OutSize: v.OutSize(),
			Rate:    v.Rate(),
		}, nil
	default:
		return LayerConfig{}, fmt.Errorf("unsupported layer type: %T", l)
	}
}

// CreateLayer creates a new layer from the configuration.
func (c *LayerConfig) CreateLayer() (layer.Layer, error) {
	switch c.Type {
	case "Dense":
		return layer.NewDense(c.InSize, c.OutSize, activations.FromName(c.Activation)), nil
	case "Dropout":
		return layer.NewDropout(c.Rate, c.InSize), nil
	default:
		return nil, fmt.Errorf("unsupported layer type: %s", c.Type)
	}
}

// Save saves the network to a file using gob encoding.
// Optimizer moments are not saved; a loaded network starts with fresh state.
func (n *Network) Save(filename string) (err error) {
	file, err := fileutil.Create(filename)
	if err != nil {
		return err
	}
	defer fileutil.Close(file, &err)

	return n.Encode(file)
}

// Encode writes the network to an io.Writer using gob encoding.
func (n *Network) Encode(w io.Writer) error {
	encoder := gob.NewEncoder(w)

	if err := encoder.Encode(int32(len(n.layers))); err != nil {
		return fmt.Errorf("failed to encode layer count: %w", err)
	}
	if err := encoder.Encode(loss.Name(n.loss)); err != nil {
		return fmt.Errorf("failed to encode loss: %w", err)
	}
	if err := encoder.Encode(opt.Name(n.opt)); err != nil {
		return fmt.Errorf("failed to encode optimizer: %w", err)
	}
	if err := encoder.Encode(opt.LearningRate(n.opt)); err != nil {
		return fmt.Errorf("failed to encode learning rate: %w", err)
	}

	for _, l := range n.layers {
		cfg, err := ExtractLayerConfig(l)
		if err != nil {
			return err
		}
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode layer: %w", err)
		}
	}

	if err := encoder.Encode(n.Params()); err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	return nil
}

// Load loads a network from a file written by Save.
// A missing file yields an error that matches fs.ErrNotExist.
func Load(filename string) (*Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("model file not found: %s: %w", filename, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads a network written by Encode.
func Decode(r io.Reader) (*Network, error) {
	decoder := gob.NewDecoder(r)

	var numLayers int32
	if err := decoder.Decode(&numLayers); err != nil {
		return nil, fmt.Errorf("failed to read layer count: %w", err)
	}

	var lossType, optType string
	if err := decoder.Decode(&lossType); err != nil {
		return nil, fmt.Errorf("failed to read loss type: %w", err)
	}
	if err := decoder.Decode(&optType); err != nil {
		return nil, fmt.Errorf("failed to read optimizer type: %w", err)
	}
	var lr float64
	if err := decoder.Decode(&lr); err != nil {
		return nil, fmt.Errorf("failed to read learning rate: %w", err)
	}

	layers := make([]layer.Layer, 0, numLayers)
	for i := 0; i < int(numLayers); i++ {
		var cfg LayerConfig
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read layer %d: %w", i, err)
		}
		l, err := cfg.CreateLayer()
		if err != nil {
			return nil, fmt.Errorf("failed to create layer: %w", err)
		}
		layers = append(layers, l)
	}

	var params []float64
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("failed to read parameters: %w", err)
	}

	optimizer, err := opt.New(optType, lr)
	if err != nil {
		return nil, err
	}

	network := New(layers, loss.FromName(lossType), optimizer)
	if len(params) != network.NumParams() {
		return nil, fmt.Errorf("parameter count mismatch: got %d, want %d", len(params), network.NumParams())
	}
	network.SetParams(params)
	network.SetTraining(false)

	return network, nil
}
