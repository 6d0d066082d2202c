// Package net provides core neural network types.
package net

import (
	"math"

	"github.com/fedfraud/fedfraud/internal/layer"
	"github.com/fedfraud/fedfraud/internal/loss"
	"github.com/fedfraud/fedfraud/internal/opt"
)

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer

	// Pre-allocated gradient buffer for training
	lossGradBuf []float64

	stopTraining bool
}

// New creates a new neural network with the given layers.
func New(layers []layer.Layer, lossFn loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   lossFn,
		opt:    optimizer,
	}
}

// Forward performs a forward pass through all layers.
// The returned slice belongs to the last layer; copy it to keep it.
func (n *Network) Forward(x []float64) []float64 {
	curr := x
	for i := range n.layers {
		curr = n.layers[i].Forward(curr)
	}
	return curr
}

// Backward performs a backward pass through all layers.
func (n *Network) Backward(grad []float64) []float64 {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		curr = n.layers[i].Backward(curr)
	}
	return curr
}

// Predict runs inference on one sample and returns a fresh slice.
func (n *Network) Predict(x []float64) []float64 {
	out := n.Forward(x)
	res := make([]float64, len(out))
	copy(res, out)
	return res
}

// PredictProba returns the first output unit for each sample, which for the
// fraud models is the fraud probability.
func (n *Network) PredictProba(x [][]float64) []float64 {
	res := make([]float64, len(x))
	for i := range x {
		res[i] = n.Predict(x[i])[0]
	}
	return res
}

// SetTraining switches layers such as Dropout between training and inference.
func (n *Network) SetTraining(training bool) {
	for _, l := range n.layers {
		if t, ok := l.(layer.Trainable); ok {
			t.SetTraining(training)
		}
	}
}

// zeroGrad clears the accumulated gradients of every layer.
func (n *Network) zeroGrad() {
	for _, l := range n.layers {
		l.ZeroGrad()
	}
}

// step applies one optimizer update with the accumulated gradients scaled
// by scale, then clears them.
func (n *Network) step(scale float64) {
	params := n.Params()
	grads := n.Gradients()
	for i := range grads {
		grads[i] *= scale
	}
	n.opt.Step(params, grads)
	n.SetParams(params)
	n.zeroGrad()
}

// trainBatch runs one mini-batch update. Gradients are accumulated over the
// batch and averaged before the step. It returns the mean loss and the
// number of correctly classified samples (single-output models, threshold
// 0.5).
func (n *Network) trainBatch(batchX [][]float64, batchY [][]float64) (float64, int) {
	batchSize := len(batchX)
	if batchSize == 0 {
		return 0, 0
	}

	n.zeroGrad()

	var totalLoss float64
	correct := 0
	for i := 0; i < batchSize; i++ {
		yPred := n.Forward(batchX[i])
		totalLoss += n.loss.Forward(yPred, batchY[i])
		if isCorrect(yPred, batchY[i]) {
			correct++
		}

		yPredLen := len(yPred)
		if cap(n.lossGradBuf) < yPredLen {
			n.lossGradBuf = make([]float64, yPredLen)
		}
		grad := n.lossGradBuf[:yPredLen]

		if backwardInPlace, ok := n.loss.(loss.BackwardInPlacer); ok {
			backwardInPlace.BackwardInPlace(yPred, batchY[i], grad)
		} else {
			grad = n.loss.Backward(yPred, batchY[i])
		}

		_ = n.Backward(grad)
	}

	n.step(1 / float64(batchSize))
	return totalLoss / float64(batchSize), correct
}

// Evaluate returns the mean loss and binary accuracy over a dataset.
// Layers are left in inference mode; Fit switches them back each epoch.
func (n *Network) Evaluate(x, y [][]float64) (float64, float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	n.SetTraining(false)

	var total float64
	correct := 0
	for i := range x {
		pred := n.Forward(x[i])
		total += n.loss.Forward(pred, y[i])
		if isCorrect(pred, y[i]) {
			correct++
		}
	}
	return total / float64(len(x)), float64(correct) / float64(len(x))
}

func isCorrect(pred, target []float64) bool {
	p := 0.0
	if pred[0] >= 0.5 {
		p = 1
	}
	return p == target[0]
}

// Params returns all network parameters flattened (copy).
func (n *Network) Params() []float64 {
	var params []float64
	for _, l := range n.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// SetParams distributes a flattened parameter vector across the layers.
func (n *Network) SetParams(params []float64) {
	offset := 0
	for _, l := range n.layers {
		size := len(l.Params())
		if size == 0 {
			continue
		}
		l.SetParams(params[offset : offset+size])
		offset += size
	}
}

// NumParams returns the total number of learnable parameters.
func (n *Network) NumParams() int {
	total := 0
	for _, l := range n.layers {
		total += len(l.Params())
	}
	return total
}

// Gradients returns all network gradients flattened (copy).
func (n *Network) Gradients() []float64 {
	var gradients []float64
	for _, l := range n.layers {
		gradients = append(gradients, l.Gradients()...)
	}
	return gradients
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Loss returns the configured loss function.
func (n *Network) Loss() loss.Loss {
	return n.loss
}

// Optimizer returns the configured optimizer.
func (n *Network) Optimizer() opt.Optimizer {
	return n.opt
}

// StopTraining asks a running Fit to stop after the current epoch.
func (n *Network) StopTraining() {
	n.stopTraining = true
}
