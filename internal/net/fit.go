package net

import (
	"math/rand"
)

// FitConfig controls Network.Fit.
type FitConfig struct {
	Epochs    int
	BatchSize int

	// ValidationSplit holds out the trailing fraction of the rows for
	// validation, before any shuffling.
	ValidationSplit float64

	Shuffle bool
	Seed    int64

	Callbacks []Callback
}

// Logs carries the metrics of one finished epoch to the callbacks.
type Logs struct {
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
	HasVal      bool
}

// Monitored returns val_loss when a validation set exists, otherwise loss.
func (l Logs) Monitored() float64 {
	if l.HasVal {
		return l.ValLoss
	}
	return l.Loss
}

// History records per-epoch metrics of a Fit call.
type History struct {
	Loss        []float64 `json:"loss"`
	Accuracy    []float64 `json:"accuracy"`
	ValLoss     []float64 `json:"val_loss,omitempty"`
	ValAccuracy []float64 `json:"val_accuracy,omitempty"`
}

// Epochs returns the number of completed epochs.
func (h *History) Epochs() int {
	return len(h.Loss)
}

// Fit trains the network for cfg.Epochs epochs of mini-batch updates.
func (n *Network) Fit(x, y [][]float64, cfg FitConfig) *History {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 1
	}

	trainX, trainY := x, y
	var valX, valY [][]float64
	if cfg.ValidationSplit > 0 && cfg.ValidationSplit < 1 {
		nVal := int(float64(len(x)) * cfg.ValidationSplit)
		if nVal > 0 && nVal < len(x) {
			cut := len(x) - nVal
			trainX, trainY = x[:cut], y[:cut]
			valX, valY = x[cut:], y[cut:]
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	batchX := make([][]float64, 0, cfg.BatchSize)
	batchY := make([][]float64, 0, cfg.BatchSize)

	history := &History{}
	n.stopTraining = false

	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(n)
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for _, cb := range cfg.Callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		n.SetTraining(true)
		if cfg.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum float64
		correct := 0
		for start, batch := 0, 0; start < len(order); start, batch = start+cfg.BatchSize, batch+1 {
			end := min(start+cfg.BatchSize, len(order))
			batchX, batchY = batchX[:0], batchY[:0]
			for _, idx := range order[start:end] {
				batchX = append(batchX, trainX[idx])
				batchY = append(batchY, trainY[idx])
			}

			for _, cb := range cfg.Callbacks {
				cb.OnBatchBegin(batch, n)
			}
			l, c := n.trainBatch(batchX, batchY)
			lossSum += l * float64(end-start)
			correct += c
			for _, cb := range cfg.Callbacks {
				cb.OnBatchEnd(batch, l, n)
			}
		}

		logs := Logs{}
		if len(trainX) > 0 {
			logs.Loss = lossSum / float64(len(trainX))
			logs.Accuracy = float64(correct) / float64(len(trainX))
		}
		if len(valX) > 0 {
			logs.ValLoss, logs.ValAccuracy = n.Evaluate(valX, valY)
			logs.HasVal = true
			history.ValLoss = append(history.ValLoss, logs.ValLoss)
			history.ValAccuracy = append(history.ValAccuracy, logs.ValAccuracy)
		}
		history.Loss = append(history.Loss, logs.Loss)
		history.Accuracy = append(history.Accuracy, logs.Accuracy)

		for _, cb := range cfg.Callbacks {
			cb.OnEpochEnd(epoch, logs, n)
		}
		if n.stopTraining {
			break
		}
	}

	for _, cb := range cfg.Callbacks {
		cb.OnTrainEnd(n)
	}
	n.SetTraining(false)

	return history
}
