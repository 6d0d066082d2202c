package net

import (
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/logging"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, logs Logs, n *Network)
	OnBatchBegin(batch int, n *Network)
	OnBatchEnd(batch int, loss float64, n *Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                        {}
func (c BaseCallback) OnTrainEnd(n *Network)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (c BaseCallback) OnEpochEnd(epoch int, logs Logs, n *Network)    {}
func (c BaseCallback) OnBatchBegin(batch int, n *Network)             {}
func (c BaseCallback) OnBatchEnd(batch int, loss float64, n *Network) {}

// EarlyStopping stops training when the monitored loss (val_loss when a
// validation split exists) has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience           int
	MinDelta           float64
	RestoreBestWeights bool
	Logger             hclog.Logger

	best         float64
	bestParams   []float64
	numBadEpochs int
	StoppedEpoch int
	Stopped      bool
}

// NewEarlyStopping creates an EarlyStopping callback.
func NewEarlyStopping(patience int, minDelta float64, restoreBest bool) *EarlyStopping {
	return &EarlyStopping{
		Patience:           patience,
		MinDelta:           minDelta,
		RestoreBestWeights: restoreBest,
		best:               math.Inf(1),
	}
}

func (c *EarlyStopping) OnTrainBegin(n *Network) {
	c.best = math.Inf(1)
	c.bestParams = nil
	c.numBadEpochs = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnEpochEnd(epoch int, logs Logs, n *Network) {
	current := logs.Monitored()
	if current < c.best-c.MinDelta {
		c.best = current
		c.numBadEpochs = 0
		if c.RestoreBestWeights {
			c.bestParams = n.Params()
		}
		return
	}

	c.numBadEpochs++
	if c.numBadEpochs >= c.Patience {
		logging.OrNull(c.Logger).Info("early stopping", "epoch", epoch, "best", c.best, "patience", c.Patience)
		c.Stopped = true
		c.StoppedEpoch = epoch
		n.StopTraining()
	}
}

func (c *EarlyStopping) OnTrainEnd(n *Network) {
	if c.RestoreBestWeights && c.bestParams != nil {
		n.SetParams(c.bestParams)
	}
}

// Best returns the best monitored value seen.
func (c *EarlyStopping) Best() float64 {
	return c.best
}

// ModelCheckpoint saves the model after every epoch that improves the
// monitored loss.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	Logger   hclog.Logger

	best float64
}

// NewModelCheckpoint creates a ModelCheckpoint callback.
func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		best:     math.Inf(1),
	}
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, logs Logs, n *Network) {
	current := logs.Monitored()
	if current >= c.best {
		return
	}
	c.best = current
	log := logging.OrNull(c.Logger)
	if err := n.Save(c.Filename); err != nil {
		log.Error("saving checkpoint", "path", c.Filename, "error", err)
		return
	}
	log.Debug("checkpoint saved", "path", c.Filename, "epoch", epoch, "loss", current)
}

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	Log      hclog.Logger
}

func (c Logger) OnEpochEnd(epoch int, logs Logs, n *Network) {
	if c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	args := []interface{}{"epoch", epoch, "loss", logs.Loss, "accuracy", logs.Accuracy}
	if logs.HasVal {
		args = append(args, "val_loss", logs.ValLoss, "val_accuracy", logs.ValAccuracy)
	}
	logging.OrNull(c.Log).Info("epoch finished", args...)
}
