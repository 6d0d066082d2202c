package net

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// TestFitHistory tests that Fit records one entry per epoch.
func TestFitHistory(t *testing.T) {
	network := newTestNetwork(4)
	x, y := andData()

	h := network.Fit(x, y, FitConfig{Epochs: 5, BatchSize: 2, Shuffle: true, Seed: 1})
	if h.Epochs() != 5 {
		t.Fatalf("Epochs = %d, want 5", h.Epochs())
	}
	if len(h.ValLoss) != 0 {
		t.Errorf("ValLoss recorded without a validation split")
	}
}

// TestFitValidationSplit tests that the trailing rows are held out.
func TestFitValidationSplit(t *testing.T) {
	network := newTestNetwork(5)
	x := make([][]float64, 10)
	y := make([][]float64, 10)
	for i := range x {
		x[i] = []float64{float64(i % 2), float64(i % 3)}
		y[i] = []float64{float64(i % 2)}
	}

	var seen []Logs
	rec := &recorder{onEpochEnd: func(logs Logs) { seen = append(seen, logs) }}
	h := network.Fit(x, y, FitConfig{Epochs: 3, BatchSize: 4, ValidationSplit: 0.2, Callbacks: []Callback{rec}})

	if len(h.ValLoss) != 3 || len(h.ValAccuracy) != 3 {
		t.Fatalf("ValLoss entries = %d, want 3", len(h.ValLoss))
	}
	if len(seen) != 3 || !seen[0].HasVal {
		t.Fatalf("callbacks did not receive validation logs: %+v", seen)
	}
	if rec.begin != 1 || rec.end != 1 {
		t.Errorf("train begin/end = %d/%d, want 1/1", rec.begin, rec.end)
	}
	// 8 training rows in batches of 4
	if rec.batches != 3*2 {
		t.Errorf("batches = %d, want 6", rec.batches)
	}
}

// TestFitLearns tests that Fit solves a separable problem.
func TestFitLearns(t *testing.T) {
	network := newTestNetwork(6)
	x, y := andData()

	h := network.Fit(x, y, FitConfig{Epochs: 300, BatchSize: 4})
	if h.Loss[len(h.Loss)-1] >= h.Loss[0] {
		t.Errorf("loss did not decrease: %v -> %v", h.Loss[0], h.Loss[len(h.Loss)-1])
	}
	if _, acc := network.Evaluate(x, y); acc != 1 {
		t.Errorf("accuracy = %v, want 1", acc)
	}
}

// TestEarlyStopping tests that training stops after patience epochs without
// improvement and restores the best weights.
func TestEarlyStopping(t *testing.T) {
	network := newTestNetwork(7)
	es := NewEarlyStopping(2, 0, true)

	// Feed a fixed loss sequence through the callback directly.
	es.OnTrainBegin(network)
	losses := []float64{1.0, 0.5, 0.6, 0.7, 0.4}
	var stoppedAt = -1
	var bestParams []float64
	for epoch, l := range losses {
		if epoch == 1 {
			bestParams = network.Params()
		}
		es.OnEpochEnd(epoch, Logs{Loss: l}, network)
		if network.stopTraining {
			stoppedAt = epoch
			break
		}
		// Perturb weights so restore is observable.
		p := network.Params()
		p[0] += 1
		network.SetParams(p)
	}

	if stoppedAt != 3 {
		t.Fatalf("stopped at epoch %d, want 3", stoppedAt)
	}
	if es.Best() != 0.5 {
		t.Errorf("best = %v, want 0.5", es.Best())
	}

	es.OnTrainEnd(network)
	got := network.Params()
	for i := range bestParams {
		if got[i] != bestParams[i] {
			t.Fatalf("param[%d] = %v, want restored %v", i, got[i], bestParams[i])
		}
	}
}

// TestEarlyStoppingInFit tests that Fit honours StopTraining.
func TestEarlyStoppingInFit(t *testing.T) {
	network := newTestNetwork(8)
	x, y := andData()
	stopper := &recorder{onEpochEnd: func(Logs) {}}
	stopper.stopAfter = 2

	h := network.Fit(x, y, FitConfig{Epochs: 50, BatchSize: 4, Callbacks: []Callback{stopper}})
	if h.Epochs() != 2 {
		t.Errorf("Epochs = %d, want 2", h.Epochs())
	}
}

// TestModelCheckpoint tests that improving epochs write the model file.
func TestModelCheckpoint(t *testing.T) {
	network := newTestNetwork(9)
	path := filepath.Join(t.TempDir(), "best.bin")
	cp := NewModelCheckpoint(path)

	cp.OnEpochEnd(0, Logs{Loss: 0.5}, network)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("checkpoint not written: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("checkpoint unreadable: %v", err)
	}
}

// TestCSVLogger tests the CSV training log.
func TestCSVLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "log.csv")

	logger := NewCSVLogger(filename, false)
	n := &Network{}

	logger.OnTrainBegin(n)
	logger.OnEpochEnd(0, Logs{Loss: 0.5, Accuracy: 0.75}, n)
	logger.OnEpochEnd(1, Logs{Loss: 0.4, Accuracy: 0.8, ValLoss: 0.45, ValAccuracy: 0.7, HasVal: true}, n)
	logger.OnTrainEnd(n)

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("failed to open logger file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}

	if len(records) != 3 { // Header + 2 epochs
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[1][0] != "0" || records[1][1] != "0.500000" || records[1][3] != "" {
		t.Errorf("unexpected record at epoch 0: %v", records[1])
	}
	if records[2][3] != "0.450000" {
		t.Errorf("unexpected val_loss at epoch 1: %v", records[2])
	}
}

type recorder struct {
	BaseCallback
	begin, end, batches int
	epochs              int
	stopAfter           int
	onEpochEnd          func(Logs)
}

func (r *recorder) OnTrainBegin(n *Network)                      { r.begin++ }
func (r *recorder) OnTrainEnd(n *Network)                        { r.end++ }
func (r *recorder) OnBatchEnd(batch int, l float64, n *Network) { r.batches++ }
func (r *recorder) OnEpochEnd(epoch int, logs Logs, n *Network) {
	r.epochs++
	r.onEpochEnd(logs)
	if r.stopAfter > 0 && r.epochs >= r.stopAfter {
		n.StopTraining()
	}
}
