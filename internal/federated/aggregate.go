package federated

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrNoUpdates is returned when a round produced no client updates.
var ErrNoUpdates = errors.New("no client updates to aggregate")

// ClientUpdate is the result of one client's local training.
type ClientUpdate struct {
	Client  int
	Params  []float64
	Samples int
	Loss    float64
}

// Aggregator combines client parameters into new global parameters.
type Aggregator interface {
	Aggregate(updates []ClientUpdate) ([]float64, error)
}

// WeightedMean averages parameters weighted by each client's sample count.
type WeightedMean struct{}

func (WeightedMean) Aggregate(updates []ClientUpdate) ([]float64, error) {
	if len(updates) == 0 {
		return nil, ErrNoUpdates
	}

	dim := len(updates[0].Params)
	aggregated := make([]float64, dim)
	total := 0
	for _, u := range updates {
		if len(u.Params) != dim {
			return nil, fmt.Errorf("client %d sent %d params, want %d", u.Client, len(u.Params), dim)
		}
		floats.AddScaled(aggregated, float64(u.Samples), u.Params)
		total += u.Samples
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: all clients reported zero samples", ErrNoUpdates)
	}
	floats.Scale(1/float64(total), aggregated)
	return aggregated, nil
}

// meanLoss returns the unweighted mean of the client losses.
func meanLoss(updates []ClientUpdate) float64 {
	if len(updates) == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range updates {
		sum += u.Loss
	}
	return sum / float64(len(updates))
}
