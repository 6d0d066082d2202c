// Package federated simulates federated training in process. Every round each
// client starts from the current global parameters, trains on its own shard,
// and the aggregated client parameters become the next global model.
package federated

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/logging"
	"github.com/fedfraud/fedfraud/internal/model"
	"github.com/fedfraud/fedfraud/internal/net"
	"github.com/fedfraud/fedfraud/internal/partition"
)

var (
	// ErrNoShards is returned when Run is given no clients.
	ErrNoShards = errors.New("no client shards")
	// ErrNoData is returned when every shard is empty.
	ErrNoData = errors.New("all client shards are empty")
)

// Factory builds a fresh, untrained network. All networks it returns must
// share the same architecture.
type Factory func() (*net.Network, error)

// Config controls a simulation.
type Config struct {
	Rounds      int
	LocalEpochs int
	BatchSize   int
	Seed        int64

	// Aggregator defaults to WeightedMean.
	Aggregator Aggregator
	// OnRound, when set, is called after every round. An error aborts the run.
	OnRound func(ctx context.Context, r RoundResult) error
}

// Defaults used for zero Config fields.
const (
	DefaultRounds      = 10
	DefaultLocalEpochs = 1
	DefaultBatchSize   = 4
)

// RoundResult summarizes one round.
type RoundResult struct {
	Round          int           `json:"round"`
	Clients        int           `json:"clients"`
	Samples        int           `json:"samples"`
	ClientLoss     float64       `json:"client_loss"`
	GlobalLoss     float64       `json:"global_loss"`
	GlobalAccuracy float64       `json:"global_accuracy"`
	Duration       time.Duration `json:"duration"`
}

// Result is the outcome of Run.
type Result struct {
	Model  *net.Network
	Rounds []RoundResult
}

// Run trains a global model over the shards for cfg.Rounds rounds. Shards
// with no rows are skipped. Cancellation is checked before each client; a
// cancelled run returns the rounds completed so far with the context error.
func Run(ctx context.Context, factory Factory, shards []partition.Shard, cfg Config, logger hclog.Logger) (*Result, error) {
	logger = logging.OrNull(logger).Named("federated")

	if len(shards) == 0 {
		return nil, ErrNoShards
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultRounds
	}
	if cfg.LocalEpochs <= 0 {
		cfg.LocalEpochs = DefaultLocalEpochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	agg := cfg.Aggregator
	if agg == nil {
		agg = WeightedMean{}
	}

	union := partition.Union(shards)
	if union.Len() == 0 {
		return nil, ErrNoData
	}
	unionY := model.Targets(union.Y)

	global, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to build global model: %w", err)
	}
	res := &Result{Model: global}
	clients := make([]*net.Network, len(shards))

	for round := 1; round <= cfg.Rounds; round++ {
		start := time.Now()
		globalParams := global.Params()

		updates := make([]ClientUpdate, 0, len(shards))
		for i, s := range shards {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if s.Len() == 0 {
				logger.Debug("skipping empty client", "client", i+1, "round", round)
				continue
			}
			if clients[i] == nil {
				if clients[i], err = factory(); err != nil {
					return res, fmt.Errorf("failed to build client %d model: %w", i+1, err)
				}
			}
			u, err := trainClient(clients[i], globalParams, s, cfg, round*len(shards)+i)
			if err != nil {
				return res, fmt.Errorf("round %d client %d: %w", round, i+1, err)
			}
			u.Client = i + 1
			updates = append(updates, u)
			logger.Debug("client trained", "round", round, "client", u.Client, "samples", u.Samples, "loss", u.Loss)
		}

		params, err := agg.Aggregate(updates)
		if err != nil {
			return res, fmt.Errorf("round %d: %w", round, err)
		}
		global.SetParams(params)

		rr := RoundResult{
			Round:      round,
			Clients:    len(updates),
			Samples:    union.Len(),
			ClientLoss: meanLoss(updates),
			Duration:   time.Since(start),
		}
		rr.GlobalLoss, rr.GlobalAccuracy = global.Evaluate(union.X, unionY)
		res.Rounds = append(res.Rounds, rr)

		logger.Info("round finished",
			"round", round,
			"clients", rr.Clients,
			"client_loss", rr.ClientLoss,
			"global_loss", rr.GlobalLoss,
			"global_accuracy", rr.GlobalAccuracy,
		)

		if cfg.OnRound != nil {
			if err := cfg.OnRound(ctx, rr); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// trainClient starts the client from the global weights with fresh
// optimizer state and trains it locally on its shard.
func trainClient(client *net.Network, globalParams []float64, s partition.Shard, cfg Config, seed int) (ClientUpdate, error) {
	if client.NumParams() != len(globalParams) {
		return ClientUpdate{}, fmt.Errorf("client model has %d params, global has %d", client.NumParams(), len(globalParams))
	}
	client.SetParams(globalParams)
	client.Optimizer().Reset()

	h := client.Fit(s.X, model.Targets(s.Y), net.FitConfig{
		Epochs:    cfg.LocalEpochs,
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		Seed:      cfg.Seed + int64(seed),
	})
	return ClientUpdate{
		Params:  client.Params(),
		Samples: s.Len(),
		Loss:    h.Loss[len(h.Loss)-1],
	}, nil
}
