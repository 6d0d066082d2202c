// Package main - Train a fraud classifier on a transactions CSV, either
// centrally or by simulating federated training over partitioned clients,
// then evaluate it on a held-out test set.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/config"
	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/federated"
	"github.com/fedfraud/fedfraud/internal/history"
	"github.com/fedfraud/fedfraud/internal/logging"
	"github.com/fedfraud/fedfraud/internal/metrics"
	"github.com/fedfraud/fedfraud/internal/model"
	"github.com/fedfraud/fedfraud/internal/net"
	"github.com/fedfraud/fedfraud/internal/partition"
	"github.com/fedfraud/fedfraud/internal/scale"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

// options parses flags into a configuration. Flags that were set override
// the values from the configuration file.
func options(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("fedfraud-train", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML configuration file")
	csvPath := fs.String("csv", "", "Transactions CSV file")
	mode := fs.String("mode", "", "Training mode: federated or central")
	clients := fs.Int("clients", 0, "Number of simulated clients")
	rounds := fs.Int("rounds", 0, "Number of federated rounds")
	stratify := fs.Bool("stratify", false, "Preserve the fraud rate in every client shard")
	arch := fs.String("arch", "", "Model architecture: simple, wide, deep or federated")
	modelPath := fs.String("model", "", "Path to save the trained model")
	scalerPath := fs.String("save_scaler", "", "Path to save the fitted feature scaler")
	encodersPath := fs.String("save_encoders", "", "Path to save the fitted label encoders")
	metricsPath := fs.String("metrics", "", "Path to save evaluation metrics")
	historyPath := fs.String("history", "", "SQLite database recording the run")
	logLevel := fs.String("log_level", "", "Log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(fs.Output(), err)
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "csv":
			cfg.Data.CSV = *csvPath
		case "mode":
			cfg.Mode = *mode
		case "clients":
			cfg.Partition.Clients = *clients
		case "rounds":
			cfg.Federated.Rounds = *rounds
		case "stratify":
			cfg.Partition.Stratify = *stratify
		case "arch":
			cfg.Model.Architecture = *arch
		case "model":
			cfg.Output.Model = *modelPath
		case "save_scaler":
			cfg.Output.Scaler = *scalerPath
		case "save_encoders":
			cfg.Output.Encoders = *encodersPath
		case "metrics":
			cfg.Output.Metrics = *metricsPath
		case "history":
			cfg.Output.History = *historyPath
		case "log_level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(fs.Output(), err)
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := options(args)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{
		Name:  "fedfraud-train",
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		JSON:  cfg.Log.JSON,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := train(ctx, cfg, logger, stdout); err != nil {
		logger.Error("training failed", "error", err)
		return err
	}
	return nil
}

func train(ctx context.Context, cfg *config.Config, logger hclog.Logger, stdout io.Writer) (err error) {
	var (
		store *history.Store
		runID string
	)
	if cfg.Output.History != "" {
		if store, err = history.Open(ctx, cfg.Output.History); err != nil {
			return err
		}
		defer store.Close()
		if runID, err = store.StartRun(ctx, cfg); err != nil {
			return err
		}
		logger = logger.With("run_id", runID)
		defer func() {
			if err != nil {
				if ferr := store.FailRun(context.WithoutCancel(ctx), runID, err); ferr != nil {
					logger.Warn("recording failed run", "error", ferr)
				}
			}
		}()
	}

	t, err := dataset.ReadCSV(cfg.Data.CSV, logger.Named("dataset"))
	if err != nil {
		return err
	}
	x, y, prep, err := dataset.Prepare(t, cfg.Data.Features, cfg.Data.Target, logger.Named("dataset"))
	if err != nil {
		return err
	}
	xTrain, xTest, yTrain, yTest, err := dataset.TrainTestSplit(x, y, cfg.Data.TestSize, cfg.Data.Seed)
	if err != nil {
		return err
	}
	logger.Info("data split", "train", len(xTrain), "test", len(xTest))

	modelCfg := cfg.ModelConfig(len(cfg.Data.Features))
	var network *net.Network
	switch cfg.Mode {
	case config.ModeCentral:
		network, err = trainCentral(cfg, modelCfg, xTrain, yTrain, logger)
	default:
		network, err = trainFederated(ctx, cfg, modelCfg, xTrain, yTrain, store, runID, logger)
	}
	if err != nil {
		return err
	}

	report, err := metrics.Evaluate(network, xTest, yTest, cfg.Output.Threshold)
	if err != nil {
		return err
	}
	testLoss, _ := network.Evaluate(xTest, model.Targets(yTest))
	scores := report.Metrics()
	scores["loss"] = testLoss

	fmt.Fprintln(stdout, "=== Model Summary ===")
	network.Summary(stdout)
	fmt.Fprintln(stdout, "=== Classification Report ===")
	fmt.Fprintln(stdout, metrics.ClassificationReport(report.YTrue, report.YPred))
	metrics.Log(logger, "Test", scores)

	if p := cfg.Output.Metrics; p != "" {
		if err := metrics.Save(scores, p, cfg.Output.MetricsFormat); err != nil {
			return err
		}
		logger.Info("metrics saved", "path", p)
	}
	if p := cfg.Output.Model; p != "" {
		if err := network.Save(p); err != nil {
			return err
		}
		logger.Info("model saved", "path", p)
	}
	if p := cfg.Output.Scaler; p != "" {
		if err := scale.Save(prep.Scaler, p); err != nil {
			return err
		}
		logger.Info("scaler saved", "path", p)
	}
	if p := cfg.Output.Encoders; p != "" {
		if err := dataset.SaveEncoders(prep.Encoders, p); err != nil {
			return err
		}
		logger.Info("encoders saved", "path", p, "columns", len(prep.Encoders))
	}
	if store != nil {
		if err := store.FinishRun(ctx, runID, scores); err != nil {
			return err
		}
	}
	return nil
}

func trainFederated(ctx context.Context, cfg *config.Config, modelCfg model.Config, x [][]float64, y []float64,
	store *history.Store, runID string, logger hclog.Logger) (*net.Network, error) {
	shards, err := partition.Split(x, y, partition.Options{
		NumClients: cfg.Partition.Clients,
		Shuffle:    cfg.Partition.Shuffle,
		Seed:       cfg.Partition.Seed,
		Stratify:   cfg.Partition.Stratify,
	}, logger.Named("partition"))
	if err != nil {
		return nil, err
	}

	fc := federated.Config{
		Rounds:      cfg.Federated.Rounds,
		LocalEpochs: cfg.Federated.LocalEpochs,
		BatchSize:   cfg.Federated.BatchSize,
		Seed:        cfg.Model.Seed,
	}
	if store != nil {
		fc.OnRound = func(ctx context.Context, r federated.RoundResult) error {
			return store.RecordRound(ctx, runID, r)
		}
	}

	res, err := federated.Run(ctx, federated.Factory(model.Factory(modelCfg)), shards, fc, logger)
	if err != nil {
		return nil, err
	}
	last := res.Rounds[len(res.Rounds)-1]
	logger.Info("global model evaluation", "loss", last.GlobalLoss, "accuracy", last.GlobalAccuracy)
	return res.Model, nil
}

func trainCentral(cfg *config.Config, modelCfg model.Config, x [][]float64, y []float64, logger hclog.Logger) (*net.Network, error) {
	network, err := model.Build(modelCfg)
	if err != nil {
		return nil, err
	}

	log := logger.Named("fit")
	callbacks := []net.Callback{net.Logger{Interval: 1, Log: log}}
	var es *net.EarlyStopping
	if p := cfg.Training.Patience; p > 0 {
		es = net.NewEarlyStopping(p, 0, true)
		es.Logger = log
		callbacks = append(callbacks, es)
	}
	if p := cfg.Output.Model; p != "" {
		mc := net.NewModelCheckpoint(p)
		mc.Logger = log
		callbacks = append(callbacks, mc)
	}
	if p := cfg.Output.TrainingLog; p != "" {
		cl := net.NewCSVLogger(p, false)
		cl.Logger = log
		callbacks = append(callbacks, cl)
	}

	h := network.Fit(x, model.Targets(y), net.FitConfig{
		Epochs:          cfg.Training.Epochs,
		BatchSize:       cfg.Training.BatchSize,
		ValidationSplit: cfg.Training.ValidationSplit,
		Shuffle:         true,
		Seed:            cfg.Model.Seed,
		Callbacks:       callbacks,
	})
	logger.Info("training finished", "epochs", h.Epochs(), "loss", h.Loss[len(h.Loss)-1])
	if es != nil {
		logger.Info("early stopping", "best_loss", es.Best(), "stopped_early", es.Stopped)
	}
	return network, nil
}
