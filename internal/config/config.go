// Package config loads the YAML pipeline configuration used by fedfraud-train.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/metrics"
	"github.com/fedfraud/fedfraud/internal/model"
)

// Training modes.
const (
	ModeFederated = "federated"
	ModeCentral   = "central"
)

// Config is the full pipeline configuration.
type Config struct {
	Mode      string          `yaml:"mode"`
	Data      DataConfig      `yaml:"data"`
	Partition PartitionConfig `yaml:"partition"`
	Model     ModelConfig     `yaml:"model"`
	Training  TrainingConfig  `yaml:"training"`
	Federated FederatedConfig `yaml:"federated"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// DataConfig selects the input file and columns.
type DataConfig struct {
	CSV      string   `yaml:"csv"`
	Features []string `yaml:"features"`
	Target   string   `yaml:"target"`
	TestSize float64  `yaml:"test_size"`
	Seed     int64    `yaml:"seed"`
}

// PartitionConfig controls how training rows are divided among clients.
type PartitionConfig struct {
	Clients  int   `yaml:"clients"`
	Stratify bool  `yaml:"stratify"`
	Shuffle  bool  `yaml:"shuffle"`
	Seed     int64 `yaml:"seed"`
}

// ModelConfig selects the network.
type ModelConfig struct {
	Architecture string  `yaml:"architecture"`
	Optimizer    string  `yaml:"optimizer"`
	LearningRate float64 `yaml:"learning_rate,omitempty"`
	Dropout      float64 `yaml:"dropout,omitempty"`
	Seed         int64   `yaml:"seed"`
}

// TrainingConfig controls centralized training.
type TrainingConfig struct {
	Epochs          int     `yaml:"epochs"`
	BatchSize       int     `yaml:"batch_size"`
	ValidationSplit float64 `yaml:"validation_split"`
	// Patience of zero disables early stopping.
	Patience int `yaml:"patience"`
}

// FederatedConfig controls the federated simulation.
type FederatedConfig struct {
	Rounds      int `yaml:"rounds"`
	LocalEpochs int `yaml:"local_epochs"`
	BatchSize   int `yaml:"batch_size"`
}

// OutputConfig names the artifacts a run writes. Empty paths are skipped.
type OutputConfig struct {
	Model         string  `yaml:"model,omitempty"`
	Scaler        string  `yaml:"scaler,omitempty"`
	Encoders      string  `yaml:"encoders,omitempty"`
	Metrics       string  `yaml:"metrics,omitempty"`
	MetricsFormat string  `yaml:"metrics_format,omitempty"`
	History       string  `yaml:"history,omitempty"`
	TrainingLog   string  `yaml:"training_log,omitempty"`
	Threshold     float64 `yaml:"threshold"`
}

// LogConfig configures the root logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mode: ModeFederated,
		Data: DataConfig{
			CSV:      "data/synthetic_data.csv",
			Features: append([]string(nil), dataset.DefaultFeatures...),
			Target:   dataset.ColIsFraud,
			TestSize: 0.2,
			Seed:     42,
		},
		Partition: PartitionConfig{
			Clients: 3,
			Seed:    42,
		},
		Model: ModelConfig{
			Architecture: model.Federated,
			Optimizer:    "sgd",
			LearningRate: 0.05,
			Seed:         42,
		},
		Training: TrainingConfig{
			Epochs:          10,
			BatchSize:       8,
			ValidationSplit: 0.2,
			Patience:        3,
		},
		Federated: FederatedConfig{
			Rounds:      10,
			LocalEpochs: 1,
			BatchSize:   4,
		},
		Output: OutputConfig{
			MetricsFormat: metrics.FormatJSON,
			Threshold:     metrics.DefaultThreshold,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch c.Mode {
	case ModeFederated, ModeCentral:
	default:
		add("mode must be %q or %q, got %q", ModeFederated, ModeCentral, c.Mode)
	}
	if c.Data.CSV == "" {
		add("data.csv is required")
	}
	if len(c.Data.Features) == 0 {
		add("data.features must not be empty")
	}
	if c.Data.Target == "" {
		add("data.target is required")
	}
	if c.Data.TestSize <= 0 || c.Data.TestSize >= 1 {
		add("data.test_size must be in (0, 1), got %v", c.Data.TestSize)
	}
	if c.Partition.Clients < 1 {
		add("partition.clients must be at least 1, got %d", c.Partition.Clients)
	}
	switch c.Model.Architecture {
	case model.Simple, model.Wide, model.Deep, model.Federated:
	default:
		add("model.architecture %q is not one of %s", c.Model.Architecture,
			strings.Join([]string{model.Simple, model.Wide, model.Deep, model.Federated}, ", "))
	}
	switch c.Model.Optimizer {
	case "adam", "sgd":
	default:
		add("model.optimizer must be adam or sgd, got %q", c.Model.Optimizer)
	}
	if c.Model.LearningRate < 0 {
		add("model.learning_rate must not be negative")
	}
	if c.Model.Dropout < 0 || c.Model.Dropout >= 1 {
		add("model.dropout must be in [0, 1), got %v", c.Model.Dropout)
	}
	if c.Training.Epochs < 1 {
		add("training.epochs must be at least 1")
	}
	if c.Training.BatchSize < 1 {
		add("training.batch_size must be at least 1")
	}
	if c.Training.ValidationSplit < 0 || c.Training.ValidationSplit >= 1 {
		add("training.validation_split must be in [0, 1)")
	}
	if c.Federated.Rounds < 1 {
		add("federated.rounds must be at least 1")
	}
	if c.Federated.LocalEpochs < 1 {
		add("federated.local_epochs must be at least 1")
	}
	if c.Federated.BatchSize < 1 {
		add("federated.batch_size must be at least 1")
	}
	if c.Output.MetricsFormat != metrics.FormatJSON && c.Output.MetricsFormat != metrics.FormatCSV {
		add("output.metrics_format must be json or csv, got %q", c.Output.MetricsFormat)
	}
	if c.Output.Threshold <= 0 || c.Output.Threshold >= 1 {
		add("output.threshold must be in (0, 1), got %v", c.Output.Threshold)
	}
	return errors.Join(errs...)
}

// ModelConfig returns the model builder configuration for inputSize features.
func (c *Config) ModelConfig(inputSize int) model.Config {
	return model.Config{
		InputSize:    inputSize,
		Architecture: c.Model.Architecture,
		Optimizer:    c.Model.Optimizer,
		LearningRate: c.Model.LearningRate,
		Dropout:      c.Model.Dropout,
		Seed:         c.Model.Seed,
	}
}
