package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fedfraud/fedfraud/internal/dataset"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
mode: central
data:
  csv: transactions.csv
  features: [amount, merchant_id]
partition:
  clients: 5
  stratify: true
model:
  architecture: deep
  optimizer: adam
  dropout: 0.2
training:
  epochs: 25
output:
  metrics: out/metrics.csv
  metrics_format: csv
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Mode != ModeCentral || c.Data.CSV != "transactions.csv" || c.Partition.Clients != 5 || !c.Partition.Stratify {
		t.Errorf("parsed = %+v", c)
	}
	if !reflect.DeepEqual(c.Data.Features, []string{"amount", "merchant_id"}) {
		t.Errorf("features = %v", c.Data.Features)
	}
	// Untouched fields keep their defaults.
	if c.Data.Target != dataset.ColIsFraud || c.Federated.Rounds != 10 || c.Training.BatchSize != 8 {
		t.Errorf("defaults lost: %+v", c)
	}

	mc := c.ModelConfig(2)
	if mc.InputSize != 2 || mc.Architecture != "deep" || mc.Dropout != 0.2 {
		t.Errorf("ModelConfig = %+v", mc)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	_, err := Parse([]byte(`
mode: batch
partition:
  clients: 0
model:
  architecture: rnn
  optimizer: lbfgs
output:
  metrics_format: xml
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"mode", "partition.clients", "model.architecture", "model.optimizer", "output.metrics_format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("data: [unclosed")); err == nil {
		t.Error("expected YAML error")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	c := Default()
	c.Partition.Clients = 4
	data, err := c.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "fedfraud.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, c) {
		t.Errorf("Load = %+v, want %+v", loaded, c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
