package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fedfraud/fedfraud/internal/dataset"
)

func TestRunWritesDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tx.csv")
	var out bytes.Buffer
	if err := run([]string{"--rows", "50", "--fraud_rate", "0.3", "--seed", "7", "--out", path, "--log_level", "off"}, &out); err != nil {
		t.Fatal(err)
	}

	tbl, err := dataset.ReadCSV(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 50 {
		t.Errorf("rows = %d, want 50", tbl.Len())
	}
	if err := tbl.Validate(dataset.RequiredColumns...); err != nil {
		t.Error(err)
	}
	if _, err := tbl.Labels(dataset.ColIsFraud); err != nil {
		t.Error(err)
	}
}

func TestRunInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero rows", []string{"--rows", "0"}},
		{"rate above one", []string{"--fraud_rate", "1.5"}},
		{"empty out", []string{"--out", ""}},
		{"bad flag", []string{"--rows", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(append(tt.args, "--log_level", "off"), &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
