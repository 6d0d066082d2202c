package net

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/logging"
)

// CSVLogHeader is the header row of a training log.
var CSVLogHeader = []string{"epoch", "loss", "accuracy", "val_loss", "val_accuracy", "time_seconds"}

// CSVLogger appends one row per epoch to a CSV training log. Validation
// columns are left empty when Fit runs without a validation split.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool
	Logger   hclog.Logger

	file  *os.File
	w     *csv.Writer
	start time.Time
}

// NewCSVLogger creates a CSVLogger. With append set, rows are added to an
// existing log and the header is only written to an empty file.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(n *Network) {
	log := logging.OrNull(c.Logger)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if c.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	if err := os.MkdirAll(filepath.Dir(c.Filename), 0o755); err != nil {
		log.Error("creating training log directory", "path", c.Filename, "error", err)
		return
	}
	f, err := os.OpenFile(c.Filename, flags, 0o644)
	if err != nil {
		log.Error("opening training log", "path", c.Filename, "error", err)
		return
	}
	c.file, c.w, c.start = f, csv.NewWriter(f), time.Now()

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		c.write(CSVLogHeader)
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, logs Logs, n *Network) {
	if c.w == nil {
		return
	}
	row := []string{
		strconv.Itoa(epoch),
		formatFloat(logs.Loss),
		formatFloat(logs.Accuracy),
		"",
		"",
		strconv.FormatFloat(time.Since(c.start).Seconds(), 'f', 2, 64),
	}
	if logs.HasVal {
		row[3], row[4] = formatFloat(logs.ValLoss), formatFloat(logs.ValAccuracy)
	}
	c.write(row)
}

func (c *CSVLogger) OnTrainEnd(n *Network) {
	if c.file == nil {
		return
	}
	if err := c.file.Close(); err != nil {
		logging.OrNull(c.Logger).Error("closing training log", "path", c.Filename, "error", err)
	}
	c.file, c.w = nil, nil
}

func (c *CSVLogger) write(row []string) {
	c.w.Write(row)
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		logging.OrNull(c.Logger).Error("writing training log", "path", c.Filename, "error", err)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
