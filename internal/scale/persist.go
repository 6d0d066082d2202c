package scale

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fedfraud/fedfraud/internal/fileutil"
)

// snapshot is the on-disk form of a fitted scaler.
type snapshot struct {
	Method string
	A, B   []float64
}

// Save writes a fitted scaler to path using gob encoding.
func Save(s Scaler, path string) (err error) {
	var snap snapshot
	switch v := s.(type) {
	case *MinMax:
		if v.Min == nil {
			return ErrNotFitted
		}
		snap = snapshot{Method: MethodMinMax, A: v.Min, B: v.Max}
	case *Standard:
		if v.Mean == nil {
			return ErrNotFitted
		}
		snap = snapshot{Method: MethodStandard, A: v.Mean, B: v.Std}
	default:
		return fmt.Errorf("cannot save scaler of type %T", s)
	}

	f, err := fileutil.Create(path)
	if err != nil {
		return err
	}
	defer fileutil.Close(f, &err)

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode scaler: %w", err)
	}
	return nil
}

// Load reads a scaler written by Save.
// A missing file yields an error that matches fs.ErrNotExist.
func Load(path string) (Scaler, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scaler file not found: %s: %w", path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode scaler: %w", err)
	}

	switch snap.Method {
	case MethodMinMax:
		return &MinMax{Min: snap.A, Max: snap.B}, nil
	case MethodStandard:
		return &Standard{Mean: snap.A, Std: snap.B}, nil
	default:
		return nil, &UnsupportedMethodError{Method: snap.Method}
	}
}
