package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fedfraud/fedfraud/internal/fileutil"
)

// SaveEncoders writes fitted label encoders, keyed by column, to path using
// gob encoding.
func SaveEncoders(encoders map[string]*LabelEncoder, path string) (err error) {
	classes := make(map[string][]string, len(encoders))
	for col, enc := range encoders {
		if enc.Classes == nil {
			return fmt.Errorf("column %s: %w", col, ErrEncoderNotFitted)
		}
		classes[col] = enc.Classes
	}

	f, err := fileutil.Create(path)
	if err != nil {
		return err
	}
	defer fileutil.Close(f, &err)

	if err := gob.NewEncoder(f).Encode(classes); err != nil {
		return fmt.Errorf("failed to encode label encoders: %w", err)
	}
	return nil
}

// LoadEncoders reads encoders written by SaveEncoders.
// A missing file yields an error that matches fs.ErrNotExist.
func LoadEncoders(path string) (map[string]*LabelEncoder, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("encoders file not found: %s: %w", path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var classes map[string][]string
	if err := gob.NewDecoder(f).Decode(&classes); err != nil {
		return nil, fmt.Errorf("failed to decode label encoders: %w", err)
	}
	encoders := make(map[string]*LabelEncoder, len(classes))
	for col, c := range classes {
		if c == nil {
			c = []string{}
		}
		enc := &LabelEncoder{Classes: c}
		enc.index()
		encoders[col] = enc
	}
	return encoders, nil
}
