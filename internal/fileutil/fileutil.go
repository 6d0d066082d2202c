// Package fileutil holds the file-writing helpers shared by the packages
// that persist artifacts.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Create creates path for writing, making its parent directory first.
func Create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return f, nil
}

// Close closes c and stores the close error in *err unless *err already
// holds an earlier one. Use it deferred with a named error result so a
// failed flush on close is not lost:
//
//	defer fileutil.Close(f, &err)
func Close(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close file: %w", cerr)
	}
}
