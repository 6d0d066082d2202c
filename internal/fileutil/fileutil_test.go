package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestClose(t *testing.T) {
	errClose := errors.New("close failed")
	errWrite := errors.New("write failed")

	tests := []struct {
		name     string
		prior    error
		closeErr error
		want     error
	}{
		{"both succeed", nil, nil, nil},
		{"close error reported", nil, errClose, errClose},
		{"earlier error kept", errWrite, errClose, errWrite},
		{"earlier error only", errWrite, nil, errWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prior
			Close(closer{tt.closeErr}, &err)
			if tt.want == nil {
				if err != nil {
					t.Errorf("err = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateMakesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	Close(f, &err)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestCloseReportsDoubleClose(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "x"))
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	Close(f, &err)
	if !errors.Is(err, os.ErrClosed) {
		t.Errorf("err = %v, want os.ErrClosed", err)
	}
}
