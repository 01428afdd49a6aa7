package util

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// StdinPath selects standard input in OpenInput.
const StdinPath = "-"

// OpenInput opens path for reading, or standard input for StdinPath.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, errors.New("input path is required")
	}

	if path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	return f, nil
}
