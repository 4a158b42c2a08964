package graphdatasets

import (
	"errors"
	"fmt"
	"os"

	"github.com/WittenYeh/GraphDatasets/mtx"
)

// ErrNotFound is returned when the input file is missing or unreadable.
var ErrNotFound = errors.New("input not found")

// FormatError is the parse error type surfaced for malformed Matrix
// Market inputs. Use errors.As to recover line information.
type FormatError = mtx.FormatError

// translateError maps low-level failures onto the package's error kinds
// at the API boundary. FormatError values pass through unchanged.
func translateError(path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	return err
}
