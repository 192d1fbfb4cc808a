// file: internal/normalizer/errors.go
// version: 1.0.0
// guid: e3b71f04-8c29-4a6d-b5f0-2d9c61e8a7b4

package normalizer

import (
	"errors"
	"fmt"
)

// ErrNameCollision is wrapped by CollisionError when no free destination
// name could be found for a file.
var ErrNameCollision = errors.New("could not resolve filename collision")

// CollisionError reports a file left in place after every _N suffix was
// taken. It needs manual resolution rather than a retry.
type CollisionError struct {
	Path     string
	Attempts int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %s", ErrNameCollision, e.Attempts, e.Path)
}

func (e *CollisionError) Unwrap() error { return ErrNameCollision }

// FSError wraps a filesystem failure met while reading or relocating.
// Reprocessing the work later is safe.
type FSError struct {
	Op   string
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Unwrap() error { return e.Err }

// IsRetryable reports whether err came from a filesystem failure that a
// later run may get past.
func IsRetryable(err error) bool {
	var fsErr *FSError
	return errors.As(err, &fsErr)
}
