package scene

import (
	"errors"
	"fmt"
)

// Sentinel errors for scene package.
var (
	// ErrEmptyDocument is returned by Build when the drawing has no
	// geometry with computable bounds.
	ErrEmptyDocument = errors.New("scene: empty document")

	// ErrUnsupportedGeometry is returned for batches whose kind the
	// consumer cannot draw.
	ErrUnsupportedGeometry = errors.New("scene: unsupported geometry")

	// ErrBadSnapshot is returned by ReadSnapshot for malformed input.
	ErrBadSnapshot = errors.New("scene: malformed snapshot")
)

// UnsupportedGeometryError reports a batch that cannot be turned into
// drawables.
type UnsupportedGeometryError struct {
	Key    GeometryKey
	Reason string
}

func (e *UnsupportedGeometryError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("scene: unsupported geometry %v", e.Key)
	}
	return fmt.Sprintf("scene: unsupported geometry %v: %s", e.Key, e.Reason)
}

func (e *UnsupportedGeometryError) Unwrap() error { return ErrUnsupportedGeometry }
