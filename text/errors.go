package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrNoFaces is returned when a FontSet holds no usable face.
	ErrNoFaces = errors.New("text: font set has no faces")
)
