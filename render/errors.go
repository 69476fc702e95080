// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"strings"
)

// Sentinel errors for render package.
var (
	// ErrCyclicReference is wrapped by CyclicReferenceError.
	ErrCyclicReference = errors.New("render: cyclic block reference")

	// ErrNilSnapshot is returned by Load for a nil snapshot.
	ErrNilSnapshot = errors.New("render: nil snapshot")

	// ErrEmptySnapshot is returned by Load for a snapshot without bounds.
	ErrEmptySnapshot = errors.New("render: empty snapshot")
)

// CyclicReferenceError reports a block that places itself. Path lists the
// blocks from the outermost placement to the repeated block.
type CyclicReferenceError struct {
	Path []string
}

func (e *CyclicReferenceError) Error() string {
	return "render: cyclic block reference: " + strings.Join(e.Path, " -> ")
}

func (e *CyclicReferenceError) Unwrap() error { return ErrCyclicReference }
