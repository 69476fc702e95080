// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/scene"
)

// Batch is a snapshot batch bound to its loader.
type Batch struct {
	scene.Batch

	snap *scene.Snapshot
	// layerColor is the color of the batch layer at load time, black when
	// the layer is unknown. Instance batches resolve BYLAYER with it.
	layerColor dxf.RGB
}

// vertices returns the vertex floats of a non-indexed batch.
func (b *Batch) vertices() []float32 { return b.snap.VerticesOf(b.Vertices) }

// transforms returns the transform floats of a block instance batch.
func (b *Batch) transforms() []float32 { return b.snap.TransformsOf(b.Transforms) }

// LayerColor returns the layer color captured at load time.
func (b *Batch) LayerColor() dxf.RGB { return b.layerColor }

// Block is a block definition: every batch owned by the block, including
// instance batches of blocks it places.
type Block struct {
	Name    string
	Batches []*Batch
}

// Layer tracks the drawables of one layer so they can be shown or hidden
// together.
type Layer struct {
	Name  string
	Color dxf.RGB

	visible   bool
	drawables []*Drawable
}

// LayerInfo describes a layer for presentation.
type LayerInfo struct {
	Name string
	// Color is the layer color adjusted for the background.
	Color   dxf.RGB
	Visible bool
	// Drawables counts the drawables attached to the layer.
	Drawables int
}
