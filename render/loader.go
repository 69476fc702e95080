// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/material"
	"github.com/gogpu/dxf/scene"
)

// flatTolerance is the largest vertical extent of a flat drawing.
const flatTolerance = 1e-9

// Options configures a Loader.
type Options struct {
	// Background is the color drawables are shown against.
	Background dxf.RGB
	// ColorCorrection adjusts colors with poor contrast against
	// Background.
	ColorCorrection bool
	// BlackWhiteInversion swaps pure black and white entities that would
	// vanish into Background.
	BlackWhiteInversion bool
	// PointSize is the point diameter in pixels.
	PointSize float32
	// Materials is shared between loaders when set. A nil library is
	// created per loader and released by Destroy.
	Materials *material.Library
}

// DefaultOptions returns the default configuration: black background,
// black/white inversion on and 2 pixel points.
func DefaultOptions() Options {
	return Options{
		Background:          dxf.Black,
		BlackWhiteInversion: true,
		PointSize:           2,
	}
}

func (o Options) colorOptions() dxf.ColorOptions {
	return dxf.ColorOptions{
		ColorCorrection:     o.ColorCorrection,
		BlackWhiteInversion: o.BlackWhiteInversion,
	}
}

// Loader holds the drawables of one loaded snapshot.
type Loader struct {
	opts          Options
	materials     *material.Library
	ownsMaterials bool

	snap       *scene.Snapshot
	batches    []*Batch
	layers     []*Layer
	layerIndex map[string]*Layer
	blocks     map[string]*Block
	drawables  []*Drawable
	isFlat     bool

	subs    []subscriber
	nextSub int
}

// NewLoader creates an empty loader.
func NewLoader(opts Options) *Loader {
	if !(opts.PointSize > 0) {
		opts.PointSize = DefaultOptions().PointSize
	}
	l := &Loader{opts: opts, materials: opts.Materials}
	if l.materials == nil {
		l.materials = material.NewLibrary()
		l.ownsMaterials = true
	}
	return l
}

// Load replaces the loaded content with snap. Block definitions are
// indexed first, then every top-level batch is resolved into drawables.
// Drawables of hidden (off or frozen) layers start invisible.
//
// Cyclic block placements are reported through a warning message and
// skipped. Any other error clears the loader.
func (l *Loader) Load(snap *scene.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	l.Clear()
	if snap.Bounds.IsEmpty() {
		return ErrEmptySnapshot
	}
	l.snap = snap
	l.layerIndex = make(map[string]*Layer, len(snap.Layers))
	l.blocks = make(map[string]*Block)

	for _, sl := range snap.Layers {
		layer := &Layer{Name: sl.Name, Color: sl.Color, visible: !sl.Off && !sl.Frozen}
		l.layers = append(l.layers, layer)
		l.layerIndex[sl.Name] = layer
	}

	// Blocks first: instance batches may precede the definitions they use.
	l.batches = make([]*Batch, len(snap.Batches))
	for i, sb := range snap.Batches {
		b := &Batch{Batch: sb, snap: snap}
		if layer, ok := l.layerIndex[sb.Key.Layer]; ok {
			b.layerColor = layer.Color
		}
		l.batches[i] = b
		if sb.Owner == "" {
			continue
		}
		block := l.blocks[sb.Owner]
		if block == nil {
			block = &Block{Name: sb.Owner}
			l.blocks[sb.Owner] = block
		}
		block.Batches = append(block.Batches, b)
	}

	extent := snap.Bounds.MaxZ - snap.Bounds.MinZ
	l.isFlat = extent < flatTolerance
	dxf.Logger().Info("render: scene loaded",
		"flat", l.isFlat,
		"verticalExtent", extent,
		"batches", len(snap.Batches),
		"layers", len(l.layers),
		"blocks", len(l.blocks),
		"verticesBytes", len(snap.Vertices)*4,
		"indicesBytes", len(snap.Indices)*2,
		"transformsBytes", len(snap.Transforms)*4)

	for _, b := range l.batches {
		if b.Owner != "" {
			continue
		}
		layer := l.layerIndex[b.Key.Layer]
		for d, err := range l.CreateDrawables(b) {
			if err != nil {
				if errors.Is(err, ErrCyclicReference) {
					l.message(slog.LevelWarn, "render: block placement skipped", "err", err)
					continue
				}
				l.Clear()
				return fmt.Errorf("render: load %v: %w", b.Key, err)
			}
			if layer != nil {
				d.Visible = layer.visible
				layer.drawables = append(layer.drawables, d)
			}
			l.drawables = append(l.drawables, d)
		}
	}

	l.emitEvent(Event{Kind: EventLoaded})
	if snap.HasMissingChars {
		l.message(slog.LevelWarn, "Some characters cannot be properly displayed due to missing fonts")
	}
	return nil
}

// Snapshot returns the loaded snapshot, or nil.
func (l *Loader) Snapshot() *scene.Snapshot { return l.snap }

// Batches returns every batch of the loaded snapshot in key order.
func (l *Loader) Batches() []*Batch { return l.batches }

// Block returns the definition of the named block, or nil.
func (l *Loader) Block(name string) *Block { return l.blocks[name] }

// Drawables returns the drawables of all top-level batches in batch
// order.
func (l *Loader) Drawables() []*Drawable { return l.drawables }

// Layers returns the layers in drawing order, colors adjusted for the
// background.
func (l *Loader) Layers() []LayerInfo {
	out := make([]LayerInfo, len(l.layers))
	for i, layer := range l.layers {
		out[i] = LayerInfo{
			Name:      layer.Name,
			Color:     dxf.TransformColor(layer.Color, l.opts.Background, l.opts.colorOptions()),
			Visible:   layer.visible,
			Drawables: len(layer.drawables),
		}
	}
	return out
}

// ShowLayer shows or hides every drawable of the named layer. Unknown
// layers are ignored.
func (l *Loader) ShowLayer(name string, show bool) {
	layer := l.layerIndex[name]
	if layer == nil {
		return
	}
	layer.visible = show
	for _, d := range layer.drawables {
		d.Visible = show
	}
}

// Origin returns the drawing origin subtracted from top-level vertices.
func (l *Loader) Origin() scene.Vec2 {
	if l.snap == nil {
		return scene.Vec2{}
	}
	return l.snap.Origin
}

// Bounds returns the drawing extent in world coordinates.
func (l *Loader) Bounds() scene.Bounds {
	if l.snap == nil {
		return scene.EmptyBounds()
	}
	return l.snap.Bounds
}

// IsFlat reports whether the drawing has no vertical extent.
func (l *Loader) IsFlat() bool { return l.isFlat }

// Materials returns the material library.
func (l *Loader) Materials() *material.Library { return l.materials }

// Clear discards the loaded content and disposes the cached materials
// of an owned library.
func (l *Loader) Clear() {
	l.snap = nil
	l.batches = nil
	l.layers = nil
	l.layerIndex = nil
	l.blocks = nil
	l.drawables = nil
	l.isFlat = false
	if l.ownsMaterials {
		l.materials.Clear()
	}
	l.emitEvent(Event{Kind: EventCleared})
}

// Destroy clears the loader and releases the material library it owns.
// Subscribers receive EventDestroyed and are then dropped.
func (l *Loader) Destroy() {
	l.Clear()
	l.emitEvent(Event{Kind: EventDestroyed})
	if l.ownsMaterials {
		l.materials.Destroy()
	}
	l.subs = nil
}
