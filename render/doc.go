// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns scene snapshots into drawables ready for upload.
//
// A Loader takes a [scene.Snapshot], indexes its block definitions and
// layers, and resolves every top-level batch into [Drawable] values. A
// drawable is one draw call: a vertex range, optional 16-bit indices,
// optional per-instance transforms and a shared [material.Material].
//
// # Instance Resolution
//
// Block instance batches do not carry geometry. Each definition batch of
// the referenced block is drawn once per placement, with its colors
// resolved against the instance batch:
//
//   - BYBLOCK takes the color of the instance batch
//   - BYLAYER takes the color of the instance batch's layer
//   - literal colors are kept
//
// Blocks may place other blocks. Nested placements compose their
// transforms outer first, and BYBLOCK colors keep resolving outward
// until a literal color is found. A block that places itself, directly
// or through other blocks, yields a [CyclicReferenceError] for that
// branch; the remaining geometry is still produced.
//
// # Usage
//
//	loader := render.NewLoader(render.DefaultOptions())
//	defer loader.Destroy()
//	if err := loader.Load(snap); err != nil {
//	    return err
//	}
//	for _, d := range loader.Drawables() {
//	    if d.Visible {
//	        draw(d.Topology, d.Vertices, d.Indices, d.Transforms, d.Material)
//	    }
//	}
//
// Loader values are not safe for concurrent use.
package render
