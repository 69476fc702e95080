// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"iter"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/material"
	"github.com/gogpu/dxf/scene"
	"github.com/gogpu/gputypes"
)

// Drawable is one draw call.
//
// Vertices holds xyz positions. Indices is nil for non-indexed geometry.
// Transforms holds one entry per instance: six floats (a 2x3 affine
// matrix, row-major) for InstanceFullTransform, or an xyz position of
// which xy is the translation for InstancePointTranslation.
type Drawable struct {
	// Layer is the layer of the top-level batch the drawable came from.
	Layer string
	Kind  scene.GeometryKind

	Topology    gputypes.PrimitiveTopology
	IndexFormat gputypes.IndexFormat

	Vertices   []float32
	Indices    []uint16
	Instance   material.InstanceKind
	Transforms []float32
	Material   *material.Material

	Visible bool
}

// VertexCount returns the number of vertices.
func (d *Drawable) VertexCount() int { return len(d.Vertices) / 3 }

// InstanceCount returns how many times the geometry is drawn.
func (d *Drawable) InstanceCount() int {
	switch d.Instance {
	case material.InstanceFullTransform:
		return len(d.Transforms) / 6
	case material.InstancePointTranslation:
		return len(d.Transforms) / 3
	}
	return 1
}

// frame is one level of block placement while resolving an instance
// batch. Frames link outward to the top-level instance batch.
type frame struct {
	batch  *Batch
	block  *Block
	parent *frame
	kind   material.InstanceKind
	xf     []float32
	next   int
}

// affines returns the frame placements as affine matrices.
func (f *frame) affines() []scene.Affine {
	var out []scene.Affine
	switch f.kind {
	case material.InstanceFullTransform:
		for i := 0; i+6 <= len(f.xf); i += 6 {
			out = append(out, scene.AffineFromRows(f.xf[i:i+6]))
		}
	case material.InstancePointTranslation:
		for i := 0; i+3 <= len(f.xf); i += 3 {
			out = append(out, scene.TranslateAffine(float64(f.xf[i]), float64(f.xf[i+1])))
		}
	}
	return out
}

// compose returns the placements of instance batch ib inside parent.
// Top-level placements are used as stored; nested ones are multiplied by
// every parent placement, outer first.
func compose(parent *frame, ib *Batch) (material.InstanceKind, []float32) {
	var local []scene.Affine
	switch ib.Key.Kind {
	case scene.GeometryBlockInstance:
		tr := ib.transforms()
		if parent == nil {
			return material.InstanceFullTransform, tr
		}
		for i := 0; i+6 <= len(tr); i += 6 {
			local = append(local, scene.AffineFromRows(tr[i:i+6]))
		}
	case scene.GeometryPointInstance:
		v := ib.vertices()
		if parent == nil {
			return material.InstancePointTranslation, v
		}
		for i := 0; i+3 <= len(v); i += 3 {
			local = append(local, scene.TranslateAffine(float64(v[i]), float64(v[i+1])))
		}
	}
	outer := parent.affines()
	out := make([]float32, 0, len(outer)*len(local)*6)
	for _, o := range outer {
		for _, a := range local {
			r := o.Multiply(a).Rows()
			out = append(out, r[:]...)
		}
	}
	return material.InstanceFullTransform, out
}

// resolveColor resolves c against the placement chain, innermost first.
// BYBLOCK takes the placing batch's color, BYLAYER its layer color.
func resolveColor(c dxf.ColorRef, f *frame) dxf.RGB {
	for ; f != nil; f = f.parent {
		switch c.Kind {
		case dxf.ColorByBlock:
			c = f.batch.Key.Color
		case dxf.ColorByLayer:
			return f.batch.layerColor
		default:
			return c.RGB
		}
	}
	return c.Resolve(dxf.White, dxf.Black)
}

func topology(k scene.GeometryKind) (gputypes.PrimitiveTopology, bool) {
	switch k {
	case scene.GeometryPoints, scene.GeometryPointInstance:
		return gputypes.PrimitiveTopologyPointList, true
	case scene.GeometryLines, scene.GeometryIndexedLines:
		return gputypes.PrimitiveTopologyLineList, true
	case scene.GeometryTriangles, scene.GeometryIndexedTriangles:
		return gputypes.PrimitiveTopologyTriangleList, true
	}
	return 0, false
}

// CreateDrawables returns the drawables of b. Ordinary batches give one
// drawable per chunk. Instance batches give the drawables of every batch
// of the referenced block, nested placements included; an unknown block
// gives none.
//
// The sequence is computed on every iteration. Errors do not end it: a
// cyclic placement yields a *CyclicReferenceError and the walk continues
// with the next batch.
func (l *Loader) CreateDrawables(b *Batch) iter.Seq2[*Drawable, error] {
	return func(yield func(*Drawable, error) bool) {
		if !b.Key.Kind.IsInstance() {
			l.emit(yield, b, nil, b.Key.Layer)
			return
		}
		l.instanceDrawables(b, yield)
	}
}

// CreateDrawablesIn returns the drawables of definition batch b placed
// by instance batch inst. It fails with scene.ErrUnsupportedGeometry
// when b is itself an instance batch or inst is not one.
func (l *Loader) CreateDrawablesIn(b, inst *Batch) iter.Seq2[*Drawable, error] {
	return func(yield func(*Drawable, error) bool) {
		switch {
		case b.Key.Kind.IsInstance():
			yield(nil, &scene.UnsupportedGeometryError{Key: b.Key, Reason: "instance batch placed by another instance batch"})
			return
		case !inst.Key.Kind.IsInstance():
			yield(nil, &scene.UnsupportedGeometryError{Key: inst.Key, Reason: "not an instance batch"})
			return
		}
		kind, xf := compose(nil, inst)
		f := &frame{batch: inst, kind: kind, xf: xf}
		l.emit(yield, b, f, inst.Key.Layer)
	}
}

// emit yields the drawables of b and reports whether the consumer wants
// more.
func (l *Loader) emit(yield func(*Drawable, error) bool, b *Batch, f *frame, layer string) bool {
	ds, err := l.batchDrawables(b, f, layer)
	if err != nil {
		return yield(nil, err)
	}
	for _, d := range ds {
		if !yield(d, nil) {
			return false
		}
	}
	return true
}

// instanceDrawables walks the placement tree of root depth first with an
// explicit stack. onPath holds the blocks of the current branch.
func (l *Loader) instanceDrawables(root *Batch, yield func(*Drawable, error) bool) {
	block := l.blocks[root.Key.Block]
	if block == nil {
		return
	}
	layer := root.Key.Layer
	kind, xf := compose(nil, root)
	stack := []*frame{{batch: root, block: block, kind: kind, xf: xf}}
	onPath := map[string]bool{block.Name: true}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next == len(f.block.Batches) {
			stack = stack[:len(stack)-1]
			delete(onPath, f.block.Name)
			if f.batch.Key.Kind == scene.GeometryPointInstance && l.snap.PointShapeHasDot {
				if !l.emit(yield, f.batch, f.parent, layer) {
					return
				}
			}
			continue
		}
		def := f.block.Batches[f.next]
		f.next++

		if !def.Key.Kind.IsInstance() {
			if !l.emit(yield, def, f, layer) {
				return
			}
			continue
		}
		child := l.blocks[def.Key.Block]
		if child == nil {
			continue
		}
		if onPath[child.Name] {
			path := make([]string, 0, len(stack)+1)
			for _, s := range stack {
				path = append(path, s.block.Name)
			}
			if !yield(nil, &CyclicReferenceError{Path: append(path, child.Name)}) {
				return
			}
			continue
		}
		kind, xf := compose(f, def)
		if len(xf) == 0 {
			continue
		}
		stack = append(stack, &frame{batch: def, block: child, parent: f, kind: kind, xf: xf})
		onPath[child.Name] = true
	}
}

// batchDrawables builds the draw calls of geometry batch b placed by f, or
// drawn directly when f is nil. Point instance batches passed here are
// drawn as plain points (the dots of point shapes).
func (l *Loader) batchDrawables(b *Batch, f *frame, layer string) ([]*Drawable, error) {
	topo, ok := topology(b.Key.Kind)
	if !ok {
		return nil, &scene.UnsupportedGeometryError{Key: b.Key}
	}
	color := dxf.TransformColor(resolveColor(b.Key.Color, f), l.opts.Background, l.opts.colorOptions())
	inst, xf := material.InstanceNone, []float32(nil)
	if f != nil {
		inst, xf = f.kind, f.xf
	}
	var mat *material.Material
	switch b.Key.Kind {
	case scene.GeometryPoints, scene.GeometryPointInstance:
		mat = l.materials.PointMaterial(color, inst, l.opts.PointSize)
	default:
		mat = l.materials.ColorMaterial(color, inst)
	}

	base := Drawable{
		Layer:      layer,
		Kind:       b.Key.Kind,
		Topology:   topo,
		Instance:   inst,
		Transforms: xf,
		Material:   mat,
		Visible:    true,
	}
	if !b.Key.Kind.IsIndexed() {
		d := base
		d.Vertices = b.vertices()
		return []*Drawable{&d}, nil
	}
	out := make([]*Drawable, 0, len(b.Chunks))
	for _, c := range b.Chunks {
		d := base
		d.Vertices = l.snap.VerticesOf(c.Vertices)
		d.Indices = l.snap.IndicesOf(c.Indices)
		d.IndexFormat = gputypes.IndexFormatUint16
		out = append(out, &d)
	}
	return out, nil
}
