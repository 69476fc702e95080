package scene

import (
	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/parser"
)

// target is the space geometry is emitted into: the top level, or the
// definition of block owner.
type target struct {
	owner  string
	base   parser.Vec3
	bounds *Bounds
}

func (s *build) blockTarget(name string, base parser.Vec3) *target {
	b, ok := s.blockBounds[name]
	if !ok {
		eb := EmptyBounds()
		b = &eb
		s.blockBounds[name] = b
	}
	return &target{owner: name, base: base, bounds: b}
}

// local converts a world or block point into buffer coordinates and
// extends the bounds of the target space.
func (s *build) local(t *target, p parser.Vec3) vec3f {
	if t.owner != "" {
		l := sub(p, t.base)
		t.bounds.Add(l.X, l.Y, l.Z)
		return vec3f{float32(l.X), float32(l.Y), float32(l.Z)}
	}
	if !s.hasOrigin {
		if !finite(p.X) || !finite(p.Y) {
			return vec3f{}
		}
		s.origin = vec2{p.X, p.Y}
		s.hasOrigin = true
	}
	s.bounds.Add(p.X, p.Y, p.Z)
	return vec3f{float32(p.X - s.origin.X), float32(p.Y - s.origin.Y), float32(p.Z)}
}

// extend adds p to the bounds of the target space without emitting it.
func (s *build) extend(t *target, p parser.Vec3) {
	if t.owner != "" {
		l := sub(p, t.base)
		t.bounds.Add(l.X, l.Y, l.Z)
		return
	}
	s.bounds.Add(p.X, p.Y, p.Z)
}

// color resolves the inheritance markers of top-level geometry. Inside a
// block definition they are kept for resolution at the reference.
func (s *build) color(t *target, props *parser.Properties) dxf.ColorRef {
	c := props.Color
	if t.owner != "" {
		return c
	}
	switch c.Kind {
	case dxf.ColorByLayer:
		if l, ok := s.doc.Layer(props.Layer); ok {
			return dxf.Literal(l.Color)
		}
		return dxf.Literal(dxf.Black)
	case dxf.ColorByBlock:
		return dxf.Literal(dxf.White)
	}
	return c
}

func (s *build) key(t *target, kind GeometryKind, props *parser.Properties) GeometryKey {
	k := GeometryKey{Kind: kind, Layer: props.Layer, Color: s.color(t, props)}
	if t.owner != "" && !kind.IsInstance() {
		k.Block = t.owner
	}
	return k
}

func (s *build) batch(t *target, kind GeometryKind, props *parser.Properties) *batch {
	return s.batches.get(s.key(t, kind, props), t.owner)
}

func (s *build) emitPoint(t *target, props *parser.Properties, p parser.Vec3) {
	s.batch(t, GeometryPoints, props).push(s.local(t, p))
}

func (s *build) emitLine(t *target, props *parser.Properties, a, b parser.Vec3) {
	bt := s.batch(t, GeometryLines, props)
	bt.push(s.local(t, a))
	bt.push(s.local(t, b))
}

// emitPolyline emits a connected run of segments. Runs longer than a
// chunk are split into pieces sharing their end vertices.
func (s *build) emitPolyline(t *target, props *parser.Properties, pts []parser.Vec3, closed bool) {
	if len(pts) < 2 {
		return
	}
	if closed && len(pts) > 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if closed && len(pts) < 3 {
		closed = false
	}
	bt := s.batch(t, GeometryIndexedLines, props)
	if len(pts) > MaxChunkVertices {
		if closed {
			pts = append(pts[:len(pts):len(pts)], pts[0])
		}
		for start := 0; start < len(pts)-1; start += MaxChunkVertices - 1 {
			end := min(start+MaxChunkVertices, len(pts))
			s.pushPolyline(t, bt, pts[start:end], false)
		}
		return
	}
	s.pushPolyline(t, bt, pts, closed)
}

func (s *build) pushPolyline(t *target, bt *batch, pts []parser.Vec3, closed bool) {
	verts := make([]vec3f, len(pts))
	for i, p := range pts {
		verts[i] = s.local(t, p)
	}
	n := len(pts)
	indices := make([]int, 0, 2*n)
	for i := 0; i+1 < n; i++ {
		indices = append(indices, i, i+1)
	}
	if closed {
		indices = append(indices, n-1, 0)
	}
	bt.pushIndexed(verts, indices)
}

func (s *build) emitTriangle(t *target, props *parser.Properties, a, b, c parser.Vec3) {
	bt := s.batch(t, GeometryTriangles, props)
	bt.push(s.local(t, a))
	bt.push(s.local(t, b))
	bt.push(s.local(t, c))
}

// emitMesh emits an indexed triangle list. Meshes too large for one chunk
// are expanded into plain triangles.
func (s *build) emitMesh(t *target, props *parser.Properties, pts []parser.Vec3, tris []int) {
	if len(tris) < 3 {
		return
	}
	if len(pts) > MaxChunkVertices {
		for i := 0; i+2 < len(tris); i += 3 {
			s.emitTriangle(t, props, pts[tris[i]], pts[tris[i+1]], pts[tris[i+2]])
		}
		return
	}
	verts := make([]vec3f, len(pts))
	for i, p := range pts {
		verts[i] = s.local(t, p)
	}
	s.batch(t, GeometryIndexedTriangles, props).pushIndexed(verts, tris)
}

// emitInstance records one placement of block. xf maps block coordinates
// to world coordinates (top level) or to the owner's coordinates.
func (s *build) emitInstance(t *target, props *parser.Properties, block string, xf Affine, z float64) {
	bt := s.batches.get(GeometryKey{
		Kind:  GeometryBlockInstance,
		Layer: props.Layer,
		Color: s.color(t, props),
		Block: block,
	}, t.owner)

	if t.owner != "" {
		local := TranslateAffine(-t.base.X, -t.base.Y).Multiply(xf)
		s.nested[t.owner] = append(s.nested[t.owner], placement{block, local, z - t.base.Z})
		bt.pushTransform(local)
		return
	}
	if !s.hasOrigin {
		s.origin = vec2{xf.C, xf.F}
		s.hasOrigin = finite(xf.C) && finite(xf.F)
	}
	s.top = append(s.top, placement{block, xf, z})
	bt.pushTransform(TranslateAffine(-s.origin.X, -s.origin.Y).Multiply(xf))
}
