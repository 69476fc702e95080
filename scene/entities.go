package scene

import (
	"math"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/parser"
)

func (s *build) entity(t *target, e parser.Entity) {
	switch e := e.(type) {
	case *parser.Line:
		s.emitLine(t, e.Props(), e.Start, e.End)
	case *parser.Point:
		s.point(t, e)
	case *parser.Circle:
		s.circle(t, e)
	case *parser.Ellipse:
		s.ellipse(t, e)
	case *parser.Polyline:
		s.polyline(t, e)
	case *parser.Insert:
		s.insert(t, e)
	case *parser.Text:
		s.text(t, e)
	case *parser.Solid:
		s.solid(t, e)
	case *parser.Hatch:
		s.hatch(t, e)
	default:
		s.warnOnce("type:"+e.Type(), "unsupported entity type", "type", e.Type())
	}
}

func (s *build) circle(t *target, e *parser.Circle) {
	if !(e.Radius > 0) {
		return
	}
	o := newOCS(e.Extrusion)
	center := xy(e.Center)
	full := !e.IsArc || e.AngleLength == 0 || e.AngleLength >= 2*math.Pi
	sweep := e.AngleLength
	if full {
		sweep = 2 * math.Pi
	}
	n := s.opts.segments(sweep)
	if full {
		n = max(n, 3)
	}
	pts := arc(center, e.Radius, e.StartAngle, sweep, n)
	if full {
		pts = pts[:n]
	}
	s.emitPolyline(t, e.Props(), toWCS(o, pts, e.Center.Z), full)
}

func (s *build) ellipse(t *target, e *parser.Ellipse) {
	major := xy(e.MajorAxis)
	if major.dot(major) == 0 {
		return
	}
	// Ellipses are defined in world coordinates; the minor axis is the
	// major axis turned a quarter around the extrusion direction.
	n3 := e.Extrusion
	if length(n3) == 0 {
		n3 = parser.UnitZ
	}
	n3 = scale(n3, 1/length(n3))
	minor3 := scale(cross(n3, e.MajorAxis), e.Ratio)

	sweep := parser.SweepAngle(e.StartParam, e.EndParam)
	if sweep == 0 {
		sweep = 2 * math.Pi
	}
	full := math.Abs(sweep-2*math.Pi) < 1e-9
	n := max(s.opts.segments(sweep), 3)

	pts := make([]parser.Vec3, 0, n+1)
	for i := range n + 1 {
		if full && i == n {
			break
		}
		p := e.StartParam + sweep*float64(i)/float64(n)
		sin, cos := math.Sincos(p)
		pts = append(pts, add(e.Center, add(scale(e.MajorAxis, cos), scale(minor3, sin))))
	}
	s.emitPolyline(t, e.Props(), pts, full)
}

func (s *build) polyline(t *target, e *parser.Polyline) {
	if e.IsMesh() {
		s.warnOnce("type:POLYLINE mesh", "unsupported entity type", "type", "POLYLINE mesh")
		return
	}
	vs := e.Vertices
	if e.Legacy && e.Flags&8 == 0 {
		vs = make([]parser.Vertex, len(e.Vertices))
		for i, v := range e.Vertices {
			v.Position.Z = e.Elevation
			vs[i] = v
		}
	}
	pts := s.opts.expandBulges(vs, e.Closed)
	if !(e.Legacy && e.Flags&8 != 0) {
		o := newOCS(e.Extrusion)
		for i := range pts {
			pts[i] = o.toWCS(pts[i])
		}
	}
	s.emitPolyline(t, e.Props(), pts, e.Closed)
}

func (s *build) solid(t *target, e *parser.Solid) {
	c := e.Corners
	s.emitTriangle(t, e.Props(), c[0], c[1], c[2])
	if !e.IsTriangle() {
		s.emitTriangle(t, e.Props(), c[0], c[2], c[3])
	}
}

func (s *build) insert(t *target, e *parser.Insert) {
	if e.Block == "" {
		return
	}
	if _, ok := s.doc.Block(e.Block); !ok {
		s.warnOnce("block:"+e.Block, "reference to undefined block", "block", e.Block)
	}
	if e.Dimension {
		// Dimension blocks are drawn in world coordinates.
		s.emitInstance(t, e.Props(), e.Block, IdentityAffine(), 0)
		return
	}
	o := newOCS(e.Extrusion)
	pos := o.toWCS(e.Position)
	sx, sy := e.Scale.X, e.Scale.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	// Definitions are stored relative to the block base point, so the
	// placement needs no base offset.
	place := TranslateAffine(pos.X, pos.Y).
		Multiply(o.affine()).
		Multiply(RotateAffine(e.Rotation))
	for r := range max(e.Rows, 1) {
		for c := range max(e.Columns, 1) {
			cell := TranslateAffine(float64(c)*e.ColumnSpacing, float64(r)*e.RowSpacing)
			xf := place.Multiply(cell).Multiply(ScaleAffine(sx, sy))
			s.emitInstance(t, e.Props(), e.Block, xf, pos.Z)
		}
	}
}

// point emits a POINT as a dot or as an instance of the point shape.
func (s *build) point(t *target, e *parser.Point) {
	mode := s.doc.Header.PDMode
	shape, frame := mode&7, mode&(32|64)
	switch {
	case shape == 0 && frame == 0:
		s.emitPoint(t, e.Props(), e.Position)
		return
	case shape == 1 && frame == 0:
		return
	}
	s.buildPointShape(shape, frame)
	key := GeometryKey{
		Kind:  GeometryPointInstance,
		Layer: e.Props().Layer,
		Color: s.color(t, e.Props()),
		Block: PointShapeBlock,
	}
	s.batches.get(key, t.owner).push(s.local(t, e.Position))
	r := s.pointSize() / 2
	s.extend(t, parser.Vec3{X: e.Position.X - r, Y: e.Position.Y - r, Z: e.Position.Z})
	s.extend(t, parser.Vec3{X: e.Position.X + r, Y: e.Position.Y + r, Z: e.Position.Z})
}

func (s *build) pointSize() float64 {
	if size := s.doc.Header.PDSize; size > 0 {
		return size
	}
	return s.opts.PointSize
}

// buildPointShape emits the definition of PointShapeBlock once per build.
func (s *build) buildPointShape(shape, frame int) {
	if s.pointShapeBuilt {
		return
	}
	s.pointShapeBuilt = true
	s.pointShapeHasDot = shape == 0

	t := s.blockTarget(PointShapeBlock, parser.Vec3{})
	props := &parser.Properties{Layer: "0", Color: dxf.ByBlock}
	r := s.pointSize() / 2
	p := func(x, y float64) parser.Vec3 { return parser.Vec3{X: x, Y: y} }

	switch shape {
	case 2:
		s.emitLine(t, props, p(-r, 0), p(r, 0))
		s.emitLine(t, props, p(0, -r), p(0, r))
	case 3:
		s.emitLine(t, props, p(-r, -r), p(r, r))
		s.emitLine(t, props, p(-r, r), p(r, -r))
	case 4:
		s.emitLine(t, props, p(0, 0), p(0, r))
	}
	if frame&32 != 0 {
		n := max(s.opts.segments(2*math.Pi), 3)
		pts := arc(vec2{}, r, 0, 2*math.Pi, n)[:n]
		s.emitPolyline(t, props, toWCS(ocs{identity: true}, pts, 0), true)
	}
	if frame&64 != 0 {
		s.emitPolyline(t, props, []parser.Vec3{p(-r, -r), p(r, -r), p(r, r), p(-r, r)}, true)
	}
}

func toWCS(o ocs, pts []vec2, z float64) []parser.Vec3 {
	out := make([]parser.Vec3, len(pts))
	for i, p := range pts {
		out[i] = o.toWCS(parser.Vec3{X: p.X, Y: p.Y, Z: z})
	}
	return out
}
