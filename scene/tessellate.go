package scene

import (
	"math"

	"github.com/gogpu/dxf/parser"
)

// vec2 is a planar point in object coordinates.
type vec2 struct {
	X, Y float64
}

func (a vec2) add(b vec2) vec2      { return vec2{a.X + b.X, a.Y + b.Y} }
func (a vec2) sub(b vec2) vec2      { return vec2{a.X - b.X, a.Y - b.Y} }
func (a vec2) mul(k float64) vec2   { return vec2{a.X * k, a.Y * k} }
func (a vec2) dot(b vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a vec2) cross(b vec2) float64 { return a.X*b.Y - a.Y*b.X }

func xy(v parser.Vec3) vec2 { return vec2{v.X, v.Y} }

// segments returns how many straight pieces approximate an arc of the
// given sweep. A full turn gets at least MinArcTessellationSubdivisions
// pieces and partial arcs a proportional share of them.
func (o *Options) segments(sweep float64) int {
	sweep = math.Abs(sweep)
	if !(sweep > 0) || !finite(sweep) {
		return 1
	}
	// The slack keeps sweeps that are whole multiples of the angle, up to
	// rounding, from gaining a piece.
	const slack = 1e-9
	n := math.Ceil(sweep/o.ArcTessellationAngle - slack)
	n = max(n, math.Ceil(float64(o.MinArcTessellationSubdivisions)*sweep/(2*math.Pi)-slack), 1)
	return int(min(n, maxArcSegments))
}

const maxArcSegments = 1 << 14

// arc returns n+1 points from start over sweep radians, counter-clockwise
// for positive sweep.
func arc(center vec2, radius, start, sweep float64, n int) []vec2 {
	pts := make([]vec2, n+1)
	for i := range pts {
		a := start + sweep*float64(i)/float64(n)
		sin, cos := math.Sincos(a)
		pts[i] = vec2{center.X + radius*cos, center.Y + radius*sin}
	}
	return pts
}

// ellipseArc samples center + cos(t)*major + sin(t)*minor for n+1 values
// of t from start over sweep.
func ellipseArc(center, major, minor vec2, start, sweep float64, n int) []vec2 {
	pts := make([]vec2, n+1)
	for i := range pts {
		t := start + sweep*float64(i)/float64(n)
		sin, cos := math.Sincos(t)
		pts[i] = center.add(major.mul(cos)).add(minor.mul(sin))
	}
	return pts
}

// bulgeArc returns the points strictly between p1 and p2 on the arc with
// the given bulge. The result is empty for a straight segment.
func (o *Options) bulgeArc(p1, p2 parser.Vec3, bulge float64) []parser.Vec3 {
	a, b := xy(p1), xy(p2)
	chord := b.sub(a)
	c := math.Hypot(chord.X, chord.Y)
	if bulge == 0 || c < 1e-12 || !finite(bulge) {
		return nil
	}
	theta := 4 * math.Atan(bulge)
	// Distance from chord midpoint to the center, positive to the left.
	d := c / 2 * (1 - bulge*bulge) / (2 * bulge)
	normal := vec2{-chord.Y / c, chord.X / c}
	center := a.add(b).mul(0.5).add(normal.mul(d))
	r := math.Hypot(a.X-center.X, a.Y-center.Y)
	start := math.Atan2(a.Y-center.Y, a.X-center.X)

	n := o.segments(theta)
	pts := arc(center, r, start, theta, n)
	out := make([]parser.Vec3, 0, n-1)
	for i := 1; i < n; i++ {
		z := p1.Z + (p2.Z-p1.Z)*float64(i)/float64(n)
		out = append(out, parser.Vec3{X: pts[i].X, Y: pts[i].Y, Z: z})
	}
	return out
}

// expandBulges returns the vertex positions with bulge arcs inserted.
func (o *Options) expandBulges(vs []parser.Vertex, closed bool) []parser.Vec3 {
	out := make([]parser.Vec3, 0, len(vs))
	for i, v := range vs {
		out = append(out, v.Position)
		if v.Bulge == 0 {
			continue
		}
		switch {
		case i+1 < len(vs):
			out = append(out, o.bulgeArc(v.Position, vs[i+1].Position, v.Bulge)...)
		case closed && len(vs) > 1:
			out = append(out, o.bulgeArc(v.Position, vs[0].Position, v.Bulge)...)
		}
	}
	return out
}
