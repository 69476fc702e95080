package scene

import (
	"math"

	"github.com/gogpu/dxf/parser"
)

// ocs maps object coordinates to world coordinates for an extrusion
// direction, using the DXF arbitrary axis algorithm.
type ocs struct {
	ax, ay, az parser.Vec3
	identity   bool
}

const arbitraryAxisLimit = 1.0 / 64

func newOCS(n parser.Vec3) ocs {
	l := length(n)
	if l == 0 || !finite(l) {
		return ocs{identity: true}
	}
	n = scale(n, 1/l)
	if math.Abs(n.X) < 1e-12 && math.Abs(n.Y) < 1e-12 && n.Z > 0 {
		return ocs{identity: true}
	}
	var ax parser.Vec3
	if math.Abs(n.X) < arbitraryAxisLimit && math.Abs(n.Y) < arbitraryAxisLimit {
		ax = cross(parser.Vec3{Y: 1}, n)
	} else {
		ax = cross(parser.Vec3{Z: 1}, n)
	}
	ax = scale(ax, 1/length(ax))
	ay := cross(n, ax)
	ay = scale(ay, 1/length(ay))
	return ocs{ax: ax, ay: ay, az: n}
}

func (o ocs) toWCS(p parser.Vec3) parser.Vec3 {
	if o.identity {
		return p
	}
	return parser.Vec3{
		X: p.X*o.ax.X + p.Y*o.ay.X + p.Z*o.az.X,
		Y: p.X*o.ax.Y + p.Y*o.ay.Y + p.Z*o.az.Y,
		Z: p.X*o.ax.Z + p.Y*o.ay.Z + p.Z*o.az.Z,
	}
}

// affine returns the XY part of the mapping. It is exact for extrusions
// along ±Z and a projection otherwise.
func (o ocs) affine() Affine {
	if o.identity {
		return IdentityAffine()
	}
	return Affine{A: o.ax.X, B: o.ay.X, D: o.ax.Y, E: o.ay.Y}
}

func cross(a, b parser.Vec3) parser.Vec3 {
	return parser.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func length(v parser.Vec3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func scale(v parser.Vec3, k float64) parser.Vec3 {
	return parser.Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

func add(a, b parser.Vec3) parser.Vec3 {
	return parser.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func sub(a, b parser.Vec3) parser.Vec3 {
	return parser.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}
