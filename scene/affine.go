package scene

import "math"

// Affine is a 2D affine transformation stored row-major as
//
//	[A B C]
//	[D E F]
//
// so a point maps to (A*x + B*y + C, D*x + E*y + F).
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// IdentityAffine returns the identity transformation.
func IdentityAffine() Affine {
	return Affine{A: 1, E: 1}
}

// TranslateAffine creates a translation transformation.
func TranslateAffine(x, y float64) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// ScaleAffine creates a scaling transformation.
func ScaleAffine(x, y float64) Affine {
	return Affine{A: x, E: y}
}

// RotateAffine creates a counter-clockwise rotation (angle in radians).
func RotateAffine(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return Affine{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns a·b, which applies b first.
func (a Affine) Multiply(b Affine) Affine {
	return Affine{
		A: a.A*b.A + a.B*b.D,
		B: a.A*b.B + a.B*b.E,
		C: a.A*b.C + a.B*b.F + a.C,
		D: a.D*b.A + a.E*b.D,
		E: a.D*b.B + a.E*b.E,
		F: a.D*b.C + a.E*b.F + a.F,
	}
}

// TransformPoint transforms a point by the affine matrix.
func (a Affine) TransformPoint(x, y float64) (float64, float64) {
	return a.A*x + a.B*y + a.C, a.D*x + a.E*y + a.F
}

// IsIdentity returns true if this is the identity transformation.
func (a Affine) IsIdentity() bool {
	return a == IdentityAffine()
}

// Rows returns the matrix as the six floats written to transform buffers.
func (a Affine) Rows() [6]float32 {
	return [6]float32{
		float32(a.A), float32(a.B), float32(a.C),
		float32(a.D), float32(a.E), float32(a.F),
	}
}

// AffineFromRows is the inverse of Rows.
func AffineFromRows(r []float32) Affine {
	_ = r[5]
	return Affine{
		A: float64(r[0]), B: float64(r[1]), C: float64(r[2]),
		D: float64(r[3]), E: float64(r[4]), F: float64(r[5]),
	}
}
