package scene

import "math"

// Bounds is an axis-aligned box in drawing units.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// EmptyBounds returns a box that contains nothing; adding a point makes
// it that point.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{MinX: inf, MaxX: -inf, MinY: inf, MaxY: -inf, MinZ: inf, MaxZ: -inf}
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return !(b.MinX <= b.MaxX && b.MinY <= b.MaxY && b.MinZ <= b.MaxZ)
}

// Add extends b to contain the point. Non-finite coordinates are ignored.
func (b *Bounds) Add(x, y, z float64) {
	if !finite(x) || !finite(y) || !finite(z) {
		return
	}
	b.MinX, b.MaxX = min(b.MinX, x), max(b.MaxX, x)
	b.MinY, b.MaxY = min(b.MinY, y), max(b.MaxY, y)
	b.MinZ, b.MaxZ = min(b.MinZ, z), max(b.MaxZ, z)
}

// Union extends b to contain o.
func (b *Bounds) Union(o Bounds) {
	if o.IsEmpty() {
		return
	}
	b.Add(o.MinX, o.MinY, o.MinZ)
	b.Add(o.MaxX, o.MaxY, o.MaxZ)
}

// Transform returns the bounds of b's XY corners mapped through a, with Z
// shifted by dz.
func (b Bounds) Transform(a Affine, dz float64) Bounds {
	out := EmptyBounds()
	if b.IsEmpty() {
		return out
	}
	for _, c := range [4][2]float64{
		{b.MinX, b.MinY}, {b.MaxX, b.MinY}, {b.MinX, b.MaxY}, {b.MaxX, b.MaxY},
	} {
		x, y := a.TransformPoint(c[0], c[1])
		out.Add(x, y, b.MinZ+dz)
		out.Add(x, y, b.MaxZ+dz)
	}
	return out
}

// Width returns the X extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the Y extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Depth returns the Z extent.
func (b Bounds) Depth() float64 { return b.MaxZ - b.MinZ }

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
