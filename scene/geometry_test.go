package scene

import (
	"math"
	"testing"

	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/pattern"
)

const eps = 1e-9

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestAffineMultiplyOrder(t *testing.T) {
	// Scale first, then translate.
	m := TranslateAffine(10, 5).Multiply(ScaleAffine(2, 3))
	x, y := m.TransformPoint(1, 1)
	if !near(x, 12, eps) || !near(y, 8, eps) {
		t.Errorf("TransformPoint(1, 1) = (%v, %v), want (12, 8)", x, y)
	}
	r := RotateAffine(math.Pi / 2)
	x, y = r.TransformPoint(1, 0)
	if !near(x, 0, eps) || !near(y, 1, eps) {
		t.Errorf("rotate(1, 0) = (%v, %v), want (0, 1)", x, y)
	}
	if got := IdentityAffine().Multiply(m); got != m {
		t.Errorf("I·m = %+v, want %+v", got, m)
	}
	rows := m.Rows()
	if got := AffineFromRows(rows[:]); got != m {
		t.Errorf("AffineFromRows(Rows()) = %+v, want %+v", got, m)
	}
}

func TestBounds(t *testing.T) {
	b := EmptyBounds()
	if !b.IsEmpty() {
		t.Fatal("EmptyBounds() not empty")
	}
	b.Add(math.NaN(), 0, 0)
	b.Add(math.Inf(1), 0, 0)
	if !b.IsEmpty() {
		t.Fatal("non-finite point extended bounds")
	}
	b.Add(1, 2, 3)
	b.Add(-1, 4, 3)
	if b.Width() != 2 || b.Height() != 2 || b.Depth() != 0 {
		t.Errorf("size = %v x %v x %v, want 2 x 2 x 0", b.Width(), b.Height(), b.Depth())
	}

	tb := b.Transform(TranslateAffine(10, 0).Multiply(ScaleAffine(2, 2)), 1)
	want := Bounds{MinX: 8, MaxX: 12, MinY: 4, MaxY: 8, MinZ: 4, MaxZ: 4}
	if tb != want {
		t.Errorf("Transform() = %+v, want %+v", tb, want)
	}
	if got := EmptyBounds().Transform(IdentityAffine(), 0); !got.IsEmpty() {
		t.Errorf("transformed empty bounds = %+v", got)
	}

	u := EmptyBounds()
	u.Union(EmptyBounds())
	u.Union(b)
	if u != b {
		t.Errorf("Union() = %+v, want %+v", u, b)
	}
}

func TestSegments(t *testing.T) {
	o := DefaultOptions()
	tests := []struct {
		sweep float64
		want  int
	}{
		{2 * math.Pi, 36},
		{math.Pi / 18 * 2, 2},
		{1e-6, 1},
		{0, 1},
		{-math.Pi, 18},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := o.segments(tt.sweep); got != tt.want {
			t.Errorf("segments(%v) = %d, want %d", tt.sweep, got, tt.want)
		}
	}

	coarse := Options{ArcTessellationAngle: math.Pi, MinArcTessellationSubdivisions: 8}
	if got := coarse.segments(2 * math.Pi); got != 8 {
		t.Errorf("coarse full circle = %d segments, want 8", got)
	}
	if got := coarse.segments(math.Pi / 2); got != 2 {
		t.Errorf("coarse quarter circle = %d segments, want 2", got)
	}
}

func TestBulgeArc(t *testing.T) {
	o := DefaultOptions()
	// Bulge 1 is a counter-clockwise half circle; from (0,0) to (2,0) it
	// passes below the chord.
	pts := o.bulgeArc(parser.Vec3{}, parser.Vec3{X: 2}, 1)
	if len(pts) != 17 {
		t.Fatalf("got %d interior points, want 17", len(pts))
	}
	for _, p := range pts {
		if r := math.Hypot(p.X-1, p.Y); !near(r, 1, 1e-9) {
			t.Errorf("point %+v at radius %v, want 1", p, r)
		}
		if p.Y > 0 {
			t.Errorf("point %+v above the chord", p)
		}
	}
	mid := pts[8]
	if !near(mid.X, 1, 1e-9) || !near(mid.Y, -1, 1e-9) {
		t.Errorf("mid point = %+v, want (1, -1)", mid)
	}

	if got := o.bulgeArc(parser.Vec3{}, parser.Vec3{X: 2}, 0); got != nil {
		t.Errorf("zero bulge = %v, want nil", got)
	}
	if got := o.bulgeArc(parser.Vec3{X: 1}, parser.Vec3{X: 1}, 1); got != nil {
		t.Errorf("zero chord = %v, want nil", got)
	}
}

func TestExpandBulgesClosed(t *testing.T) {
	o := DefaultOptions()
	vs := []parser.Vertex{
		{Position: parser.Vec3{X: 0}},
		{Position: parser.Vec3{X: 2}, Bulge: 1},
	}
	open := o.expandBulges(vs, false)
	if len(open) != 2 {
		t.Errorf("open polyline = %d points, want 2", len(open))
	}
	closed := o.expandBulges(vs, true)
	if len(closed) != 2+17 {
		t.Errorf("closed polyline = %d points, want 19", len(closed))
	}
}

func triangleArea(pts []vec2, tris []int) float64 {
	var a float64
	for i := 0; i+2 < len(tris); i += 3 {
		p, q, r := pts[tris[i]], pts[tris[i+1]], pts[tris[i+2]]
		a += q.sub(p).cross(r.sub(p)) / 2
	}
	return a
}

func square(x0, y0, x1, y1 float64) []vec2 {
	return []vec2{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestTriangulate(t *testing.T) {
	ring := make([]vec2, 36)
	for i := range ring {
		s, c := math.Sincos(float64(i) * math.Pi / 18)
		ring[i] = vec2{2 * c, 2 * s}
	}
	tests := []struct {
		name  string
		loops [][]vec2
		area  float64
	}{
		{"square", [][]vec2{square(0, 0, 10, 10)}, 100},
		{"clockwise square", [][]vec2{{{0, 0}, {0, 10}, {10, 10}, {10, 0}}}, 100},
		{"hole", [][]vec2{square(0, 0, 10, 10), square(2, 2, 4, 4)}, 96},
		{"two holes", [][]vec2{square(0, 0, 10, 10), square(2, 2, 4, 4), square(6, 6, 8, 8)}, 92},
		{"island in hole", [][]vec2{square(0, 0, 10, 10), square(2, 2, 8, 8), square(4, 4, 6, 6)}, 68},
		{"concave", [][]vec2{{{0, 0}, {10, 0}, {10, 2}, {2, 2}, {2, 10}, {0, 10}}}, 36},
		{"round hole", [][]vec2{square(-5, -5, 5, 5), ring}, 100 - 36*math.Sin(math.Pi/18)*2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, tris := triangulate(tt.loops)
			if len(tris)%3 != 0 {
				t.Fatalf("%d indices, not a triangle list", len(tris))
			}
			if got := triangleArea(pts, tris); !near(got, tt.area, 1e-9) {
				t.Errorf("area = %v, want %v", got, tt.area)
			}
		})
	}
}

func TestHatchLinesEvenOdd(t *testing.T) {
	fams := []family{{dir: vec2{1, 0}, offset: vec2{0, 1}}}
	loops := [][]vec2{square(0, 0, 10, 10), square(4, 4, 6, 6)}
	h := hatchLines(loops, fams, 1000, 1000)
	segs := h.segs
	if h.truncated || h.overflow || len(h.dots) != 0 {
		t.Fatalf("truncated = %v, overflow = %v, dots = %d", h.truncated, h.overflow, len(h.dots))
	}
	// Lines y = 0..9; y = 4 and 5 are split by the hole, y = 10 only
	// touches the boundary.
	if len(segs) != 12 {
		t.Fatalf("got %d segments, want 12", len(segs))
	}
	var total float64
	for _, s := range segs {
		if s[0].Y != s[1].Y {
			t.Errorf("segment %v not horizontal", s)
		}
		total += s[1].X - s[0].X
	}
	if !near(total, 96, 1e-9) {
		t.Errorf("total length = %v, want 96", total)
	}
}

func TestHatchLinesCap(t *testing.T) {
	fams := []family{{dir: vec2{1, 0}, offset: vec2{0, 0.001}}}
	h := hatchLines([][]vec2{square(0, 0, 10, 10)}, fams, 100, 1000)
	if !h.truncated {
		t.Error("dense pattern not reported as truncated")
	}
	if len(h.segs) != 100 {
		t.Errorf("got %d segments, want 100", len(h.segs))
	}
}

func TestHatchLinesSegmentBudget(t *testing.T) {
	// 10 lines of 10 units, each dashed every 0.01 units.
	fams := []family{{dir: vec2{1, 0}, offset: vec2{0, 1}, dashes: []float64{0.005, -0.005}}}
	loops := [][]vec2{square(0, 0, 10, 10)}

	h := hatchLines(loops, fams, 1000, 1000)
	if !h.overflow {
		t.Fatal("dash expansion over budget not reported")
	}
	if len(h.segs) != 0 || len(h.dots) != 0 {
		t.Errorf("overflowing hatch kept %d segments, %d dots", len(h.segs), len(h.dots))
	}

	h = hatchLines(loops, fams, 1000, 1<<20)
	if h.overflow {
		t.Fatal("hatch within budget reported overflow")
	}
	if len(h.segs) < 10000 {
		t.Errorf("got %d dashes, want at least 10000", len(h.segs))
	}
}

func TestHatchLinesDotsOnly(t *testing.T) {
	fams := []family{{dir: vec2{1, 0}, offset: vec2{0, 2}, dashes: []float64{0}}}
	h := hatchLines([][]vec2{square(0, 1, 9, 9)}, fams, 1000, 1000)
	if len(h.segs) != 0 {
		t.Errorf("dot pattern drew %d segments", len(h.segs))
	}
	// Lines y = 2, 4, 6, 8 with dots every 2 units at x = 0, 2, 4, 6, 8.
	if len(h.dots) != 20 {
		t.Errorf("got %d dots, want 20", len(h.dots))
	}
	for _, d := range h.dots {
		if math.Mod(d.X, 2) != 0 || math.Mod(d.Y, 2) != 0 {
			t.Errorf("dot %v off the 2 unit grid", d)
		}
	}
}

func TestDash(t *testing.T) {
	segs, dots := dash(nil, nil, vec2{}, vec2{1, 0}, 0.5, 4.5, []float64{1, -1}, 2)
	want := [][2]float64{{0.5, 1}, {2, 3}, {4, 4.5}}
	if len(segs) != len(want) || len(dots) != 0 {
		t.Fatalf("dash() = %v, %v; want %v", segs, dots, want)
	}
	for i, w := range want {
		if !near(segs[i][0].X, w[0], eps) || !near(segs[i][1].X, w[1], eps) {
			t.Errorf("segment %d = %v, want %v", i, segs[i], w)
		}
	}

	_, dots = dash(nil, nil, vec2{}, vec2{1, 0}, 0, 3, []float64{0, -1}, 1)
	if len(dots) != 3 {
		t.Errorf("got %d dots, want 3", len(dots))
	}

	segs, _ = dash(nil, nil, vec2{}, vec2{1, 0}, 0, 3, nil, 0)
	if len(segs) != 1 {
		t.Errorf("continuous line = %d segments, want 1", len(segs))
	}
}

func TestPatFamiliesOffsetFrame(t *testing.T) {
	// A 90 degree line with offset (0, 1) in its own frame steps along -X.
	p := &pattern.Pattern{Name: "T", Lines: []pattern.Line{{
		Angle:  90,
		Offset: pattern.Point{Y: 1},
		Dashes: []float64{0.5, -0.5},
	}}}
	fams := patFamilies(p, 0, 2)
	f := fams[0]
	if !near(f.offset.X, -2, eps) || !near(f.offset.Y, 0, eps) {
		t.Errorf("offset = %+v, want (-2, 0)", f.offset)
	}
	if !near(f.dashes[0], 1, eps) || !near(f.dashes[1], -1, eps) {
		t.Errorf("dashes = %v, want [1 -1]", f.dashes)
	}
}

func TestPushIndexedChunking(t *testing.T) {
	b := &batch{key: GeometryKey{Kind: GeometryIndexedLines}}
	const quads = 30000
	for i := range quads {
		x := float32(i)
		b.pushIndexed([]vec3f{{x, 0, 0}, {x + 1, 0, 0}, {x + 1, 1, 0}, {x, 1, 0}},
			[]int{0, 1, 1, 2, 2, 3, 3, 0})
	}
	if len(b.chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(b.chunks))
	}
	if b.chunks[0].vCount != MaxChunkVertices {
		t.Errorf("first chunk = %d vertices, want %d", b.chunks[0].vCount, MaxChunkVertices)
	}
	if got := b.chunks[0].vCount + b.chunks[1].vCount; got != 4*quads {
		t.Errorf("chunk vertices = %d, want %d", got, 4*quads)
	}
	if b.chunks[1].vStart != b.chunks[0].vCount {
		t.Errorf("second chunk starts at %d, want %d", b.chunks[1].vStart, b.chunks[0].vCount)
	}
	for _, c := range b.chunks {
		for _, ix := range b.indices[c.iStart : c.iStart+c.iCount] {
			if int(ix) >= c.vCount {
				t.Fatalf("index %d outside chunk of %d vertices", ix, c.vCount)
			}
		}
	}
}

func TestOCS(t *testing.T) {
	if o := newOCS(parser.UnitZ); !o.identity {
		t.Error("+Z extrusion is not the identity")
	}
	// A -Z extrusion mirrors X.
	o := newOCS(parser.Vec3{Z: -1})
	p := o.toWCS(parser.Vec3{X: 1, Y: 2, Z: 3})
	if !near(p.X, -1, eps) || !near(p.Y, 2, eps) || !near(p.Z, -3, eps) {
		t.Errorf("toWCS = %+v, want (-1, 2, -3)", p)
	}
}
