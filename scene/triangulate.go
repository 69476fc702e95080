package scene

import (
	"cmp"
	"math"
	"slices"
)

// triangulate fills the loops under the even-odd rule. Loops at even
// nesting depth are outer boundaries, loops directly inside them are
// holes. It returns the points used and their triangle indices.
func triangulate(loops [][]vec2) ([]vec2, []int) {
	depth := make([]int, len(loops))
	for i, l := range loops {
		for j, o := range loops {
			if i != j && insidePolygon(l[0], o) {
				depth[i]++
			}
		}
	}

	var pts []vec2
	var tris []int
	for i, outer := range loops {
		if depth[i]%2 != 0 {
			continue
		}
		poly := oriented(outer, true)
		var holes [][]vec2
		for j, h := range loops {
			if depth[j] == depth[i]+1 && insidePolygon(h[0], outer) {
				holes = append(holes, oriented(h, false))
			}
		}
		poly = bridgeHoles(poly, holes)
		base := len(pts)
		pts = append(pts, poly...)
		for _, ix := range earClip(poly) {
			tris = append(tris, base+ix)
		}
	}
	return pts, tris
}

func signedArea(p []vec2) float64 {
	var a float64
	for i, v := range p {
		w := p[(i+1)%len(p)]
		a += v.cross(w)
	}
	return a / 2
}

// oriented returns p counter-clockwise when ccw is set, clockwise
// otherwise.
func oriented(p []vec2, ccw bool) []vec2 {
	out := slices.Clone(p)
	if (signedArea(out) > 0) != ccw {
		slices.Reverse(out)
	}
	return out
}

// insidePolygon is the crossing number test with half-open edges.
func insidePolygon(p vec2, poly []vec2) bool {
	in := false
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// bridgeHoles merges clockwise holes into the counter-clockwise outer
// polygon by cutting a two-way bridge from each hole's rightmost vertex
// to a visible outer vertex. Holes are merged right to left.
func bridgeHoles(outer []vec2, holes [][]vec2) []vec2 {
	if len(holes) == 0 {
		return outer
	}
	rightmost := func(h []vec2) int {
		m := 0
		for i, p := range h {
			if p.X > h[m].X || (p.X == h[m].X && p.Y < h[m].Y) {
				m = i
			}
		}
		return m
	}
	slices.SortFunc(holes, func(a, b []vec2) int {
		return cmp.Compare(b[rightmost(b)].X, a[rightmost(a)].X)
	})

	poly := outer
	for _, h := range holes {
		hi := rightmost(h)
		m := h[hi]
		pi := bridgeVertex(poly, m)
		if pi < 0 {
			continue
		}
		merged := make([]vec2, 0, len(poly)+len(h)+2)
		merged = append(merged, poly[:pi+1]...)
		for k := range len(h) + 1 {
			merged = append(merged, h[(hi+k)%len(h)])
		}
		merged = append(merged, poly[pi])
		merged = append(merged, poly[pi+1:]...)
		poly = merged
	}
	return poly
}

// bridgeVertex finds a vertex of poly visible from m, casting a ray
// towards +X and then picking the best candidate inside the triangle it
// spans.
func bridgeVertex(poly []vec2, m vec2) int {
	best, bestX := -1, 0.0
	var hit vec2
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		if (a.Y > m.Y) == (b.Y > m.Y) {
			continue
		}
		x := a.X + (m.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x < m.X || (best >= 0 && x >= bestX) {
			continue
		}
		bestX, hit = x, vec2{x, m.Y}
		// The edge endpoint with larger X is the candidate.
		if a.X > b.X {
			best = i
		} else {
			best = (i + 1) % len(poly)
		}
	}
	if best < 0 {
		return -1
	}
	if poly[best] == hit {
		return best
	}
	// Reflex vertices inside triangle (m, hit, candidate) may block the
	// view; pick the one with the smallest angle to the ray.
	cand := poly[best]
	bestAngle := math.Inf(1)
	for i, p := range poly {
		if i == best || p == m || !inTriangle(p, m, hit, cand) || !reflex(poly, i) {
			continue
		}
		d := p.sub(m)
		if a := math.Atan2(math.Abs(d.Y), d.X); a < bestAngle {
			bestAngle, best = a, i
		}
	}
	return best
}

func inTriangle(p, a, b, c vec2) bool {
	d1 := b.sub(a).cross(p.sub(a))
	d2 := c.sub(b).cross(p.sub(b))
	d3 := a.sub(c).cross(p.sub(c))
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func reflex(poly []vec2, i int) bool {
	n := len(poly)
	a, b, c := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
	return b.sub(a).cross(c.sub(b)) < 0
}

// earClip triangulates a counter-clockwise simple polygon, possibly with
// bridge edges. Degenerate input that leaves no ear is finished as a fan.
func earClip(poly []vec2) []int {
	n := len(poly)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	tris := make([]int, 0, 3*(n-2))
	for guard := 0; len(idx) > 3 && guard < n*n; guard++ {
		clipped := false
		for k := range idx {
			m := len(idx)
			ia, ib, ic := idx[(k+m-1)%m], idx[k], idx[(k+1)%m]
			a, b, c := poly[ia], poly[ib], poly[ic]
			if b.sub(a).cross(c.sub(b)) <= 0 {
				continue
			}
			if containsOther(poly, idx, a, b, c, ia, ib, ic) {
				continue
			}
			tris = append(tris, ia, ib, ic)
			idx = slices.Delete(idx, k, k+1)
			clipped = true
			break
		}
		if !clipped {
			break
		}
	}
	if len(idx) == 3 {
		return append(tris, idx[0], idx[1], idx[2])
	}
	for k := 1; k+1 < len(idx); k++ {
		tris = append(tris, idx[0], idx[k], idx[k+1])
	}
	return tris
}

func containsOther(poly []vec2, idx []int, a, b, c vec2, ia, ib, ic int) bool {
	for _, j := range idx {
		if j == ia || j == ib || j == ic {
			continue
		}
		p := poly[j]
		// Bridge edges duplicate vertices; coincident points never block.
		if p == a || p == b || p == c {
			continue
		}
		if inTriangle(p, a, b, c) {
			return true
		}
	}
	return false
}
