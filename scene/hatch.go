package scene

import (
	"math"
	"slices"

	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/pattern"
)

// family is one pattern line definition placed in object coordinates:
// lines run along dir through base + k*offset for every integer k.
type family struct {
	base, offset, dir vec2
	dashes            []float64
}

// maxDashesPerLine bounds dash expansion; denser lines are drawn solid.
const maxDashesPerLine = 1e5

func (s *build) hatch(t *target, e *parser.Hatch) {
	loops := s.hatchLoops(e)
	if len(loops) == 0 {
		return
	}
	o := newOCS(e.Extrusion)
	z := e.Elevation.Z
	w := func(p vec2) parser.Vec3 { return o.toWCS(parser.Vec3{X: p.X, Y: p.Y, Z: z}) }
	for _, l := range loops {
		for _, p := range l {
			s.extend(t, w(p))
		}
	}

	if e.Solid {
		pts, tris := triangulate(loops)
		wp := make([]parser.Vec3, len(pts))
		for i, p := range pts {
			wp[i] = w(p)
		}
		s.emitMesh(t, e.Props(), wp, tris)
		return
	}

	fams := s.patternFamilies(e)
	if len(fams) == 0 {
		s.warnOnce("pattern:"+e.PatternName, "hatch pattern not found, drawing boundary", "pattern", e.PatternName)
		for _, l := range loops {
			s.emitPolyline(t, e.Props(), toWCS(o, l, z), true)
		}
		return
	}
	h := hatchLines(loops, fams, s.opts.MaxHatchLines, s.opts.MaxHatchSegments)
	if h.overflow {
		s.warnOnce("overflow:"+e.PatternName, "hatch pattern too dense, drawing boundary",
			"pattern", e.PatternName, "scale", e.PatternScale)
		for _, l := range loops {
			s.emitPolyline(t, e.Props(), toWCS(o, l, z), true)
		}
		return
	}
	if h.truncated {
		s.warnOnce("dense:"+e.PatternName, "hatch pattern too dense, line count capped",
			"pattern", e.PatternName, "scale", e.PatternScale)
	}
	for _, sg := range h.segs {
		s.emitLine(t, e.Props(), w(sg[0]), w(sg[1]))
	}
	for _, d := range h.dots {
		s.emitPoint(t, e.Props(), w(d))
	}
}

// patternFamilies resolves the hatch pattern: the registry for the
// drawing's unit system, then the other unit system, then the definition
// embedded in the entity.
func (s *build) patternFamilies(e *parser.Hatch) []family {
	metric := s.doc.Header.IsMetric()
	if e.PatternName != "" {
		p, ok := s.patterns.Lookup(e.PatternName, metric)
		if !ok {
			p, ok = s.patterns.Lookup(e.PatternName, !metric)
		}
		if ok && len(p.Lines) > 0 {
			return patFamilies(p, e.PatternAngle*math.Pi/180, e.PatternScale)
		}
	}
	out := make([]family, 0, len(e.PatternLines))
	for _, l := range e.PatternLines {
		a := l.Angle * math.Pi / 180
		out = append(out, family{
			base:   vec2{l.Base.X, l.Base.Y},
			offset: vec2{l.Offset.X, l.Offset.Y},
			dir:    vec2{math.Cos(a), math.Sin(a)},
			dashes: l.Dashes,
		})
	}
	return out
}

// patFamilies places PAT records, whose offsets are in the line's own
// frame, rotated by angle and scaled by k.
func patFamilies(p *pattern.Pattern, angle, k float64) []family {
	rot := RotateAffine(angle)
	out := make([]family, 0, len(p.Lines))
	for _, l := range p.Lines {
		a := l.Angle*math.Pi/180 + angle
		dir := vec2{math.Cos(a), math.Sin(a)}
		normal := vec2{-dir.Y, dir.X}
		bx, by := rot.TransformPoint(l.Base.X*k, l.Base.Y*k)
		dashes := make([]float64, len(l.Dashes))
		for i, d := range l.Dashes {
			dashes[i] = d * k
		}
		out = append(out, family{
			base:   vec2{bx, by},
			offset: dir.mul(l.Offset.X * k).add(normal.mul(l.Offset.Y * k)),
			dir:    dir,
			dashes: dashes,
		})
	}
	return out
}

// hatchLoops flattens the boundary paths into closed polygons in object
// coordinates.
func (s *build) hatchLoops(e *parser.Hatch) [][]vec2 {
	var loops [][]vec2
	for i := range e.Loops {
		l := &e.Loops[i]
		var pts []vec2
		if l.IsPolyline() {
			for _, p := range s.opts.expandBulges(l.Vertices, true) {
				pts = append(pts, xy(p))
			}
		} else {
			var last []vec2
			for j := range l.Edges {
				ep := s.edgePoints(&l.Edges[j])
				if len(ep) == 0 {
					continue
				}
				pts = append(pts, ep[:len(ep)-1]...)
				last = ep
			}
			if len(last) > 0 {
				pts = append(pts, last[len(last)-1])
			}
		}
		if n := len(pts); n > 1 && pts[0] == pts[n-1] {
			pts = pts[:n-1]
		}
		if len(pts) >= 3 {
			loops = append(loops, pts)
		}
	}
	return loops
}

// edgePoints returns the points of one boundary edge from its start to its
// end, both included.
func (s *build) edgePoints(ed *parser.Edge) []vec2 {
	switch ed.Type {
	case parser.EdgeLine:
		return []vec2{xy(ed.Start), xy(ed.End)}
	case parser.EdgeArc, parser.EdgeEllipse:
		sweep := parser.SweepAngle(ed.StartAngle, ed.EndAngle)
		if sweep == 0 {
			sweep = 2 * math.Pi
		}
		start := ed.StartAngle
		if !ed.CCW {
			// Clockwise edges store mirrored angles.
			start, sweep = -start, -sweep
		}
		n := s.opts.segments(sweep)
		if ed.Type == parser.EdgeArc {
			return arc(xy(ed.Center), ed.Radius, start, sweep, n)
		}
		major := xy(ed.End)
		minor := vec2{-major.Y, major.X}.mul(ed.Radius)
		return ellipseArc(xy(ed.Center), major, minor, start, sweep, n)
	case parser.EdgeSpline:
		pts := make([]vec2, len(ed.Points))
		for i, p := range ed.Points {
			pts[i] = xy(p)
		}
		return pts
	}
	return nil
}

// hatchResult is the pattern geometry of one hatch. Truncated reports that
// line families were capped; overflow that the dash expansion exceeded the
// segment budget, in which case segs and dots are empty.
type hatchResult struct {
	segs      [][2]vec2
	dots      []vec2
	truncated bool
	overflow  bool
}

// hatchLines intersects every line of every family with the loops under
// the even-odd rule and applies the dash pattern to the inside runs. At
// most maxLines lines are generated per family and maxSegments segments
// and dots in total.
func hatchLines(loops [][]vec2, fams []family, maxLines, maxSegments int) hatchResult {
	var h hatchResult
	lo, hi := vec2{math.Inf(1), math.Inf(1)}, vec2{math.Inf(-1), math.Inf(-1)}
	for _, l := range loops {
		for _, p := range l {
			lo = vec2{min(lo.X, p.X), min(lo.Y, p.Y)}
			hi = vec2{max(hi.X, p.X), max(hi.Y, p.Y)}
		}
	}
	corners := [4]vec2{lo, {hi.X, lo.Y}, hi, {lo.X, hi.Y}}

	var ts []float64
	budget := float64(maxSegments)
	for _, f := range fams {
		normal := vec2{-f.dir.Y, f.dir.X}
		spacing := f.offset.dot(normal)
		if math.Abs(spacing) < 1e-12 || !finite(spacing) {
			continue
		}
		b0 := f.base.dot(normal)
		kMin, kMax := math.Inf(1), math.Inf(-1)
		for _, c := range corners {
			k := (c.dot(normal) - b0) / spacing
			kMin, kMax = min(kMin, k), max(kMax, k)
		}
		first, last := math.Ceil(kMin), math.Floor(kMax)
		if last-first+1 > float64(maxLines) {
			h.truncated = true
			mid := math.Floor((first + last) / 2)
			first, last = mid-float64(maxLines/2), mid+float64(maxLines-maxLines/2-1)
		}
		dashes := f.dashes
		period := 0.0
		for _, d := range dashes {
			period += math.Abs(d)
		}
		if len(dashes) > 0 && period == 0 {
			// Dots only: space them like the lines.
			period = math.Abs(spacing)
			dashes = []float64{0, -period}
		}

		for k := first; k <= last; k++ {
			p0 := f.base.add(f.offset.mul(k))
			ts = crossings(ts[:0], loops, p0, f.dir, normal)
			for i := 0; i+1 < len(ts); i += 2 {
				if !(ts[i+1] > ts[i]) {
					continue
				}
				budget -= dashCount(ts[i+1]-ts[i], dashes, period)
				if budget < 0 {
					return hatchResult{truncated: h.truncated, overflow: true}
				}
				h.segs, h.dots = dash(h.segs, h.dots, p0, f.dir, ts[i], ts[i+1], dashes, period)
			}
		}
	}
	return h
}

// dashCount bounds the number of segments and dots dash emits for a run
// of the given length.
func dashCount(length float64, dashes []float64, period float64) float64 {
	if len(dashes) == 0 || !(period > 0) || length/period > maxDashesPerLine {
		return 1
	}
	return (math.Floor(length/period) + 2) * float64(len(dashes))
}

// crossings returns the sorted positions along the line p0 + t*dir where
// it crosses a loop edge.
func crossings(ts []float64, loops [][]vec2, p0, dir, normal vec2) []float64 {
	for _, l := range loops {
		for i, a := range l {
			b := l[(i+1)%len(l)]
			da, db := a.sub(p0).dot(normal), b.sub(p0).dot(normal)
			if (da > 0) == (db > 0) {
				continue
			}
			ta, tb := a.sub(p0).dot(dir), b.sub(p0).dot(dir)
			ts = append(ts, ta+(tb-ta)*da/(da-db))
		}
	}
	slices.Sort(ts)
	return ts
}

// dash emits the dashes of the run [t0, t1] of the line p0 + t*dir. The
// dash sequence starts at p0 and repeats with the given period.
func dash(segs [][2]vec2, dots []vec2, p0, dir vec2, t0, t1 float64, dashes []float64, period float64) ([][2]vec2, []vec2) {
	at := func(t float64) vec2 { return p0.add(dir.mul(t)) }
	if len(dashes) == 0 || !(period > 0) || (t1-t0)/period > maxDashesPerLine {
		return append(segs, [2]vec2{at(t0), at(t1)}), dots
	}
	pos := math.Floor(t0/period) * period
	for pos < t1 {
		for _, d := range dashes {
			l := math.Abs(d)
			switch {
			case d > 0:
				if a, b := max(pos, t0), min(pos+l, t1); a < b {
					segs = append(segs, [2]vec2{at(a), at(b)})
				}
			case d == 0:
				if pos >= t0 && pos <= t1 {
					dots = append(dots, at(pos))
				}
			}
			pos += l
			if pos >= t1 {
				break
			}
		}
	}
	return segs, dots
}
