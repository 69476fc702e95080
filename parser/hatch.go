package parser

import (
	"strings"

	"github.com/gogpu/dxf/pattern"
)

// EdgeType is the kind of a hatch boundary edge.
type EdgeType int

// Boundary edge types, numbered as in group 72.
const (
	EdgeLine    EdgeType = 1
	EdgeArc     EdgeType = 2
	EdgeEllipse EdgeType = 3
	EdgeSpline  EdgeType = 4
)

// Edge is one edge of an edge-defined boundary loop. Field use depends on
// Type: lines use Start and End; arcs use Center, Radius and the angles;
// ellipses use Center, End as the major axis endpoint relative to Center,
// Radius as the minor to major ratio and the angles as parameters; splines
// keep their control points in Points.
type Edge struct {
	Type       EdgeType
	Start, End Vec3
	Center     Vec3
	Radius     float64
	StartAngle float64 // radians
	EndAngle   float64 // radians
	CCW        bool
	Points     []Vec3
}

// HatchLoop is one boundary path. Polyline paths carry Vertices, other
// paths carry Edges.
type HatchLoop struct {
	Flags    int
	Vertices []Vertex
	Closed   bool
	Edges    []Edge
}

// IsPolyline reports whether the loop is a polyline path.
func (l *HatchLoop) IsPolyline() bool { return l.Flags&2 != 0 }

type hatchPhase int

const (
	hatchHeader hatchPhase = iota
	hatchBoundary
	hatchPattern
	hatchSeeds
)

// Hatch is a HATCH entity.
type Hatch struct {
	Properties
	PatternName  string
	Solid        bool
	PatternAngle float64 // degrees
	PatternScale float64
	Loops        []HatchLoop
	// PatternLines is the definition embedded in the entity, already
	// rotated and scaled by the writer. Unlike PAT records, offsets are
	// in drawing coordinates rather than in the line's frame.
	PatternLines []pattern.Line
	Elevation    Vec3
	Extrusion    Vec3

	phase hatchPhase
}

func (*Hatch) Type() string { return "HATCH" }

func (e *Hatch) loop() *HatchLoop {
	if len(e.Loops) == 0 {
		return nil
	}
	return &e.Loops[len(e.Loops)-1]
}

func (e *Hatch) edge() *Edge {
	l := e.loop()
	if l == nil || len(l.Edges) == 0 {
		return nil
	}
	return &l.Edges[len(l.Edges)-1]
}

func (e *Hatch) line() *pattern.Line {
	if len(e.PatternLines) == 0 {
		return nil
	}
	return &e.PatternLines[len(e.PatternLines)-1]
}

func (e *Hatch) apply(t Tag) (bool, error) {
	switch t.Code {
	case 2:
		e.PatternName = strings.TrimSpace(t.Value)
		return true, nil
	case 70:
		var v int
		if _, err := intField(&v, t); err != nil {
			return true, err
		}
		e.Solid = v == 1
		return true, nil
	case 91:
		e.phase = hatchBoundary
		return true, nil
	case 92:
		e.phase = hatchBoundary
		l := HatchLoop{}
		if _, err := intField(&l.Flags, t); err != nil {
			return true, err
		}
		e.Loops = append(e.Loops, l)
		return true, nil
	case 75, 76, 77:
		e.phase = hatchPattern
		return true, nil
	case 52:
		e.phase = hatchPattern
		return floatField(&e.PatternAngle, t)
	case 98:
		e.phase = hatchSeeds
		return true, nil
	}

	switch e.phase {
	case hatchHeader:
		if ok, err := setCoord(&e.Elevation, t, 10); ok {
			return true, err
		}
		return setCoord(&e.Extrusion, t, 210)
	case hatchBoundary:
		if l := e.loop(); l != nil {
			if l.IsPolyline() {
				return e.applyPolylineLoop(l, t)
			}
			return e.applyEdgeLoop(l, t)
		}
		return setCoord(&e.Extrusion, t, 210)
	case hatchPattern:
		return e.applyPattern(t)
	default:
		// Seed points and gradient data are not used.
		return true, nil
	}
}

func (e *Hatch) applyPolylineLoop(l *HatchLoop, t Tag) (bool, error) {
	last := func() *Vertex {
		if len(l.Vertices) == 0 {
			return nil
		}
		return &l.Vertices[len(l.Vertices)-1]
	}
	switch t.Code {
	case 73:
		var v int
		if _, err := intField(&v, t); err != nil {
			return true, err
		}
		l.Closed = v != 0
	case 10:
		l.Vertices = append(l.Vertices, Vertex{})
		return floatField(&last().Position.X, t)
	case 20:
		if v := last(); v != nil {
			return floatField(&v.Position.Y, t)
		}
	case 42:
		if v := last(); v != nil {
			return floatField(&v.Bulge, t)
		}
	}
	return true, nil
}

func (e *Hatch) applyEdgeLoop(l *HatchLoop, t Tag) (bool, error) {
	if t.Code == 72 {
		var v int
		if _, err := intField(&v, t); err != nil {
			return true, err
		}
		l.Edges = append(l.Edges, Edge{Type: EdgeType(v), CCW: true})
		return true, nil
	}
	ed := e.edge()
	if ed == nil {
		return true, nil
	}
	switch ed.Type {
	case EdgeLine:
		if ok, err := setCoord(&ed.Start, t, 10); ok {
			return true, err
		}
		return setCoord(&ed.End, t, 11)
	case EdgeArc, EdgeEllipse:
		switch t.Code {
		case 40:
			return floatField(&ed.Radius, t)
		case 50:
			return angleField(&ed.StartAngle, t)
		case 51:
			return angleField(&ed.EndAngle, t)
		case 73:
			var v int
			if _, err := intField(&v, t); err != nil {
				return true, err
			}
			ed.CCW = v != 0
			return true, nil
		}
		if ok, err := setCoord(&ed.Center, t, 10); ok {
			return true, err
		}
		return setCoord(&ed.End, t, 11)
	case EdgeSpline:
		switch t.Code {
		case 10:
			ed.Points = append(ed.Points, Vec3{})
			return floatField(&ed.Points[len(ed.Points)-1].X, t)
		case 20:
			if n := len(ed.Points); n > 0 {
				return floatField(&ed.Points[n-1].Y, t)
			}
		}
	}
	return true, nil
}

func (e *Hatch) applyPattern(t Tag) (bool, error) {
	switch t.Code {
	case 41:
		return floatField(&e.PatternScale, t)
	case 53:
		e.PatternLines = append(e.PatternLines, pattern.Line{})
		return floatField(&e.line().Angle, t)
	}
	l := e.line()
	if l == nil {
		return true, nil
	}
	switch t.Code {
	case 43:
		return floatField(&l.Base.X, t)
	case 44:
		return floatField(&l.Base.Y, t)
	case 45:
		return floatField(&l.Offset.X, t)
	case 46:
		return floatField(&l.Offset.Y, t)
	case 49:
		var d float64
		if _, err := floatField(&d, t); err != nil {
			return true, err
		}
		l.Dashes = append(l.Dashes, d)
	}
	return true, nil
}

func (e *Hatch) finish() {
	if e.PatternScale == 0 {
		e.PatternScale = 1
	}
}
