package parser

import (
	"math"
	"strings"

	"github.com/gogpu/dxf"
)

// Vec3 is a point or direction in drawing units.
type Vec3 struct {
	X, Y, Z float64
}

// UnitZ is the default extrusion direction.
var UnitZ = Vec3{Z: 1}

// setCoord stores a coordinate group into v. base is the X code of the
// point (10 for the primary point, 11 for the second, 210 for extrusion).
// It reports false when code does not belong to that point.
func setCoord(v *Vec3, t Tag, base int) (bool, error) {
	var dst *float64
	switch t.Code {
	case base:
		dst = &v.X
	case base + 10:
		dst = &v.Y
	case base + 20:
		dst = &v.Z
	default:
		return false, nil
	}
	f, err := t.Float()
	if err != nil {
		return true, err
	}
	*dst = f
	return true, nil
}

// Entity is a parsed drawing entity.
type Entity interface {
	// Props returns the properties shared by every entity type.
	Props() *Properties
	// Type returns the DXF entity type name, e.g. "CIRCLE".
	Type() string
}

// Properties are the groups common to every entity.
type Properties struct {
	Handle     string
	Layer      string
	LineType   string
	Color      dxf.ColorRef
	PaperSpace bool

	trueColor bool
}

func newProperties() Properties {
	return Properties{Layer: "0", Color: dxf.ByLayer}
}

// Props returns p.
func (p *Properties) Props() *Properties { return p }

// apply consumes the common groups. Unrecognized groups are ignored.
func (p *Properties) apply(t Tag) error {
	switch t.Code {
	case 5:
		p.Handle = strings.TrimSpace(t.Value)
	case 6:
		p.LineType = strings.TrimSpace(t.Value)
	case 8:
		p.Layer = strings.TrimSpace(t.Value)
	case 62:
		if p.trueColor {
			return nil
		}
		v, err := t.Int()
		if err != nil {
			return err
		}
		p.Color = dxf.ACIColorRef(v)
	case 420:
		v, err := t.Int()
		if err != nil {
			return err
		}
		p.Color = dxf.Literal(dxf.RGBFromHex(uint32(v)))
		p.trueColor = true
	case 67:
		v, err := t.Int()
		if err != nil {
			return err
		}
		p.PaperSpace = v == 1
	}
	return nil
}

// entityParser is implemented by every entity type. apply reports whether
// the group was recognized; unrecognized groups go to the common
// properties.
type entityParser interface {
	Entity
	apply(t Tag) (bool, error)
}

// finisher is implemented by entities that derive fields once all groups
// are read.
type finisher interface {
	finish()
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func floatField(dst *float64, t Tag) (bool, error) {
	v, err := t.Float()
	if err != nil {
		return true, err
	}
	*dst = v
	return true, nil
}

func intField(dst *int, t Tag) (bool, error) {
	v, err := t.Int()
	if err != nil {
		return true, err
	}
	*dst = v
	return true, nil
}

func angleField(dst *float64, t Tag) (bool, error) {
	v, err := t.Float()
	if err != nil {
		return true, err
	}
	*dst = deg2rad(v)
	return true, nil
}

// Line is a LINE entity.
type Line struct {
	Properties
	Start, End Vec3
}

func (*Line) Type() string { return "LINE" }

func (e *Line) apply(t Tag) (bool, error) {
	if ok, err := setCoord(&e.Start, t, 10); ok {
		return true, err
	}
	return setCoord(&e.End, t, 11)
}

// Point is a POINT entity.
type Point struct {
	Properties
	Position Vec3
}

func (*Point) Type() string { return "POINT" }

func (e *Point) apply(t Tag) (bool, error) {
	return setCoord(&e.Position, t, 10)
}

// Circle is a CIRCLE or ARC entity. Angles are in radians. For an ARC,
// AngleLength is the counter-clockwise sweep from StartAngle to EndAngle
// and is never negative. A CIRCLE has a sweep of a full turn.
type Circle struct {
	Properties
	Center      Vec3
	Radius      float64
	StartAngle  float64
	EndAngle    float64
	AngleLength float64
	Extrusion   Vec3
	IsArc       bool

	hasEnd bool
}

func (e *Circle) Type() string {
	if e.IsArc {
		return "ARC"
	}
	return "CIRCLE"
}

func (e *Circle) apply(t Tag) (bool, error) {
	switch t.Code {
	case 40:
		return floatField(&e.Radius, t)
	case 50:
		return angleField(&e.StartAngle, t)
	case 51:
		e.hasEnd = true
		return angleField(&e.EndAngle, t)
	}
	if ok, err := setCoord(&e.Center, t, 10); ok {
		return true, err
	}
	return setCoord(&e.Extrusion, t, 210)
}

func (e *Circle) finish() {
	if !e.hasEnd {
		e.EndAngle = e.StartAngle + 2*math.Pi
		e.AngleLength = 2 * math.Pi
		return
	}
	e.AngleLength = SweepAngle(e.StartAngle, e.EndAngle)
}

// SweepAngle returns end-start, plus a full turn when that is negative,
// so the result is the forward arc from start to end.
func SweepAngle(start, end float64) float64 {
	d := end - start
	if d < 0 {
		d += 2 * math.Pi
	}
	return d
}

// Ellipse is an ELLIPSE entity. MajorAxis is relative to Center. The
// parameters are in radians; a full ellipse runs from 0 to 2π.
type Ellipse struct {
	Properties
	Center     Vec3
	MajorAxis  Vec3
	Ratio      float64
	StartParam float64
	EndParam   float64
	Extrusion  Vec3
}

func (*Ellipse) Type() string { return "ELLIPSE" }

func (e *Ellipse) apply(t Tag) (bool, error) {
	switch t.Code {
	case 40:
		return floatField(&e.Ratio, t)
	case 41:
		return floatField(&e.StartParam, t)
	case 42:
		return floatField(&e.EndParam, t)
	}
	if ok, err := setCoord(&e.Center, t, 10); ok {
		return true, err
	}
	if ok, err := setCoord(&e.MajorAxis, t, 11); ok {
		return true, err
	}
	return setCoord(&e.Extrusion, t, 210)
}

// Vertex is a polyline vertex. Bulge is the tangent of a quarter of the
// included angle of the arc to the next vertex; zero means straight.
type Vertex struct {
	Position Vec3
	Bulge    float64
}

// Polyline is an LWPOLYLINE, or a 2D/3D POLYLINE with its VERTEX records.
type Polyline struct {
	Properties
	Vertices  []Vertex
	Closed    bool
	Elevation float64
	Extrusion Vec3
	Legacy    bool // POLYLINE rather than LWPOLYLINE
	Flags     int
}

func (e *Polyline) Type() string {
	if e.Legacy {
		return "POLYLINE"
	}
	return "LWPOLYLINE"
}

func (e *Polyline) apply(t Tag) (bool, error) {
	if e.Legacy {
		return e.applyLegacy(t)
	}
	switch t.Code {
	case 10:
		e.Vertices = append(e.Vertices, Vertex{})
		return floatField(&e.Vertices[len(e.Vertices)-1].Position.X, t)
	case 20:
		if len(e.Vertices) == 0 {
			return true, nil
		}
		return floatField(&e.Vertices[len(e.Vertices)-1].Position.Y, t)
	case 42:
		if len(e.Vertices) == 0 {
			return true, nil
		}
		return floatField(&e.Vertices[len(e.Vertices)-1].Bulge, t)
	case 38:
		return floatField(&e.Elevation, t)
	case 70:
		if _, err := intField(&e.Flags, t); err != nil {
			return true, err
		}
		e.Closed = e.Flags&1 != 0
		return true, nil
	}
	return setCoord(&e.Extrusion, t, 210)
}

func (e *Polyline) applyLegacy(t Tag) (bool, error) {
	switch t.Code {
	case 70:
		if _, err := intField(&e.Flags, t); err != nil {
			return true, err
		}
		e.Closed = e.Flags&1 != 0
		return true, nil
	case 30:
		return floatField(&e.Elevation, t)
	case 10, 20, 66:
		return true, nil
	}
	return setCoord(&e.Extrusion, t, 210)
}

func (e *Polyline) finish() {
	if e.Legacy {
		return
	}
	for i := range e.Vertices {
		e.Vertices[i].Position.Z = e.Elevation
	}
}

// IsMesh reports whether a legacy POLYLINE is a polygon or polyface mesh,
// which is not drawn as a polyline.
func (e *Polyline) IsMesh() bool {
	return e.Legacy && e.Flags&(16|64) != 0
}

type vertexRecord struct {
	Properties
	v Vertex
}

func (*vertexRecord) Type() string { return "VERTEX" }

func (e *vertexRecord) apply(t Tag) (bool, error) {
	if t.Code == 42 {
		return floatField(&e.v.Bulge, t)
	}
	return setCoord(&e.v.Position, t, 10)
}

// Insert is an INSERT entity (block reference), optionally a rectangular
// array. DIMENSION entities are read as inserts of their anonymous block.
type Insert struct {
	Properties
	Block         string
	Position      Vec3
	Scale         Vec3
	Rotation      float64 // radians
	Columns       int
	Rows          int
	ColumnSpacing float64
	RowSpacing    float64
	Extrusion     Vec3
	Dimension     bool
}

func (e *Insert) Type() string {
	if e.Dimension {
		return "DIMENSION"
	}
	return "INSERT"
}

func (e *Insert) apply(t Tag) (bool, error) {
	if e.Dimension {
		if t.Code == 2 {
			e.Block = strings.TrimSpace(t.Value)
			return true, nil
		}
		return false, nil
	}
	switch t.Code {
	case 2:
		e.Block = strings.TrimSpace(t.Value)
		return true, nil
	case 41:
		return floatField(&e.Scale.X, t)
	case 42:
		return floatField(&e.Scale.Y, t)
	case 43:
		return floatField(&e.Scale.Z, t)
	case 50:
		return angleField(&e.Rotation, t)
	case 70:
		return intField(&e.Columns, t)
	case 71:
		return intField(&e.Rows, t)
	case 44:
		return floatField(&e.ColumnSpacing, t)
	case 45:
		return floatField(&e.RowSpacing, t)
	}
	if ok, err := setCoord(&e.Position, t, 10); ok {
		return true, err
	}
	return setCoord(&e.Extrusion, t, 210)
}

func (e *Insert) finish() {
	e.Columns = max(e.Columns, 1)
	e.Rows = max(e.Rows, 1)
}

// Text is a TEXT, ATTRIB or MTEXT entity reduced to lines of plain text.
// Rotation is in radians.
type Text struct {
	Properties
	Text        string
	Position    Vec3
	AlignPoint  Vec3
	Height      float64
	Rotation    float64
	WidthFactor float64
	HAlign      int
	VAlign      int
	Multiline   bool
	Attachment  int // MTEXT attachment point, 1..9
	Extrusion   Vec3
	Invisible   bool // ATTRIB flag 1

	hasAlign  bool
	direction Vec3
	chunks    []string
	kind      string
}

func (e *Text) Type() string { return e.kind }

// HasAlignPoint reports whether the alignment point group was present.
func (e *Text) HasAlignPoint() bool { return e.hasAlign }

func (e *Text) apply(t Tag) (bool, error) {
	switch t.Code {
	case 1:
		e.chunks = append(e.chunks, t.Value)
		return true, nil
	case 3:
		if e.Multiline {
			e.chunks = append(e.chunks, t.Value)
			return true, nil
		}
	case 40:
		return floatField(&e.Height, t)
	case 41:
		if !e.Multiline {
			return floatField(&e.WidthFactor, t)
		}
		return true, nil
	case 50:
		return angleField(&e.Rotation, t)
	case 71:
		if e.Multiline {
			return intField(&e.Attachment, t)
		}
	case 72:
		return intField(&e.HAlign, t)
	case 73:
		if !e.Multiline {
			return intField(&e.VAlign, t)
		}
	case 74:
		if e.kind == "ATTRIB" {
			return intField(&e.VAlign, t)
		}
	case 70:
		if e.kind == "ATTRIB" {
			var v int
			if _, err := intField(&v, t); err != nil {
				return true, err
			}
			e.Invisible = v&1 != 0
			return true, nil
		}
	}
	if ok, err := setCoord(&e.Position, t, 10); ok {
		return true, err
	}
	if e.Multiline {
		if ok, err := setCoord(&e.direction, t, 11); ok {
			return true, err
		}
	} else if ok, err := setCoord(&e.AlignPoint, t, 11); ok {
		e.hasAlign = true
		return true, err
	}
	return setCoord(&e.Extrusion, t, 210)
}

func (e *Text) finish() {
	if e.WidthFactor == 0 {
		e.WidthFactor = 1
	}
	raw := strings.Join(e.chunks, "")
	e.chunks = nil
	if e.Multiline {
		e.Text = stripMText(raw)
		if e.direction != (Vec3{}) {
			e.Rotation = math.Atan2(e.direction.Y, e.direction.X)
		}
		if e.Attachment == 0 {
			e.Attachment = 1
		}
		return
	}
	e.Text = expandControlCodes(raw)
}

// expandControlCodes replaces the %% special sequences of single line text.
func expandControlCodes(s string) string {
	if !strings.Contains(s, "%%") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+2 >= len(s) || s[i+1] != '%' {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+2] {
		case 'd', 'D':
			b.WriteRune('°')
		case 'p', 'P':
			b.WriteRune('±')
		case 'c', 'C':
			b.WriteRune('⌀')
		case '%':
			b.WriteByte('%')
		case 'u', 'U', 'o', 'O':
			// underline and overline toggles are not rendered
		default:
			b.WriteString(s[i : i+3])
		}
		i += 2
	}
	return b.String()
}

// stripMText removes inline MTEXT formatting, keeping paragraph breaks as
// newlines.
func stripMText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{', '}':
			continue
		case '\\':
			if i+1 >= len(s) {
				continue
			}
			i++
			switch s[i] {
			case 'P':
				b.WriteByte('\n')
			case '\\', '{', '}':
				b.WriteByte(s[i])
			case '~':
				b.WriteByte(' ')
			case 'L', 'l', 'O', 'o', 'K', 'k':
			default:
				// Formatting codes with an argument run to ';'.
				if j := strings.IndexByte(s[i:], ';'); j >= 0 {
					i += j
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Solid is a SOLID, TRACE or 3DFACE entity. Corners are stored in
// outline order, so SOLID and TRACE have their last two corners swapped
// relative to the file.
type Solid struct {
	Properties
	Corners [4]Vec3
	kind    string
	n       int
}

func (e *Solid) Type() string { return e.kind }

// IsTriangle reports whether the last two corners coincide.
func (e *Solid) IsTriangle() bool { return e.Corners[2] == e.Corners[3] }

func (e *Solid) apply(t Tag) (bool, error) {
	for i := range 4 {
		if ok, err := setCoord(&e.Corners[i], t, 10+i); ok {
			e.n = max(e.n, i+1)
			return true, err
		}
	}
	return false, nil
}

func (e *Solid) finish() {
	if e.n == 3 {
		e.Corners[3] = e.Corners[2]
	}
	if e.kind != "3DFACE" {
		e.Corners[2], e.Corners[3] = e.Corners[3], e.Corners[2]
	}
}
