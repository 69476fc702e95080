package scene

import (
	"math"

	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/text"
)

// textDescent is the depth of descenders relative to the cap height,
// used for bottom aligned TEXT.
const textDescent = 0.3

// text emits the glyph outlines of a TEXT, ATTRIB or MTEXT entity as
// closed polylines.
func (s *build) text(t *target, e *parser.Text) {
	h := e.Height
	if !(h > 0) {
		h = s.opts.TextHeight
	}
	if !(e.WidthFactor > 0) {
		c := *e
		c.WidthFactor = 1
		e = &c
	}
	layout := s.typeset.Layout(e.Text, h)
	if layout.Missing > 0 {
		s.hasMissingChars = true
		s.warnOnce("missing-glyphs", "some characters have no glyph in the loaded fonts")
	}
	if layout.Empty() {
		return
	}

	var (
		place  Affine
		dy     float64
		column func(width float64) float64
		o      = ocs{identity: true}
	)
	if e.Multiline {
		place, dy, column = mtextPlacement(e, layout, h)
	} else {
		o = newOCS(e.Extrusion)
		place, dy, column = textPlacement(e, layout, h)
	}

	z := e.Position.Z
	for _, line := range layout.Lines {
		dx := column(line.Width)
		for _, c := range line.Contours {
			pts := make([]parser.Vec3, len(c))
			for i, p := range c {
				x, y := place.TransformPoint(p.X+dx, p.Y+dy)
				pts[i] = o.toWCS(parser.Vec3{X: x, Y: y, Z: z})
			}
			s.emitPolyline(t, e.Props(), pts, true)
		}
	}
}

func alignColumn(col int) func(float64) float64 {
	switch col {
	case 1:
		return func(w float64) float64 { return -w / 2 }
	case 2:
		return func(w float64) float64 { return -w }
	}
	return func(float64) float64 { return 0 }
}

// textPlacement handles the group 72/73 justification of single line
// text.
func textPlacement(e *parser.Text, l *text.Layout, h float64) (Affine, float64, func(float64) float64) {
	anchor := xy(e.Position)
	if (e.HAlign != 0 || e.VAlign != 0) && e.HasAlignPoint() {
		anchor = xy(e.AlignPoint)
	}
	rot := e.Rotation
	sx, sy := e.WidthFactor, 1.0
	col := 0
	var dy float64

	switch e.HAlign {
	case 1:
		col = 1
	case 2:
		col = 2
	case 3, 5:
		// Aligned and fit text runs from the first to the second point.
		d := xy(e.AlignPoint).sub(xy(e.Position))
		span := math.Hypot(d.X, d.Y)
		if w := l.Width(); e.HasAlignPoint() && span > 0 && w > 0 {
			anchor = xy(e.Position)
			rot = math.Atan2(d.Y, d.X)
			sx = span / w
			if e.HAlign == 3 {
				sy = sx / e.WidthFactor
			}
		}
		return placement2D(anchor, rot, sx, sy), 0, alignColumn(0)
	case 4:
		return placement2D(anchor, rot, sx, sy), -h / 2, alignColumn(1)
	}

	switch e.VAlign {
	case 1:
		dy = h * textDescent
	case 2:
		dy = -h / 2
	case 3:
		dy = -h
	}
	return placement2D(anchor, rot, sx, sy), dy, alignColumn(col)
}

// mtextPlacement handles the attachment point of multi-line text.
func mtextPlacement(e *parser.Text, l *text.Layout, h float64) (Affine, float64, func(float64) float64) {
	a := min(max(e.Attachment, 1), 9) - 1
	row, col := a/3, a%3
	last := float64(len(l.Lines)-1) * h * text.LineSpacing
	var dy float64
	switch row {
	case 0:
		dy = -h
	case 1:
		dy = (last - h) / 2
	case 2:
		dy = last
	}
	return placement2D(xy(e.Position), e.Rotation, e.WidthFactor, 1), dy, alignColumn(col)
}

func placement2D(anchor vec2, rot, sx, sy float64) Affine {
	return TranslateAffine(anchor.X, anchor.Y).
		Multiply(RotateAffine(rot)).
		Multiply(ScaleAffine(sx, sy))
}
