package text

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/font/gofont/goregular"
)

// FontSet is an ordered list of faces searched front to back for each
// character. The embedded Go Regular face always terminates the list.
//
// go-text faces keep internal caches, so every face access goes through
// the set's mutex. FontSet is safe for concurrent use.
type FontSet struct {
	mu       sync.Mutex
	faces    []*font.Face
	fallback *font.Face
}

// NewFontSet returns a set holding only the embedded Go Regular face.
func NewFontSet() *FontSet {
	face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("text: parse embedded font: " + err.Error())
	}
	return &FontSet{fallback: face}
}

// AddFont parses a TrueType or OpenType font and places it ahead of the
// embedded face. Fonts added earlier take precedence over later ones.
func (s *FontSet) AddFont(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFontData
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("text: parse font: %w", err)
	}
	s.mu.Lock()
	s.faces = append(s.faces, face)
	s.mu.Unlock()
	return nil
}

// Len returns the number of faces including the embedded one.
func (s *FontSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces) + 1
}

// HasGlyph reports whether any face maps r to a glyph.
func (s *FontSet) HasGlyph(r rune) bool {
	_, _, ok := s.lookup(r)
	return ok
}

func (s *FontSet) lookup(r rune) (*font.Face, font.GID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.faces {
		if gid, ok := f.NominalGlyph(r); ok {
			return f, gid, true
		}
	}
	if gid, ok := s.fallback.NominalGlyph(r); ok {
		return s.fallback, gid, true
	}
	return nil, 0, false
}

// capHeight returns the height of 'H' in em units for the face drawing it.
func (s *FontSet) capHeight() float64 {
	face, gid, ok := s.lookup('H')
	if !ok {
		return defaultCapHeight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ext, ok := face.GlyphExtents(gid)
	if !ok || ext.YBearing <= 0 {
		return defaultCapHeight
	}
	return float64(ext.YBearing) / float64(face.Upem())
}

const defaultCapHeight = 0.7

// glyph is a flattened outline in em units, Y up, origin on the baseline.
type glyph struct {
	contours []Contour
	advance  float64
}

func (s *FontSet) outline(face *font.Face, gid font.GID, subdivisions int) *glyph {
	s.mu.Lock()
	defer s.mu.Unlock()

	upem := float64(face.Upem())
	g := &glyph{advance: float64(face.HorizontalAdvance(gid)) / upem}
	if data, ok := face.GlyphData(gid).(font.GlyphOutline); ok {
		g.contours = flatten(data.Segments, upem, subdivisions)
	}
	return g
}

// flatten converts outline segments to closed polylines. Curves are split
// into n straight pieces each.
func flatten(segs []ot.Segment, upem float64, n int) []Contour {
	n = max(n, 1)
	var (
		out  []Contour
		cur  Contour
		last Point
	)
	pt := func(p ot.SegmentPoint) Point {
		return Point{X: float64(p.X) / upem, Y: float64(p.Y) / upem}
	}
	flush := func() {
		if k := len(cur); k > 1 && cur[0] == cur[k-1] {
			cur = cur[:k-1]
		}
		if len(cur) >= 2 {
			out = append(out, cur)
		}
		cur = nil
	}

	for _, seg := range segs {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			flush()
			last = pt(seg.Args[0])
			cur = append(cur, last)
		case ot.SegmentOpLineTo:
			last = pt(seg.Args[0])
			cur = append(cur, last)
		case ot.SegmentOpQuadTo:
			c, e := pt(seg.Args[0]), pt(seg.Args[1])
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*last.X + 2*u*t*c.X + t*t*e.X,
					Y: u*u*last.Y + 2*u*t*c.Y + t*t*e.Y,
				})
			}
			last = e
		case ot.SegmentOpCubeTo:
			c1, c2, e := pt(seg.Args[0]), pt(seg.Args[1]), pt(seg.Args[2])
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*u*last.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*e.X,
					Y: u*u*u*last.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*e.Y,
				})
			}
			last = e
		}
	}
	flush()
	return out
}
