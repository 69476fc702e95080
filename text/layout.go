package text

import (
	"strings"

	"github.com/go-text/typesetting/font"
)

// LineSpacing is the baseline distance between lines as a multiple of the
// text height.
const LineSpacing = 5.0 / 3.0

// Point is a position in text units.
type Point struct {
	X, Y float64
}

// Contour is a closed polyline. The closing edge from the last point back
// to the first is implicit.
type Contour []Point

// Options configures a Renderer.
type Options struct {
	// CurveSubdivisions is the number of straight pieces per curve segment.
	CurveSubdivisions int

	// FallbackChar replaces characters no face can draw.
	FallbackChar rune

	// CacheSize is the soft limit of the flattened glyph cache.
	// Zero means unlimited.
	CacheSize int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		CurveSubdivisions: 4,
		FallbackChar:      '?',
		CacheSize:         4096,
	}
}

// Line is one laid out line of text.
type Line struct {
	// Contours are in text units; X starts at 0, Y is relative to the
	// first line's baseline.
	Contours []Contour

	// Width is the advance width of the line.
	Width float64

	// Y is the baseline of this line, 0 for the first and negative below.
	Y float64
}

// Layout is the result of laying out a string.
type Layout struct {
	Lines []Line

	// Missing counts characters replaced by the fallback character.
	Missing int
}

// Width returns the widest line's advance.
func (l *Layout) Width() float64 {
	var w float64
	for _, line := range l.Lines {
		w = max(w, line.Width)
	}
	return w
}

// Empty reports whether the layout has no contours at all.
func (l *Layout) Empty() bool {
	for _, line := range l.Lines {
		if len(line.Contours) > 0 {
			return false
		}
	}
	return true
}

type glyphKey struct {
	face *font.Face
	gid  font.GID
}

// Renderer lays out strings with a FontSet. It is safe for concurrent use.
type Renderer struct {
	fonts  *FontSet
	opts   Options
	glyphs *Cache[glyphKey, *glyph]
}

// NewRenderer creates a renderer. A nil fonts uses a fresh NewFontSet.
func NewRenderer(fonts *FontSet, opts Options) *Renderer {
	if fonts == nil {
		fonts = NewFontSet()
	}
	def := DefaultOptions()
	if opts.CurveSubdivisions <= 0 {
		opts.CurveSubdivisions = def.CurveSubdivisions
	}
	if opts.FallbackChar == 0 {
		opts.FallbackChar = def.FallbackChar
	}
	return &Renderer{
		fonts:  fonts,
		opts:   opts,
		glyphs: NewCache[glyphKey, *glyph](opts.CacheSize),
	}
}

// Fonts returns the renderer's font set.
func (r *Renderer) Fonts() *FontSet { return r.fonts }

// Layout lays out s so that capital letters are height units tall.
// Lines are separated by '\n'. A non-positive height yields an empty layout.
func (r *Renderer) Layout(s string, height float64) *Layout {
	l := &Layout{}
	if s == "" || !(height > 0) {
		return l
	}
	scale := height / r.fonts.capHeight()

	for i, text := range strings.Split(s, "\n") {
		line := Line{Y: -float64(i) * height * LineSpacing}
		var x float64
		for _, ch := range text {
			switch {
			case ch == '\t':
				ch = ' '
			case ch < ' ':
				continue
			}
			face, gid, ok := r.fonts.lookup(ch)
			if !ok {
				l.Missing++
				if face, gid, ok = r.fonts.lookup(r.opts.FallbackChar); !ok {
					continue
				}
			}
			g := r.glyphs.GetOrCreate(glyphKey{face, gid}, func() *glyph {
				return r.fonts.outline(face, gid, r.opts.CurveSubdivisions)
			})
			for _, c := range g.contours {
				placed := make(Contour, len(c))
				for j, p := range c {
					placed[j] = Point{X: x + p.X*scale, Y: line.Y + p.Y*scale}
				}
				line.Contours = append(line.Contours, placed)
			}
			x += g.advance * scale
		}
		line.Width = x
		l.Lines = append(l.Lines, line)
	}
	return l
}

// CacheStats returns the glyph cache hit and miss counters.
func (r *Renderer) CacheStats() (hits, misses uint64) {
	return r.glyphs.Stats()
}
