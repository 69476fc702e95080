package scene

import (
	"context"
	"log/slog"
	"math"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/pattern"
	"github.com/gogpu/dxf/text"
)

// PointShapeBlock is the name of the generated block holding the point
// marker shape selected by $PDMODE.
const PointShapeBlock = "*POINT_SHAPE"

// Options configures a Builder.
type Options struct {
	// ArcTessellationAngle is the largest angle in radians spanned by one
	// straight piece of a tessellated arc.
	ArcTessellationAngle float64

	// MinArcTessellationSubdivisions is the least number of pieces of a
	// full circle.
	MinArcTessellationSubdivisions int

	// SuppressPaperSpace skips entities placed in paper space.
	SuppressPaperSpace bool

	// Patterns resolves hatch pattern names. Nil uses the built-in
	// patterns.
	Patterns *pattern.Registry

	// Fonts draws TEXT and MTEXT. Nil uses the embedded default font.
	Fonts *text.FontSet

	// Text configures glyph flattening.
	Text text.Options

	// TextHeight is used for text entities without a positive height.
	TextHeight float64

	// PointSize is the marker size when $PDSIZE is not positive.
	PointSize float64

	// MaxHatchLines caps the number of pattern lines generated per
	// pattern line family of one hatch.
	MaxHatchLines int

	// MaxHatchSegments caps the dashes and dots of one hatch. A denser
	// hatch is drawn as its boundary.
	MaxHatchSegments int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ArcTessellationAngle:           10 * math.Pi / 180,
		MinArcTessellationSubdivisions: 8,
		Text:                           text.DefaultOptions(),
		TextHeight:                     1,
		PointSize:                      1,
		MaxHatchLines:                  10000,
		MaxHatchSegments:               1 << 20,
	}
}

func (o *Options) normalize() {
	def := DefaultOptions()
	if !(o.ArcTessellationAngle > 0) {
		o.ArcTessellationAngle = def.ArcTessellationAngle
	}
	if o.MinArcTessellationSubdivisions <= 0 {
		o.MinArcTessellationSubdivisions = def.MinArcTessellationSubdivisions
	}
	if !(o.TextHeight > 0) {
		o.TextHeight = def.TextHeight
	}
	if !(o.PointSize > 0) {
		o.PointSize = def.PointSize
	}
	if o.MaxHatchLines <= 0 {
		o.MaxHatchLines = def.MaxHatchLines
	}
	if o.MaxHatchSegments <= 0 {
		o.MaxHatchSegments = def.MaxHatchSegments
	}
}

// Builder turns a parsed document into a Snapshot. A Builder keeps no
// state between builds, so Build may be called concurrently.
type Builder struct {
	doc      *parser.Document
	opts     Options
	patterns *pattern.Registry
	typeset  *text.Renderer
}

// NewBuilder creates a builder for doc.
func NewBuilder(doc *parser.Document, opts Options) *Builder {
	opts.normalize()
	reg := opts.Patterns
	if reg == nil {
		var err error
		if reg, err = pattern.NewBuiltinRegistry(); err != nil {
			dxf.Logger().Error("scene: built-in patterns unavailable", "err", err)
			reg = pattern.NewRegistry()
		}
	}
	return &Builder{
		doc:      doc,
		opts:     opts,
		patterns: reg,
		typeset:  text.NewRenderer(opts.Fonts, opts.Text),
	}
}

// Build converts the document. It returns ErrEmptyDocument when nothing
// has computable bounds and ctx.Err() when cancelled; a snapshot is
// returned only for a complete build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	s := &build{
		Builder:     b,
		log:         dxf.Logger().With("component", "scene"),
		batches:     newBatchSet(),
		bounds:      EmptyBounds(),
		blockBounds: make(map[string]*Bounds),
		nested:      make(map[string][]placement),
		warned:      make(map[string]bool),
	}
	if err := s.run(ctx); err != nil {
		return nil, err
	}
	if s.bounds.IsEmpty() {
		return nil, ErrEmptyDocument
	}
	snap := s.snapshot()
	s.log.Debug("scene built",
		"batches", len(snap.Batches),
		"chunks", snap.ChunkCount(),
		"vertices", len(snap.Vertices)/3,
		"indices", len(snap.Indices),
		"instances", len(snap.Transforms)/6,
	)
	return snap, nil
}

// placement is one block reference. xf maps block coordinates into the
// coordinates of the referencing space.
type placement struct {
	block string
	xf    Affine
	z     float64
}

// build is the state of one Build call.
type build struct {
	*Builder
	log *slog.Logger

	batches *batchSet

	origin    vec2
	hasOrigin bool
	bounds    Bounds

	blockBounds map[string]*Bounds
	// top holds top-level placements in world coordinates.
	top []placement
	// nested holds placements inside block definitions, by owner.
	nested map[string][]placement

	hasMissingChars  bool
	pointShapeHasDot bool
	pointShapeBuilt  bool

	warned map[string]bool
}

func (s *build) run(ctx context.Context) error {
	used := s.usedBlocks()
	for _, blk := range s.doc.Blocks {
		if !used[blk.Name] {
			continue
		}
		t := s.blockTarget(blk.Name, blk.Base)
		for _, e := range blk.Entities {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.entity(t, e)
		}
	}

	top := &target{}
	for _, e := range s.doc.Entities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.SuppressPaperSpace && e.Props().PaperSpace {
			continue
		}
		s.entity(top, e)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.instanceBounds()
	return nil
}

// usedBlocks returns the blocks reachable from drawn top-level entities.
func (s *build) usedBlocks() map[string]bool {
	used := make(map[string]bool)
	var visit func([]parser.Entity)
	visit = func(es []parser.Entity) {
		for _, e := range es {
			ins, ok := e.(*parser.Insert)
			if !ok || used[ins.Block] {
				continue
			}
			used[ins.Block] = true
			if blk, ok := s.doc.Block(ins.Block); ok {
				visit(blk.Entities)
			}
		}
	}
	var drawn []parser.Entity
	for _, e := range s.doc.Entities {
		if !(s.opts.SuppressPaperSpace && e.Props().PaperSpace) {
			drawn = append(drawn, e)
		}
	}
	visit(drawn)
	return used
}

// instanceBounds adds the extent of every top-level block placement.
func (s *build) instanceBounds() {
	memo := make(map[string]Bounds)
	onPath := make(map[string]bool)
	var extent func(name string) Bounds
	extent = func(name string) Bounds {
		if b, ok := memo[name]; ok {
			return b
		}
		if onPath[name] {
			s.warnOnce("cycle:"+name, "cyclic block reference", "block", name)
			return EmptyBounds()
		}
		onPath[name] = true
		b := EmptyBounds()
		if own, ok := s.blockBounds[name]; ok {
			b.Union(*own)
		}
		for _, p := range s.nested[name] {
			b.Union(extent(p.block).Transform(p.xf, p.z))
		}
		onPath[name] = false
		memo[name] = b
		return b
	}
	for _, p := range s.top {
		s.bounds.Union(extent(p.block).Transform(p.xf, p.z))
	}
}

func (s *build) warnOnce(key, msg string, args ...any) {
	if s.warned[key] {
		return
	}
	s.warned[key] = true
	s.log.Warn(msg, args...)
}

func (s *build) snapshot() *Snapshot {
	snap := &Snapshot{
		Origin:           Vec2{X: s.origin.X, Y: s.origin.Y},
		Bounds:           s.bounds,
		HasMissingChars:  s.hasMissingChars,
		PointShapeHasDot: s.pointShapeHasDot,
	}
	for _, l := range s.doc.Layers {
		snap.Layers = append(snap.Layers, Layer{
			Name:   l.Name,
			Color:  l.Color,
			Off:    l.Off,
			Frozen: l.Frozen,
		})
	}
	snap.Batches = make([]Batch, 0, s.batches.len())
	s.batches.each(func(b *batch) {
		out := Batch{Key: b.key, Owner: b.owner}
		vOff := len(snap.Vertices)
		snap.Vertices = append(snap.Vertices, b.vertices...)
		if b.key.Kind.IsIndexed() {
			iOff := len(snap.Indices)
			snap.Indices = append(snap.Indices, b.indices...)
			out.Chunks = make([]Chunk, len(b.chunks))
			for i, c := range b.chunks {
				out.Chunks[i] = Chunk{
					Vertices: Range{Offset: vOff + c.vStart*3, Size: c.vCount * 3},
					Indices:  Range{Offset: iOff + c.iStart, Size: c.iCount},
				}
			}
		} else {
			out.Vertices = Range{Offset: vOff, Size: len(b.vertices)}
		}
		if len(b.transforms) > 0 {
			out.Transforms = Range{Offset: len(snap.Transforms), Size: len(b.transforms)}
			snap.Transforms = append(snap.Transforms, b.transforms...)
		}
		snap.Batches = append(snap.Batches, out)
	})
	return snap
}
