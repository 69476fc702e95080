package scene

import (
	"slices"

	"github.com/gogpu/dxf"
)

// Vec2 is a point in world coordinates.
type Vec2 struct {
	X, Y float64
}

// Layer is a drawing layer as captured at build time.
type Layer struct {
	Name   string
	Color  dxf.RGB
	Off    bool
	Frozen bool
}

// Snapshot is the immutable result of a build. Batches are sorted by key
// and then owner; their ranges index the three flat buffers.
type Snapshot struct {
	// Origin is subtracted from top-level vertices and transform
	// translations.
	Origin Vec2
	// Bounds is the extent of the drawing in world coordinates.
	Bounds Bounds
	Layers []Layer

	Batches    []Batch
	Vertices   []float32
	Indices    []uint16
	Transforms []float32

	// HasMissingChars reports that some text used the fallback glyph.
	HasMissingChars bool
	// PointShapeHasDot reports that the point shape includes a dot drawn
	// at every point instance.
	PointShapeHasDot bool
}

// ChunkCount returns the number of draw ranges: one per chunk of indexed
// batches and one per other batch.
func (s *Snapshot) ChunkCount() int {
	n := 0
	for i := range s.Batches {
		if c := len(s.Batches[i].Chunks); c > 0 {
			n += c
		} else {
			n++
		}
	}
	return n
}

// VerticesOf returns the vertex floats of r.
func (s *Snapshot) VerticesOf(r Range) []float32 { return s.Vertices[r.Offset:r.End()] }

// IndicesOf returns the indices of r.
func (s *Snapshot) IndicesOf(r Range) []uint16 { return s.Indices[r.Offset:r.End()] }

// TransformsOf returns the transform floats of r.
func (s *Snapshot) TransformsOf(r Range) []float32 { return s.Transforms[r.Offset:r.End()] }

// Layer returns the layer with the given name.
func (s *Snapshot) Layer(name string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Blocks returns the names of all blocks with definition batches, sorted.
func (s *Snapshot) Blocks() []string {
	var names []string
	for i := range s.Batches {
		if o := s.Batches[i].Owner; o != "" {
			names = append(names, o)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// validate checks that every range lies within its buffer and that every
// index refers to a vertex of its chunk.
func (s *Snapshot) validate() bool {
	in := func(r Range, n int) bool { return r.Offset >= 0 && r.Size >= 0 && r.End() <= n }
	for i := range s.Batches {
		b := &s.Batches[i]
		if !b.Key.Kind.Valid() || !in(b.Vertices, len(s.Vertices)) || !in(b.Transforms, len(s.Transforms)) {
			return false
		}
		for _, c := range b.Chunks {
			if !in(c.Vertices, len(s.Vertices)) || !in(c.Indices, len(s.Indices)) {
				return false
			}
			n := c.VertexCount()
			for _, ix := range s.IndicesOf(c.Indices) {
				if int(ix) >= n {
					return false
				}
			}
		}
	}
	return true
}
