package scene

import (
	"cmp"

	"github.com/google/btree"
)

// MaxChunkVertices is the most vertices one chunk may hold, so that chunk
// indices fit in uint16.
const MaxChunkVertices = 1 << 16

// Range is a run of elements in one of the snapshot buffers. Offsets and
// sizes count elements of the buffer (float32 or uint16), not bytes.
type Range struct {
	Offset, Size int
}

// End returns Offset + Size.
func (r Range) End() int { return r.Offset + r.Size }

// Chunk is a self-contained piece of an indexed batch. Its indices refer
// to its own vertices only, counting from the chunk's first vertex.
type Chunk struct {
	Vertices Range
	Indices  Range
}

// VertexCount returns the number of vertices in the chunk.
func (c Chunk) VertexCount() int { return c.Vertices.Size / 3 }

// Batch is one geometry group of a snapshot.
//
// Non-indexed batches (points, lines, triangles and point instances) use
// Vertices. Indexed batches use Chunks, whose vertex ranges are contiguous
// and in order. Block instances use Transforms, six floats per instance
// as written by Affine.Rows. Point instances use Vertices as the instance
// positions.
type Batch struct {
	Key GeometryKey
	// Owner names the block whose definition holds the batch. It is empty
	// for batches drawn directly.
	Owner      string
	Vertices   Range
	Chunks     []Chunk
	Transforms Range
}

// VertexCount returns the number of vertices of the batch.
func (b *Batch) VertexCount() int {
	if b.Key.Kind.IsIndexed() {
		n := 0
		for _, c := range b.Chunks {
			n += c.VertexCount()
		}
		return n
	}
	return b.Vertices.Size / 3
}

// InstanceCount returns the number of placements of an instance batch.
func (b *Batch) InstanceCount() int {
	switch b.Key.Kind {
	case GeometryBlockInstance:
		return b.Transforms.Size / 6
	case GeometryPointInstance:
		return b.Vertices.Size / 3
	}
	return 0
}

// chunkSpan is a chunk in batch-local element offsets.
type chunkSpan struct {
	vStart, vCount int // in vertices
	iStart, iCount int
}

// batch accumulates geometry for one key while building.
type batch struct {
	key   GeometryKey
	owner string

	vertices   []float32
	indices    []uint16
	chunks     []chunkSpan
	transforms []float32
}

func lessBatch(a, b *batch) bool {
	if c := a.key.Compare(b.key); c != 0 {
		return c < 0
	}
	return cmp.Less(a.owner, b.owner)
}

// batchSet is the ordered partition of geometry by key. Iteration follows
// key order, so the output does not depend on entity order.
type batchSet struct {
	tree *btree.BTreeG[*batch]
}

func newBatchSet() *batchSet {
	return &batchSet{tree: btree.NewG(16, lessBatch)}
}

// get returns the batch for key and owner, creating it on first use.
func (s *batchSet) get(key GeometryKey, owner string) *batch {
	probe := &batch{key: key, owner: owner}
	if b, ok := s.tree.Get(probe); ok {
		return b
	}
	s.tree.ReplaceOrInsert(probe)
	return probe
}

func (s *batchSet) len() int { return s.tree.Len() }

func (s *batchSet) each(fn func(*batch)) {
	s.tree.Ascend(func(b *batch) bool {
		fn(b)
		return true
	})
}

func (b *batch) vertexCount() int { return len(b.vertices) / 3 }

func (b *batch) push(v vec3f) {
	b.vertices = append(b.vertices, v[0], v[1], v[2])
}

func (b *batch) pushTransform(a Affine) {
	r := a.Rows()
	b.transforms = append(b.transforms, r[:]...)
}

// pushIndexed appends one primitive. A primitive never spans chunks: when
// it does not fit in the current chunk, a new chunk is started. Callers
// split primitives larger than MaxChunkVertices beforehand.
func (b *batch) pushIndexed(verts []vec3f, indices []int) {
	n := len(verts)
	if n == 0 {
		return
	}
	if n > MaxChunkVertices {
		panic("scene: primitive exceeds chunk capacity")
	}
	if len(b.chunks) == 0 || b.chunks[len(b.chunks)-1].vCount+n > MaxChunkVertices {
		b.chunks = append(b.chunks, chunkSpan{
			vStart: b.vertexCount(),
			iStart: len(b.indices),
		})
	}
	c := &b.chunks[len(b.chunks)-1]
	base := c.vCount
	for _, v := range verts {
		b.push(v)
	}
	for _, i := range indices {
		b.indices = append(b.indices, uint16(base+i))
	}
	c.vCount += n
	c.iCount += len(indices)
}

// vec3f is a buffer vertex.
type vec3f [3]float32
