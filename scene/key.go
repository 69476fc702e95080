package scene

import (
	"cmp"
	"fmt"

	"github.com/gogpu/dxf"
)

// GeometryKind is the primitive layout of a batch.
type GeometryKind uint8

const (
	// GeometryUnknown is never produced by the builder. A batch carrying
	// it is rejected with ErrUnsupportedGeometry.
	GeometryUnknown GeometryKind = iota
	// GeometryPoints is a list of single vertices.
	GeometryPoints
	// GeometryLines is a list of vertex pairs.
	GeometryLines
	// GeometryIndexedLines is a chunked vertex list with index pairs.
	GeometryIndexedLines
	// GeometryTriangles is a list of vertex triples.
	GeometryTriangles
	// GeometryIndexedTriangles is a chunked vertex list with index triples.
	GeometryIndexedTriangles
	// GeometryBlockInstance places a block once per transform.
	GeometryBlockInstance
	// GeometryPointInstance places the point shape block once per vertex.
	GeometryPointInstance
)

var geometryKindNames = [...]string{
	GeometryUnknown:          "Unknown",
	GeometryPoints:           "Points",
	GeometryLines:            "Lines",
	GeometryIndexedLines:     "IndexedLines",
	GeometryTriangles:        "Triangles",
	GeometryIndexedTriangles: "IndexedTriangles",
	GeometryBlockInstance:    "BlockInstance",
	GeometryPointInstance:    "PointInstance",
}

// String returns the kind name.
func (k GeometryKind) String() string {
	if int(k) < len(geometryKindNames) {
		return geometryKindNames[k]
	}
	return fmt.Sprintf("GeometryKind(%d)", uint8(k))
}

// Valid reports whether k is one of the kinds the builder emits.
func (k GeometryKind) Valid() bool {
	return k > GeometryUnknown && k <= GeometryPointInstance
}

// IsInstance reports whether k places a block rather than carrying
// geometry of its own.
func (k GeometryKind) IsInstance() bool {
	return k == GeometryBlockInstance || k == GeometryPointInstance
}

// IsIndexed reports whether batches of kind k are chunked with indices.
func (k GeometryKind) IsIndexed() bool {
	return k == GeometryIndexedLines || k == GeometryIndexedTriangles
}

// GeometryKey groups entity geometry into batches. Equal keys share a
// batch. Block is empty for geometry outside any block; for instance
// kinds it names the referenced block, otherwise the block being defined.
type GeometryKey struct {
	Kind  GeometryKind
	Layer string
	Color dxf.ColorRef
	Block string
}

// Compare orders keys by kind, layer, color and block, in that order.
func (k GeometryKey) Compare(o GeometryKey) int {
	if c := cmp.Compare(k.Kind, o.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Layer, o.Layer); c != 0 {
		return c
	}
	if c := k.Color.Compare(o.Color); c != 0 {
		return c
	}
	return cmp.Compare(k.Block, o.Block)
}

// IsDefinition reports whether the key routes geometry into the
// definition of block Block.
func (k GeometryKey) IsDefinition() bool {
	return k.Block != "" && !k.Kind.IsInstance()
}

func (k GeometryKey) String() string {
	if k.Block == "" {
		return fmt.Sprintf("%v{layer=%q color=%v}", k.Kind, k.Layer, k.Color)
	}
	return fmt.Sprintf("%v{layer=%q color=%v block=%q}", k.Kind, k.Layer, k.Color, k.Block)
}
