package scene

import (
	"slices"
	"testing"

	"github.com/gogpu/dxf"
)

func TestGeometryKeyCompare(t *testing.T) {
	red := dxf.Literal(dxf.RGB{R: 255})
	tests := []struct {
		name string
		a, b GeometryKey
		want int
	}{
		{"equal", GeometryKey{Kind: GeometryLines, Layer: "A"}, GeometryKey{Kind: GeometryLines, Layer: "A"}, 0},
		{"kind first", GeometryKey{Kind: GeometryPoints, Layer: "Z"}, GeometryKey{Kind: GeometryLines, Layer: "A"}, -1},
		{"layer", GeometryKey{Kind: GeometryLines, Layer: "A"}, GeometryKey{Kind: GeometryLines, Layer: "B"}, -1},
		{"literal before by-block", GeometryKey{Kind: GeometryLines, Color: red}, GeometryKey{Kind: GeometryLines, Color: dxf.ByBlock}, -1},
		{"by-block before by-layer", GeometryKey{Kind: GeometryLines, Color: dxf.ByBlock}, GeometryKey{Kind: GeometryLines, Color: dxf.ByLayer}, -1},
		{"rgb", GeometryKey{Kind: GeometryLines, Color: red}, GeometryKey{Kind: GeometryLines, Color: dxf.Literal(dxf.Black)}, 1},
		{"block last", GeometryKey{Kind: GeometryLines, Block: "B"}, GeometryKey{Kind: GeometryLines, Block: "A"}, 1},
		{"null block first", GeometryKey{Kind: GeometryLines}, GeometryKey{Kind: GeometryLines, Block: "A"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("reverse Compare() = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestGeometryKindPredicates(t *testing.T) {
	tests := []struct {
		kind                     GeometryKind
		valid, instance, indexed bool
		name                     string
	}{
		{GeometryUnknown, false, false, false, "Unknown"},
		{GeometryPoints, true, false, false, "Points"},
		{GeometryLines, true, false, false, "Lines"},
		{GeometryIndexedLines, true, false, true, "IndexedLines"},
		{GeometryTriangles, true, false, false, "Triangles"},
		{GeometryIndexedTriangles, true, false, true, "IndexedTriangles"},
		{GeometryBlockInstance, true, true, false, "BlockInstance"},
		{GeometryPointInstance, true, true, false, "PointInstance"},
		{GeometryKind(42), false, false, false, "GeometryKind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.valid {
			t.Errorf("%v.Valid() = %v, want %v", tt.kind, got, tt.valid)
		}
		if got := tt.kind.IsInstance(); got != tt.instance {
			t.Errorf("%v.IsInstance() = %v, want %v", tt.kind, got, tt.instance)
		}
		if got := tt.kind.IsIndexed(); got != tt.indexed {
			t.Errorf("%v.IsIndexed() = %v, want %v", tt.kind, got, tt.indexed)
		}
		if got := tt.kind.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
}

func TestGeometryKeyIsDefinition(t *testing.T) {
	if (GeometryKey{Kind: GeometryLines}).IsDefinition() {
		t.Error("top-level key reported as definition")
	}
	if !(GeometryKey{Kind: GeometryLines, Block: "B"}).IsDefinition() {
		t.Error("block geometry not reported as definition")
	}
	if (GeometryKey{Kind: GeometryBlockInstance, Block: "B"}).IsDefinition() {
		t.Error("instance key reported as definition")
	}
}

func TestBatchSetOrderIndependent(t *testing.T) {
	keys := []GeometryKey{
		{Kind: GeometryTriangles, Layer: "B"},
		{Kind: GeometryLines, Layer: "B", Color: dxf.ByLayer},
		{Kind: GeometryLines, Layer: "A"},
		{Kind: GeometryPoints, Layer: "Z"},
		{Kind: GeometryLines, Layer: "B", Color: dxf.ByBlock},
		{Kind: GeometryLines, Layer: "A"},
	}
	collect := func(order []GeometryKey) []GeometryKey {
		s := newBatchSet()
		for _, k := range order {
			s.get(k, "").push(vec3f{})
		}
		var out []GeometryKey
		s.each(func(b *batch) { out = append(out, b.key) })
		return out
	}
	fwd := collect(keys)
	rev := slices.Clone(keys)
	slices.Reverse(rev)
	if got := collect(rev); !slices.Equal(fwd, got) {
		t.Errorf("batch order depends on input order:\n%v\n%v", fwd, got)
	}
	if len(fwd) != 5 {
		t.Errorf("got %d batches, want 5", len(fwd))
	}
	if !slices.IsSortedFunc(fwd, GeometryKey.Compare) {
		t.Errorf("batches not in key order: %v", fwd)
	}
}
