package scene

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/pattern"
)

var (
	red   = dxf.RGB{R: 255}
	green = dxf.RGB{G: 255}
)

func props(layer string, c dxf.ColorRef) parser.Properties {
	return parser.Properties{Layer: layer, Color: c}
}

func newDoc(entities ...parser.Entity) *parser.Document {
	doc := parser.NewDocument()
	doc.AddLayer(&parser.Layer{Name: "0", Color: dxf.White})
	doc.AddLayer(&parser.Layer{Name: "RED", Color: red})
	for _, e := range entities {
		doc.AddEntity(e)
	}
	return doc
}

func line(layer string, c dxf.ColorRef, x0, y0, x1, y1 float64) *parser.Line {
	return &parser.Line{
		Properties: props(layer, c),
		Start:      parser.Vec3{X: x0, Y: y0},
		End:        parser.Vec3{X: x1, Y: y1},
	}
}

func mustBuild(t *testing.T, doc *parser.Document, opts Options) *Snapshot {
	t.Helper()
	snap, err := NewBuilder(doc, opts).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return snap
}

func findBatch(s *Snapshot, match func(*Batch) bool) *Batch {
	for i := range s.Batches {
		if match(&s.Batches[i]) {
			return &s.Batches[i]
		}
	}
	return nil
}

func ofKind(k GeometryKind) func(*Batch) bool {
	return func(b *Batch) bool { return b.Key.Kind == k }
}

func TestBuildEmptyDocument(t *testing.T) {
	_, err := NewBuilder(newDoc(), DefaultOptions()).Build(context.Background())
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Build() error = %v, want ErrEmptyDocument", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, err := NewBuilder(newDoc(line("0", dxf.ByLayer, 0, 0, 1, 1)), DefaultOptions()).Build(ctx)
	if !errors.Is(err, context.Canceled) || snap != nil {
		t.Errorf("Build() = %v, %v; want nil, context.Canceled", snap, err)
	}
}

func TestBuildLineOrigin(t *testing.T) {
	snap := mustBuild(t, newDoc(line("RED", dxf.ByLayer, 100, 200, 103, 204)), DefaultOptions())
	if snap.Origin != (Vec2{X: 100, Y: 200}) {
		t.Errorf("Origin = %+v, want (100, 200)", snap.Origin)
	}
	if len(snap.Batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(snap.Batches))
	}
	b := snap.Batches[0]
	want := GeometryKey{Kind: GeometryLines, Layer: "RED", Color: dxf.Literal(red)}
	if b.Key != want {
		t.Errorf("Key = %v, want %v", b.Key, want)
	}
	got := snap.VerticesOf(b.Vertices)
	if !slices.Equal(got, []float32{0, 0, 0, 3, 4, 0}) {
		t.Errorf("vertices = %v, want origin-relative [0 0 0 3 4 0]", got)
	}
	wantBounds := Bounds{MinX: 100, MaxX: 103, MinY: 200, MaxY: 204}
	if snap.Bounds != wantBounds {
		t.Errorf("Bounds = %+v, want %+v", snap.Bounds, wantBounds)
	}
}

func TestBuildTopLevelColors(t *testing.T) {
	doc := newDoc(
		line("RED", dxf.ByLayer, 0, 0, 1, 0),
		line("MISSING", dxf.ByLayer, 0, 0, 1, 0),
		line("0", dxf.ByBlock, 0, 0, 1, 0),
		line("0", dxf.Literal(green), 0, 0, 1, 0),
	)
	snap := mustBuild(t, doc, DefaultOptions())
	want := map[string][]dxf.ColorRef{
		"RED":     {dxf.Literal(red)},
		"MISSING": {dxf.Literal(dxf.Black)},
		"0":       {dxf.Literal(green), dxf.Literal(dxf.White)},
	}
	got := map[string][]dxf.ColorRef{}
	for _, b := range snap.Batches {
		got[b.Key.Layer] = append(got[b.Key.Layer], b.Key.Color)
	}
	for layer, colors := range want {
		slices.SortFunc(colors, dxf.ColorRef.Compare)
		if !slices.Equal(got[layer], colors) {
			t.Errorf("layer %q colors = %v, want %v", layer, got[layer], colors)
		}
	}
}

func TestBuildArcSweepWraps(t *testing.T) {
	start, end := 350*math.Pi/180, 10*math.Pi/180
	e := &parser.Circle{
		Properties:  props("0", dxf.ByLayer),
		Radius:      10,
		StartAngle:  start,
		EndAngle:    end,
		AngleLength: parser.SweepAngle(start, end),
		IsArc:       true,
	}
	snap := mustBuild(t, newDoc(e), DefaultOptions())
	b := findBatch(snap, ofKind(GeometryIndexedLines))
	if b == nil || len(b.Chunks) != 1 {
		t.Fatalf("indexed line batch = %+v", b)
	}
	c := b.Chunks[0]
	// A 20 degree arc at 10 degree steps.
	if c.VertexCount() != 3 {
		t.Errorf("arc has %d vertices, want 3", c.VertexCount())
	}
	if got := snap.IndicesOf(c.Indices); !slices.Equal(got, []uint16{0, 1, 1, 2}) {
		t.Errorf("indices = %v, want [0 1 1 2]", got)
	}
	v := snap.VerticesOf(c.Vertices)
	// The sweep runs through angle 0 rather than backwards through 180.
	if !near(float64(v[3]), 10-10*math.Cos(start), 1e-4) || !near(float64(v[4]), -10*math.Sin(start), 1e-4) {
		t.Errorf("middle vertex = (%v, %v), want on the +X side", v[3], v[4])
	}
	if !near(float64(v[6]), 0, 1e-4) || !near(float64(v[7]), 20*math.Sin(end), 1e-4) {
		t.Errorf("last vertex = (%v, %v), want (0, %v)", v[6], v[7], 20*math.Sin(end))
	}
	if !near(snap.Bounds.MaxX, 10, 1e-9) {
		t.Errorf("Bounds.MaxX = %v, want 10", snap.Bounds.MaxX)
	}
}

func TestBuildFullCircle(t *testing.T) {
	c := &parser.Circle{Properties: props("0", dxf.ByLayer), Radius: 1, AngleLength: 2 * math.Pi}
	snap := mustBuild(t, newDoc(c), DefaultOptions())
	b := findBatch(snap, ofKind(GeometryIndexedLines))
	if b == nil {
		t.Fatal("no indexed line batch")
	}
	ch := b.Chunks[0]
	if ch.VertexCount() != 36 || ch.Indices.Size != 72 {
		t.Errorf("circle = %d vertices, %d indices; want 36, 72", ch.VertexCount(), ch.Indices.Size)
	}
	ix := snap.IndicesOf(ch.Indices)
	if ix[70] != 35 || ix[71] != 0 {
		t.Errorf("closing segment = %d-%d, want 35-0", ix[70], ix[71])
	}
}

func TestBuildLongPolylineIsChunked(t *testing.T) {
	const n = 70000
	vs := make([]parser.Vertex, n)
	for i := range vs {
		vs[i].Position = parser.Vec3{X: float64(i), Y: float64(i % 2)}
	}
	pl := &parser.Polyline{Properties: props("0", dxf.ByLayer), Vertices: vs}
	snap := mustBuild(t, newDoc(pl), DefaultOptions())
	b := findBatch(snap, ofKind(GeometryIndexedLines))
	if b == nil || len(b.Chunks) != 2 {
		t.Fatalf("batch = %+v, want 2 chunks", b)
	}
	segments := 0
	next := b.Chunks[0].Vertices.Offset
	for _, c := range b.Chunks {
		if c.VertexCount() > MaxChunkVertices {
			t.Errorf("chunk has %d vertices", c.VertexCount())
		}
		if c.Vertices.Offset != next {
			t.Errorf("chunk starts at %d, want %d", c.Vertices.Offset, next)
		}
		next = c.Vertices.End()
		for _, ix := range snap.IndicesOf(c.Indices) {
			if int(ix) >= c.VertexCount() {
				t.Fatalf("index %d outside chunk", ix)
			}
		}
		segments += c.Indices.Size / 2
	}
	if segments != n-1 {
		t.Errorf("got %d segments, want %d", segments, n-1)
	}
	// The pieces share the split vertex.
	first, second := b.Chunks[0], b.Chunks[1]
	lastOfFirst := snap.Vertices[first.Vertices.End()-3 : first.Vertices.End()]
	firstOfSecond := snap.Vertices[second.Vertices.Offset : second.Vertices.Offset+3]
	if !slices.Equal(lastOfFirst, firstOfSecond) {
		t.Errorf("split vertices differ: %v, %v", lastOfFirst, firstOfSecond)
	}
}

func blockDoc() *parser.Document {
	doc := newDoc()
	doc.AddBlock(&parser.Block{
		Name: "B",
		Base: parser.Vec3{X: 1, Y: 1},
		Entities: []parser.Entity{
			line("0", dxf.ByBlock, 1, 1, 2, 1),
		},
	})
	return doc
}

func TestBuildInsert(t *testing.T) {
	doc := blockDoc()
	doc.AddEntity(&parser.Insert{
		Properties: props("RED", dxf.ByLayer),
		Block:      "B",
		Position:   parser.Vec3{X: 10},
		Rotation:   math.Pi / 2,
	})
	snap := mustBuild(t, doc, DefaultOptions())

	def := findBatch(snap, func(b *Batch) bool { return b.Owner == "B" })
	if def == nil {
		t.Fatal("no definition batch for B")
	}
	wantDef := GeometryKey{Kind: GeometryLines, Layer: "0", Color: dxf.ByBlock, Block: "B"}
	if def.Key != wantDef {
		t.Errorf("definition key = %v, want %v", def.Key, wantDef)
	}
	if got := snap.VerticesOf(def.Vertices); !slices.Equal(got, []float32{0, 0, 0, 1, 0, 0}) {
		t.Errorf("definition vertices = %v, want base-relative [0 0 0 1 0 0]", got)
	}

	inst := findBatch(snap, ofKind(GeometryBlockInstance))
	if inst == nil {
		t.Fatal("no instance batch")
	}
	wantInst := GeometryKey{Kind: GeometryBlockInstance, Layer: "RED", Color: dxf.Literal(red), Block: "B"}
	if inst.Key != wantInst || inst.Owner != "" {
		t.Errorf("instance = %v owner %q, want %v", inst.Key, inst.Owner, wantInst)
	}
	if inst.InstanceCount() != 1 {
		t.Fatalf("InstanceCount() = %d, want 1", inst.InstanceCount())
	}
	// The insertion point is the first point seen, so the stored
	// translation is zero.
	xf := AffineFromRows(snap.TransformsOf(inst.Transforms))
	if !near(xf.C, 0, 1e-6) || !near(xf.F, 0, 1e-6) || !near(xf.D, 1, 1e-6) {
		t.Errorf("transform = %+v, want a quarter turn at the origin", xf)
	}
	// The unit line along +X turns to +Y at x = 10.
	want := Bounds{MinX: 10, MaxX: 10, MinY: 0, MaxY: 1}
	b := snap.Bounds
	if !near(b.MinX, want.MinX, 1e-9) || !near(b.MaxX, want.MaxX, 1e-9) ||
		!near(b.MinY, want.MinY, 1e-9) || !near(b.MaxY, want.MaxY, 1e-9) {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
	if got := snap.Blocks(); !slices.Equal(got, []string{"B"}) {
		t.Errorf("Blocks() = %v, want [B]", got)
	}
}

func TestBuildInsertArray(t *testing.T) {
	doc := blockDoc()
	doc.AddEntity(&parser.Insert{
		Properties:    props("0", dxf.Literal(green)),
		Block:         "B",
		Columns:       2,
		Rows:          2,
		ColumnSpacing: 5,
		RowSpacing:    7,
	})
	snap := mustBuild(t, doc, DefaultOptions())
	inst := findBatch(snap, ofKind(GeometryBlockInstance))
	if inst == nil || inst.InstanceCount() != 4 {
		t.Fatalf("instance batch = %+v, want 4 instances", inst)
	}
	if snap.Bounds.MaxX != 6 || snap.Bounds.MaxY != 7 {
		t.Errorf("Bounds = %+v, want max (6, 7)", snap.Bounds)
	}
}

func TestBuildUnusedBlockSkipped(t *testing.T) {
	doc := blockDoc()
	doc.AddEntity(line("0", dxf.ByLayer, 0, 0, 1, 0))
	snap := mustBuild(t, doc, DefaultOptions())
	if got := snap.Blocks(); len(got) != 0 {
		t.Errorf("Blocks() = %v, want none", got)
	}
}

func TestBuildNestedAndCyclicBlocks(t *testing.T) {
	doc := newDoc()
	doc.AddBlock(&parser.Block{Name: "A", Entities: []parser.Entity{
		line("0", dxf.ByLayer, 0, 0, 1, 0),
		&parser.Insert{Properties: props("0", dxf.ByBlock), Block: "B", Position: parser.Vec3{X: 5}},
	}})
	doc.AddBlock(&parser.Block{Name: "B", Entities: []parser.Entity{
		line("0", dxf.ByLayer, 0, 0, 0, 1),
		&parser.Insert{Properties: props("0", dxf.ByBlock), Block: "A"},
	}})
	doc.AddEntity(&parser.Insert{Properties: props("0", dxf.ByLayer), Block: "A"})

	snap := mustBuild(t, doc, DefaultOptions())
	nested := findBatch(snap, func(b *Batch) bool {
		return b.Key.Kind == GeometryBlockInstance && b.Owner == "A"
	})
	if nested == nil || nested.Key.Block != "B" {
		t.Fatalf("nested instance batch = %+v", nested)
	}
	xf := AffineFromRows(snap.TransformsOf(nested.Transforms))
	if xf.C != 5 {
		t.Errorf("nested translation = %v, want 5", xf.C)
	}
	if got := snap.Blocks(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Blocks() = %v, want [A B]", got)
	}
	if snap.Bounds.MaxX != 5 || snap.Bounds.MaxY != 1 {
		t.Errorf("Bounds = %+v, want max (5, 1)", snap.Bounds)
	}
}

func TestBuildPaperSpace(t *testing.T) {
	l := line("0", dxf.ByLayer, 0, 0, 1, 0)
	l.PaperSpace = true
	opts := DefaultOptions()
	opts.SuppressPaperSpace = true
	if _, err := NewBuilder(newDoc(l), opts).Build(context.Background()); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("suppressed build error = %v, want ErrEmptyDocument", err)
	}
	mustBuild(t, newDoc(l), DefaultOptions())
}

func TestBuildPoints(t *testing.T) {
	tests := []struct {
		mode     int
		kind     GeometryKind
		hasDot   bool
		defKinds []GeometryKind
	}{
		{0, GeometryPoints, false, nil},
		{2, GeometryPointInstance, false, []GeometryKind{GeometryLines}},
		{32, GeometryPointInstance, true, []GeometryKind{GeometryIndexedLines}},
		{66, GeometryPointInstance, false, []GeometryKind{GeometryLines, GeometryIndexedLines}},
	}
	for _, tt := range tests {
		doc := newDoc(&parser.Point{Properties: props("0", dxf.ByLayer), Position: parser.Vec3{X: 3, Y: 4}})
		doc.Header.PDMode = tt.mode
		doc.Header.PDSize = 2
		snap := mustBuild(t, doc, DefaultOptions())
		b := findBatch(snap, func(b *Batch) bool { return b.Owner == "" })
		if b == nil || b.Key.Kind != tt.kind {
			t.Errorf("mode %d: top-level batch = %+v, want kind %v", tt.mode, b, tt.kind)
			continue
		}
		if snap.PointShapeHasDot != tt.hasDot {
			t.Errorf("mode %d: PointShapeHasDot = %v, want %v", tt.mode, snap.PointShapeHasDot, tt.hasDot)
		}
		var kinds []GeometryKind
		for _, d := range snap.Batches {
			if d.Owner == PointShapeBlock {
				kinds = append(kinds, d.Key.Kind)
			}
		}
		if !slices.Equal(kinds, tt.defKinds) {
			t.Errorf("mode %d: shape batches = %v, want %v", tt.mode, kinds, tt.defKinds)
		}
		if tt.kind == GeometryPointInstance {
			if b.Key.Block != PointShapeBlock || b.InstanceCount() != 1 {
				t.Errorf("mode %d: instance batch = %+v", tt.mode, b)
			}
			if snap.Bounds.MinX != 2 || snap.Bounds.MaxY != 5 {
				t.Errorf("mode %d: Bounds = %+v, want marker extent", tt.mode, snap.Bounds)
			}
		}
	}
}

func squareLoop(x0, y0, x1, y1 float64) parser.HatchLoop {
	return parser.HatchLoop{Flags: 2, Closed: true, Vertices: []parser.Vertex{
		{Position: parser.Vec3{X: x0, Y: y0}},
		{Position: parser.Vec3{X: x1, Y: y0}},
		{Position: parser.Vec3{X: x1, Y: y1}},
		{Position: parser.Vec3{X: x0, Y: y1}},
	}}
}

func TestBuildSolidHatch(t *testing.T) {
	h := &parser.Hatch{
		Properties:   props("0", dxf.ByLayer),
		Solid:        true,
		PatternScale: 1,
		Loops:        []parser.HatchLoop{squareLoop(0, 0, 10, 10), squareLoop(2, 2, 4, 4)},
	}
	snap := mustBuild(t, newDoc(h), DefaultOptions())
	b := findBatch(snap, ofKind(GeometryIndexedTriangles))
	if b == nil {
		t.Fatal("no indexed triangle batch")
	}
	var area float64
	for _, c := range b.Chunks {
		v := snap.VerticesOf(c.Vertices)
		ix := snap.IndicesOf(c.Indices)
		for i := 0; i+2 < len(ix); i += 3 {
			p, q, r := int(ix[i])*3, int(ix[i+1])*3, int(ix[i+2])*3
			ax, ay := float64(v[q]-v[p]), float64(v[q+1]-v[p+1])
			bx, by := float64(v[r]-v[p]), float64(v[r+1]-v[p+1])
			area += (ax*by - ay*bx) / 2
		}
	}
	if !near(area, 96, 1e-4) {
		t.Errorf("filled area = %v, want 96", area)
	}
}

func TestBuildPatternHatch(t *testing.T) {
	reg := pattern.NewRegistry()
	p, err := pattern.ParsePAT("*STRIPES, horizontal lines\n0, 0,0, 0,1\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(p, false); err != nil {
		t.Fatal(err)
	}
	h := &parser.Hatch{
		Properties:   props("0", dxf.ByLayer),
		PatternName:  "stripes",
		PatternScale: 1,
		Loops:        []parser.HatchLoop{squareLoop(0, 0, 10, 10)},
	}
	opts := DefaultOptions()
	opts.Patterns = reg
	doc := newDoc(h)
	doc.Header.SetMeasurement(1)
	snap := mustBuild(t, doc, opts)
	b := findBatch(snap, ofKind(GeometryLines))
	if b == nil {
		t.Fatal("no line batch; metric lookup should fall back to the imperial pattern")
	}
	if got := b.Vertices.Size / 6; got != 10 {
		t.Errorf("got %d hatch lines, want 10", got)
	}
}

func TestBuildUnknownPatternDrawsBoundary(t *testing.T) {
	h := &parser.Hatch{
		Properties:   props("0", dxf.ByLayer),
		PatternName:  "NO-SUCH-PATTERN",
		PatternScale: 1,
		Loops:        []parser.HatchLoop{squareLoop(0, 0, 10, 10)},
	}
	opts := DefaultOptions()
	opts.Patterns = pattern.NewRegistry()
	snap := mustBuild(t, newDoc(h), opts)
	b := findBatch(snap, ofKind(GeometryIndexedLines))
	if b == nil || b.VertexCount() != 4 {
		t.Errorf("boundary batch = %+v, want a closed 4 vertex outline", b)
	}
}

func TestBuildEmbeddedPattern(t *testing.T) {
	h := &parser.Hatch{
		Properties:   props("0", dxf.ByLayer),
		PatternName:  "CUSTOM",
		PatternScale: 1,
		Loops:        []parser.HatchLoop{squareLoop(0, 0, 10, 10)},
		PatternLines: []pattern.Line{{Offset: pattern.Point{Y: 2}}},
	}
	opts := DefaultOptions()
	opts.Patterns = pattern.NewRegistry()
	snap := mustBuild(t, newDoc(h), opts)
	b := findBatch(snap, ofKind(GeometryLines))
	if b == nil {
		t.Fatal("no line batch")
	}
	// Horizontal lines at y = 0, 2, .., 8.
	if got := b.Vertices.Size / 6; got != 5 {
		t.Errorf("got %d lines, want 5", got)
	}
}

func TestBuildText(t *testing.T) {
	tx := &parser.Text{
		Properties:  props("0", dxf.ByLayer),
		Text:        "HI",
		Height:      2,
		WidthFactor: 1,
	}
	snap := mustBuild(t, newDoc(tx), DefaultOptions())
	if snap.HasMissingChars {
		t.Error("HasMissingChars set for ASCII text")
	}
	if b := findBatch(snap, ofKind(GeometryIndexedLines)); b == nil {
		t.Fatal("no glyph outlines")
	}
	if !near(snap.Bounds.MaxY, 2, 0.01) || !near(snap.Bounds.MinY, 0, 0.01) {
		t.Errorf("text bounds Y = [%v, %v], want [0, 2]", snap.Bounds.MinY, snap.Bounds.MaxY)
	}

	missing := &parser.Text{Properties: props("0", dxf.ByLayer), Text: "A\u4e16", Height: 1}
	snap = mustBuild(t, newDoc(missing), DefaultOptions())
	if !snap.HasMissingChars {
		t.Error("HasMissingChars not set")
	}
}

func TestBuildDeterministic(t *testing.T) {
	ents := []parser.Entity{
		line("RED", dxf.ByLayer, 0, 0, 1, 0),
		line("0", dxf.Literal(green), 0, 0, 0, 1),
		&parser.Solid{Properties: props("0", dxf.ByLayer), Corners: [4]parser.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}},
	}
	a := mustBuild(t, newDoc(ents...), DefaultOptions())
	rev := slices.Clone(ents)
	slices.Reverse(rev)
	b := mustBuild(t, newDoc(rev...), DefaultOptions())
	if len(a.Batches) != len(b.Batches) {
		t.Fatalf("batch counts differ: %d, %d", len(a.Batches), len(b.Batches))
	}
	for i := range a.Batches {
		if a.Batches[i].Key != b.Batches[i].Key {
			t.Errorf("batch %d key = %v vs %v", i, a.Batches[i].Key, b.Batches[i].Key)
		}
	}
	if got := a.ChunkCount(); got != 3 {
		t.Errorf("ChunkCount() = %d, want 3", got)
	}
}

func BenchmarkBuild(b *testing.B) {
	var ents []parser.Entity
	for i := range 1000 {
		x := float64(i)
		ents = append(ents,
			line("0", dxf.ByLayer, x, 0, x+1, 1),
			&parser.Circle{Properties: props("RED", dxf.ByLayer), Center: parser.Vec3{X: x}, Radius: 1, AngleLength: 2 * math.Pi},
		)
	}
	doc := newDoc(ents...)
	bld := NewBuilder(doc, DefaultOptions())
	for b.Loop() {
		if _, err := bld.Build(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
