// Package scene converts a parsed drawing into render-ready geometry
// batches.
//
// A Builder walks the document once. Every entity is tessellated into
// points, lines or triangles and appended to the batch of its
// GeometryKey; block references become instance batches carrying one
// transform per placement. The result is an immutable Snapshot holding
// three flat buffers (vertices, uint16 indices, instance transforms) and
// the batch table describing them:
//
//	doc, err := parser.ParseFile("plan.dxf", parser.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//	snap, err := scene.NewBuilder(doc, scene.DefaultOptions()).Build(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(snap.Batches), "batches")
//
// Indexed batches are split into chunks of at most MaxChunkVertices
// vertices so that every chunk can be drawn with 16-bit indices.
//
// Top-level vertices are stored relative to Snapshot.Origin to keep
// float32 precision for drawings far from the coordinate origin. Block
// definition vertices are stored relative to the block base point.
//
// Snapshots can be persisted with WriteSnapshot and ReadSnapshot.
package scene
