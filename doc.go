// Package dxf turns parsed CAD drawings into renderer-agnostic geometry batches.
//
// # Overview
//
// A DXF document is read by the parser package, grouped into batches by the
// scene package and resolved into drawables by the render package. The root
// package holds what every stage shares: the color model and the logger.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/dxf/parser"
//	    "github.com/gogpu/dxf/render"
//	    "github.com/gogpu/dxf/scene"
//	)
//
//	doc, err := parser.Parse(f, parser.ParseOptions{})
//	snap, err := scene.NewBuilder(doc, scene.DefaultOptions()).Build(ctx)
//	loader := render.NewLoader(render.DefaultOptions())
//	err = loader.Load(snap)
//	for _, d := range loader.Drawables() {
//	    // upload d.Vertices, d.Indices and d.Transforms
//	}
//
// # Colors
//
// Entity colors are [RGB] values with 8-bit channels. Colors that inherit
// from the enclosing block reference or layer are represented by [ColorRef]
// rather than magic numbers. [TransformColor] keeps colors legible against
// the background using WCAG luminance and contrast ratio.
//
// # Architecture
//
// The module is organized into:
//   - dxf: color science, AutoCAD Color Index palette, logger
//   - parser: group code scanner and document model
//   - pattern: PAT hatch pattern grammar and registry
//   - text: glyph outlines for TEXT entities
//   - scene: batching, chunking and snapshot encoding
//   - material: render-state keys, cache and templates
//   - render: instance resolution and drawables
//   - cmd/dxfbatch: command line conversion and inspection
//
// # Logging
//
// The module is silent by default. Call [SetLogger] to enable diagnostics.
package dxf
