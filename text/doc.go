// Package text turns strings into flattened glyph contours.
//
// A FontSet holds one or more parsed faces (the embedded Go Regular font is
// always present as the last resort). A Renderer lays a string out at a given
// cap height and returns closed polylines per line of text, ready to be
// emitted as indexed line geometry:
//
//	fonts := text.NewFontSet()
//	r := text.NewRenderer(fonts, text.DefaultOptions())
//	layout := r.Layout("Section A-A", 2.5)
//	for _, line := range layout.Lines {
//	    for _, c := range line.Contours {
//	        // c is a closed polyline in text units
//	    }
//	}
//
// Characters no face can draw are replaced by Options.FallbackChar and
// counted in Layout.Missing.
package text
