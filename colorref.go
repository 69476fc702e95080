package dxf

// ColorKind tells how a ColorRef resolves.
type ColorKind uint8

const (
	// ColorLiteral is an explicit color.
	ColorLiteral ColorKind = iota
	// ColorByBlock inherits the color of the block reference that places
	// the geometry.
	ColorByBlock
	// ColorByLayer inherits the color of the geometry's layer.
	ColorByLayer
)

// String returns the DXF spelling of the kind.
func (k ColorKind) String() string {
	switch k {
	case ColorLiteral:
		return "LITERAL"
	case ColorByBlock:
		return "BYBLOCK"
	case ColorByLayer:
		return "BYLAYER"
	default:
		return "UNKNOWN"
	}
}

// ColorRef is either a literal color or one of the inheritance markers.
// The zero value is literal black.
type ColorRef struct {
	Kind ColorKind
	// RGB is meaningful only for ColorLiteral.
	RGB RGB
}

// Inheritance markers.
var (
	ByBlock = ColorRef{Kind: ColorByBlock}
	ByLayer = ColorRef{Kind: ColorByLayer}
)

// Literal wraps an explicit color.
func Literal(c RGB) ColorRef {
	return ColorRef{Kind: ColorLiteral, RGB: c}
}

// Compare orders by kind (literal, by-block, by-layer) and then by color.
func (c ColorRef) Compare(o ColorRef) int {
	switch {
	case c.Kind < o.Kind:
		return -1
	case c.Kind > o.Kind:
		return 1
	case c.Kind != ColorLiteral:
		return 0
	}
	return c.RGB.Compare(o.RGB)
}

// Resolve returns the concrete color: block for ColorByBlock, layer for
// ColorByLayer and the literal otherwise.
func (c ColorRef) Resolve(block, layer RGB) RGB {
	switch c.Kind {
	case ColorByBlock:
		return block
	case ColorByLayer:
		return layer
	default:
		return c.RGB
	}
}

// String returns "BYBLOCK", "BYLAYER" or the hex literal.
func (c ColorRef) String() string {
	if c.Kind == ColorLiteral {
		return c.RGB.String()
	}
	return c.Kind.String()
}
