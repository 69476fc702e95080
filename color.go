package dxf

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 24-bit color. Each channel is in [0, 255].
type RGB struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
)

// RGBFromHex unpacks a 0xRRGGBB value. Bits above 24 are ignored.
func RGBFromHex(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Hex packs the color as 0xRRGGBB.
func (c RGB) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// String returns the color as "#rrggbb".
func (c RGB) String() string {
	return fmt.Sprintf("#%06x", c.Hex())
}

// Compare orders colors by their packed value.
func (c RGB) Compare(o RGB) int {
	a, b := c.Hex(), o.Hex()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseHex parses "RGB" or "RRGGBB" with an optional leading '#'.
func ParseHex(s string) (RGB, error) {
	h := s
	if h != "" && h[0] == '#' {
		h = h[1:]
	}
	switch len(h) {
	case 3:
		v, err := strconv.ParseUint(h, 16, 16)
		if err != nil {
			return RGB{}, fmt.Errorf("dxf: invalid hex color %q: %w", s, err)
		}
		r, g, b := uint8(v>>8&0xf), uint8(v>>4&0xf), uint8(v&0xf)
		return RGB{R: r * 17, G: g * 17, B: b * 17}, nil
	case 6:
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("dxf: invalid hex color %q: %w", s, err)
		}
		return RGBFromHex(uint32(v)), nil
	}
	return RGB{}, fmt.Errorf("dxf: invalid hex color %q: want 3 or 6 digits", s)
}

// linear converts an sRGB channel in [0, 1] to linear light (WCAG 2.x).
func linear(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// encode converts a linear channel back to sRGB.
func encode(c float64) float64 {
	if c < 0.003 {
		return c * 12.92
	}
	return math.Pow(c, 1/2.4)*1.055 - 0.055
}

// quantize encodes a linear channel and rounds it down into [0, 255].
func quantize(c float64) uint8 {
	v := math.Floor(encode(c) * 256)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

func (c RGB) linear() colorful.Color {
	return colorful.Color{
		R: linear(float64(c.R) / 255),
		G: linear(float64(c.G) / 255),
		B: linear(float64(c.B) / 255),
	}
}

func fromLinear(c colorful.Color) RGB {
	return RGB{R: quantize(c.R), G: quantize(c.G), B: quantize(c.B)}
}

// Luminance returns the WCAG relative luminance of c in [0, 1].
func Luminance(c RGB) float64 {
	l := c.linear()
	return 0.2126*l.R + 0.7152*l.G + 0.0722*l.B
}

// ContrastRatio returns (L1+0.05)/(L2+0.05). The result is below 1 when c1
// is darker than c2.
func ContrastRatio(c1, c2 RGB) float64 {
	return (Luminance(c1) + 0.05) / (Luminance(c2) + 0.05)
}

// Lighten multiplies the HSL lightness of c by factor, clamped to 1.
func Lighten(c RGB, factor float64) RGB {
	return scaleLightness(c, factor)
}

// Darken divides the HSL lightness of c by factor, clamped to 1.
func Darken(c RGB, factor float64) RGB {
	return scaleLightness(c, 1/factor)
}

func scaleLightness(c RGB, k float64) RGB {
	h, s, l := c.linear().Hsl()
	l = min(l*k, 1)
	return fromLinear(colorful.Hsl(h, s, l))
}

// grayWithLuminance returns the neutral gray whose luminance is lum.
func grayWithLuminance(lum float64) RGB {
	v := quantize(lum)
	return RGB{R: v, G: v, B: v}
}

// ColorOptions selects the corrections applied by TransformColor.
type ColorOptions struct {
	// ColorCorrection pushes colors with too little contrast against the
	// background toward a legible luminance.
	ColorCorrection bool
	// BlackWhiteInversion swaps pure black and pure white when they would
	// vanish into the background.
	BlackWhiteInversion bool
}

// minContrast is the contrast ratio below which ColorCorrection kicks in.
const minContrast = 1.5

// TransformColor adjusts color for display against background.
//
// With BlackWhiteInversion, pure white on a background with luminance >= 0.8
// becomes black and pure black on a background with luminance <= 0.2 becomes
// white. With ColorCorrection, a color whose contrast ratio (or its
// reciprocal) is below 1.5 is lightened or darkened toward half or double the
// background luminance.
func TransformColor(color, background RGB, opts ColorOptions) RGB {
	if !opts.ColorCorrection && !opts.BlackWhiteInversion {
		return color
	}
	bkgLum := Luminance(background)
	if color == White && bkgLum >= 0.8 {
		return Black
	}
	if color == Black && bkgLum <= 0.2 {
		return White
	}
	if !opts.ColorCorrection {
		return color
	}

	diff := ContrastRatio(color, background)
	if diff < 1 {
		diff = 1 / diff
	}
	if diff >= minContrast {
		return color
	}

	fgLum := Luminance(color)
	var targetLum float64
	if bkgLum > 0.5 {
		targetLum = bkgLum / 2
	} else {
		targetLum = bkgLum * 2
	}
	if fgLum == 0 {
		// Zero lightness does not scale.
		return grayWithLuminance(targetLum)
	}
	if targetLum > fgLum {
		return Lighten(color, targetLum/fgLum)
	}
	return Darken(color, fgLum/targetLum)
}
