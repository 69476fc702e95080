package dxf

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ACI color indices with special meaning in group code 62.
const (
	ACIByBlock = 0
	ACIByLayer = 256
)

var aciPalette = buildACIPalette()

// ACI returns the AutoCAD Color Index palette entry for index. Indices
// outside 1..255 return white.
func ACI(index int) RGB {
	if index < 1 || index > 255 {
		return White
	}
	return aciPalette[index]
}

// ACIColorRef maps a group code 62 value to a ColorRef. The sign is ignored
// because negative values only mark a layer as turned off.
func ACIColorRef(index int) ColorRef {
	if index < 0 {
		index = -index
	}
	switch index {
	case ACIByBlock:
		return ByBlock
	case ACIByLayer:
		return ByLayer
	}
	return Literal(ACI(index))
}

func buildACIPalette() [256]RGB {
	var p [256]RGB
	for i, hex := range []uint32{
		0x000000, 0xff0000, 0xffff00, 0x00ff00, 0x00ffff,
		0x0000ff, 0xff00ff, 0xffffff, 0x414141, 0x808080,
	} {
		p[i] = RGBFromHex(hex)
	}

	// 10..249: 24 hues in 15 degree steps, 5 value levels, every odd
	// entry half saturated.
	values := [5]float64{1, 0.8, 0.6, 0.5, 0.3}
	for i := 10; i < 250; i++ {
		hue := float64(i/10-1) * 15
		sat := 1.0
		if i%2 == 1 {
			sat = 0.5
		}
		c := colorful.Hsv(hue, sat, values[(i%10)/2])
		p[i] = RGB{R: to8(c.R), G: to8(c.G), B: to8(c.B)}
	}

	for i, v := range []uint8{0x33, 0x50, 0x69, 0x82, 0xbe, 0xff} {
		p[250+i] = RGB{R: v, G: v, B: v}
	}
	return p
}

func to8(c float64) uint8 {
	return uint8(math.Floor(min(max(c, 0), 1)*255 + 1e-9))
}
