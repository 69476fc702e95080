package material

import (
	"cmp"
	"fmt"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/scene"
)

// InstanceKind tells how a drawable places copies of its geometry.
type InstanceKind uint8

const (
	// InstanceNone draws the geometry once, as stored.
	InstanceNone InstanceKind = iota
	// InstanceFullTransform draws one copy per 2x3 affine transform.
	InstanceFullTransform
	// InstancePointTranslation draws one copy per 2D offset.
	InstancePointTranslation

	instanceKindCount = 3
)

func (k InstanceKind) String() string {
	switch k {
	case InstanceNone:
		return "None"
	case InstanceFullTransform:
		return "FullTransform"
	case InstancePointTranslation:
		return "PointTranslation"
	}
	return fmt.Sprintf("InstanceKind(%d)", uint8(k))
}

// Valid reports whether k is a known kind.
func (k InstanceKind) Valid() bool { return k < instanceKindCount }

// Key identifies a material. Geometry is scene.GeometryUnknown for
// materials that do not depend on the primitive kind.
type Key struct {
	Instance InstanceKind
	Geometry scene.GeometryKind
	Color    dxf.RGB
	Extra    float32
}

// Compare orders keys by instance kind, geometry, color and extra.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Instance, o.Instance); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Geometry, o.Geometry); c != 0 {
		return c
	}
	if c := k.Color.Compare(o.Color); c != 0 {
		return c
	}
	return cmp.Compare(k.Extra, o.Extra)
}

func (k Key) String() string {
	return fmt.Sprintf("%v/%v/%v/%g", k.Instance, k.Geometry, k.Color, k.Extra)
}
