package material

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/scene"
	"github.com/gogpu/gputypes"
)

// Material is a shared render state handle: a template plus the uniform
// values of one key.
type Material struct {
	Key      Key
	Template *Template
	Color    gputypes.Color
	// PointSize is the point diameter in pixels for point materials.
	PointSize float32

	disposed atomic.Bool
}

// Dispose releases the material. Disposing twice is a no-op.
func (m *Material) Dispose() { m.disposed.Store(true) }

// Disposed reports whether Dispose was called.
func (m *Material) Disposed() bool { return m.disposed.Load() }

// Uniforms encodes the uniform block for the given view, which maps
// drawing units to clip space as position*scale + offset.
func (m *Material) Uniforms(scaleX, scaleY, offsetX, offsetY float32) [UniformSize]byte {
	vals := [UniformSize / 4]float32{
		float32(m.Color.R), float32(m.Color.G), float32(m.Color.B), float32(m.Color.A),
		scaleX, scaleY, offsetX, offsetY,
		m.PointSize, 0, 0, 0,
	}
	var buf [UniformSize]byte
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Library owns the six templates and the material cache.
type Library struct {
	templates [instanceKindCount][programCount]*Template
	cache     *KeyedCache[Key, *Material]
}

// NewLibrary creates a library with the default templates.
func NewLibrary() *Library {
	l := &Library{cache: NewKeyedCache[Key, *Material](Key.Compare)}
	for inst := range InstanceKind(instanceKindCount) {
		for prog := range Program(programCount) {
			l.templates[inst][prog] = newTemplate(inst, prog)
		}
	}
	return l
}

// Template returns the template for inst and prog, or nil for unknown
// values.
func (l *Library) Template(inst InstanceKind, prog Program) *Template {
	if !inst.Valid() || prog >= programCount {
		return nil
	}
	return l.templates[inst][prog]
}

// Templates returns all templates in instance-major order.
func (l *Library) Templates() []*Template {
	out := make([]*Template, 0, instanceKindCount*programCount)
	for i := range l.templates {
		out = append(out, l.templates[i][:]...)
	}
	return out
}

// ColorMaterial returns the shared flat-color material.
func (l *Library) ColorMaterial(c dxf.RGB, inst InstanceKind) *Material {
	key := Key{Instance: inst, Geometry: scene.GeometryUnknown, Color: c}
	return l.cache.GetOrCreate(key, func(k Key) *Material {
		return &Material{Key: k, Template: l.Template(inst, ProgramColor), Color: toGPU(c)}
	})
}

// PointMaterial returns the shared point material of the given size.
func (l *Library) PointMaterial(c dxf.RGB, inst InstanceKind, size float32) *Material {
	key := Key{Instance: inst, Geometry: scene.GeometryPoints, Color: c, Extra: size}
	return l.cache.GetOrCreate(key, func(k Key) *Material {
		return &Material{Key: k, Template: l.Template(inst, ProgramPoint), Color: toGPU(c), PointSize: size}
	})
}

// Len returns the number of cached materials.
func (l *Library) Len() int { return l.cache.Len() }

// Stats returns the material cache counters.
func (l *Library) Stats() CacheStats { return l.cache.Stats() }

// Clear disposes every cached material. Templates are kept.
func (l *Library) Clear() { l.cache.Clear() }

// Destroy disposes every cached material and the compiled templates.
// The library stays usable; templates recompile on demand.
func (l *Library) Destroy() {
	l.cache.Clear()
	for _, t := range l.Templates() {
		t.Dispose()
	}
}

func toGPU(c dxf.RGB) gputypes.Color {
	return gputypes.NewColorRGB(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
}
