// Package material maps resolved batch appearance to shared render state.
//
// A Key identifies one material: how instances are placed, which
// geometry it draws, its color and one extra parameter (the point size
// for point materials). Materials are created on first use and shared
// through a KeyedCache, so drawing a thousand red lines allocates one red
// line material.
//
// Every material refers to one of six fixed templates, one per
// combination of instance placement and program:
//
//	             None        FullTransform   PointTranslation
//	color        color       color/xform     color/point
//	point        point       point/xform     point/point
//
// A template owns the WGSL source of its program, the vertex buffer
// layouts the program expects and its blend state. SPIRV compiles the
// source once through naga.
//
// Library bundles the templates with the cache:
//
//	lib := material.NewLibrary()
//	defer lib.Destroy()
//	m := lib.ColorMaterial(dxf.RGB{R: 255}, material.InstanceFullTransform)
//	code, err := m.Template.SPIRV()
package material
