package material

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
)

//go:embed shaders/common.wgsl
var commonShaderSource string

//go:embed shaders/vs_none.wgsl
var vsNoneSource string

//go:embed shaders/vs_transform.wgsl
var vsTransformSource string

//go:embed shaders/vs_point.wgsl
var vsPointSource string

// Program selects the shading program of a template.
type Program uint8

const (
	// ProgramColor draws lines and triangles in a flat color.
	ProgramColor Program = iota
	// ProgramPoint draws single vertices with a point size.
	ProgramPoint

	programCount = 2
)

func (p Program) String() string {
	switch p {
	case ProgramColor:
		return "color"
	case ProgramPoint:
		return "point"
	}
	return fmt.Sprintf("Program(%d)", uint8(p))
}

// Vertex buffer strides in bytes.
const (
	// PositionStride is one float32 xyz position.
	PositionStride = 12
	// TransformStride is one 2x3 float32 affine matrix, row-major.
	TransformStride = 24
	// TranslationStride is one point instance. Point instance batches
	// store xyz positions; only xy is read.
	TranslationStride = 12
)

// UniformSize is the byte size of the uniform block: color, view and
// extra, each a vec4<f32>.
const UniformSize = 48

// Template is the fixed render state shared by all materials of one
// instance kind and program.
type Template struct {
	Name     string
	Instance InstanceKind
	Program  Program

	// Source is the WGSL module with entry points vs_main and fs_main.
	Source string
	// Buffers are the vertex buffer layouts in slot order. Slot 0 holds
	// positions; instanced templates add a per-instance slot 1.
	Buffers []gputypes.VertexBufferLayout
	Blend   gputypes.BlendState

	mu    sync.Mutex
	spirv []byte
}

// SPIRV returns the SPIR-V binary of Source, compiling it on first use.
// Failed compilations are retried on the next call.
func (t *Template) SPIRV() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.spirv != nil {
		return t.spirv, nil
	}
	code, err := naga.Compile(t.Source)
	if err != nil {
		return nil, fmt.Errorf("material: compile %s: %w", t.Name, err)
	}
	t.spirv = code
	return code, nil
}

// Compiled reports whether SPIRV has produced code that is still held.
func (t *Template) Compiled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spirv != nil
}

// Dispose drops the compiled code.
func (t *Template) Dispose() {
	t.mu.Lock()
	t.spirv = nil
	t.mu.Unlock()
}

var positionLayout = gputypes.VertexBufferLayout{
	ArrayStride: PositionStride,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
	},
}

// newTemplate assembles the template for one cell of the
// instance × program table.
func newTemplate(inst InstanceKind, prog Program) *Template {
	t := &Template{
		Name:     prog.String(),
		Instance: inst,
		Program:  prog,
		Buffers:  []gputypes.VertexBufferLayout{positionLayout},
		Blend:    gputypes.BlendStateAlpha(),
	}

	vs := vsNoneSource
	switch inst {
	case InstanceFullTransform:
		t.Name += "/xform"
		vs = vsTransformSource
		t.Buffers = append(t.Buffers, gputypes.VertexBufferLayout{
			ArrayStride: TransformStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 2},
			},
		})
	case InstancePointTranslation:
		t.Name += "/point"
		vs = vsPointSource
		t.Buffers = append(t.Buffers, gputypes.VertexBufferLayout{
			ArrayStride: TranslationStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},
			},
		})
	}
	t.Source = commonShaderSource + vs
	return t
}
