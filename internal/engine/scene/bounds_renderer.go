package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-grass/internal/engine/debug"
	"github.com/Faultbox/midgard-grass/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-grass/internal/engine/shader"
)

// BoundsRenderer draws chunk bounding boxes as wireframes.
type BoundsRenderer struct {
	program  *shader.Program
	vao, vbo uint32
	capacity int // Floats
	vertices []float32
}

// NewBoundsRenderer creates a new bounds renderer.
func NewBoundsRenderer() (*BoundsRenderer, error) {
	program, err := shader.NewProgram("lines", shaders.LinesVertexShader, shaders.LinesFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("lines shader: %w", err)
	}
	br := &BoundsRenderer{program: program}

	gl.GenVertexArrays(1, &br.vao)
	gl.BindVertexArray(br.vao)
	gl.GenBuffers(1, &br.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, br.vbo)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
	return br, nil
}

// Render draws every attached grass mesh's bounds.
func (br *BoundsRenderer) Render(viewProj mgl32.Mat4, grassRenderer *GrassRenderer, color mgl32.Vec3) {
	br.vertices = br.vertices[:0]
	for _, m := range grassRenderer.attached {
		if m.count == 0 {
			continue
		}
		br.vertices = debug.AppendBBoxWireframe(br.vertices, m.bounds.Min, m.bounds.Max, 0)
	}
	if len(br.vertices) == 0 {
		return
	}

	gl.BindVertexArray(br.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, br.vbo)
	if len(br.vertices) > br.capacity {
		br.capacity = len(br.vertices)
		gl.BufferData(gl.ARRAY_BUFFER, br.capacity*4, gl.Ptr(br.vertices), gl.DYNAMIC_DRAW)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(br.vertices)*4, gl.Ptr(br.vertices))
	}

	br.program.SetMat4("uViewProj", viewProj)
	br.program.SetVec3("uColor", color)
	br.program.Use()
	gl.DrawArrays(gl.LINES, 0, int32(len(br.vertices)/3))
	gl.BindVertexArray(0)
}

// Destroy releases all resources.
func (br *BoundsRenderer) Destroy() {
	if br.vao != 0 {
		gl.DeleteVertexArrays(1, &br.vao)
		br.vao = 0
	}
	if br.vbo != 0 {
		gl.DeleteBuffers(1, &br.vbo)
		br.vbo = 0
	}
	br.program.Delete()
}
