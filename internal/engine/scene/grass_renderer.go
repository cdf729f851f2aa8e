package scene

import (
	"fmt"
	"image"
	"slices"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-grass/internal/engine/camera"
	"github.com/Faultbox/midgard-grass/internal/engine/grass"
	"github.com/Faultbox/midgard-grass/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-grass/internal/engine/shader"
	"github.com/Faultbox/midgard-grass/internal/logger"
)

// shadowTextureUnit is reserved for the shadow map; material samplers take the others.
const shadowTextureUnit = 1

// Uniforms owned by the renderer rather than the grass appearance pipeline.
const (
	uniformViewProj       = "uViewProj"
	uniformLightViewProj  = "uLightViewProj"
	uniformShadowMap      = "uShadowMap"
	uniformShadowsEnabled = "uShadowsEnabled"
)

// Vertex and instance attribute locations shared with grass.vert.
const (
	attribPosition = iota
	attribNormal
	attribUV
	attribOffset
	attribParams
	attribLOD
	attribBaseColor
	attribTipColor
)

// GrassRenderer is the OpenGL device and scene attachment for the grass system.
// It owns every mesh it hands out until the mesh is destroyed.
type GrassRenderer struct {
	attached []*grassMesh
	scratch  []float32

	// Stats from the last colour pass
	drawn     int
	culled    int
	instances int
}

// NewGrassRenderer creates a grass renderer. A GL context must be current.
func NewGrassRenderer() *GrassRenderer {
	return &GrassRenderer{}
}

type grassGeometry struct {
	vbo, ebo   uint32
	indexCount int32
}

func (g *grassGeometry) Destroy() {
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
		g.vbo = 0
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
		g.ebo = 0
	}
}

type grassTexture struct {
	id uint32
}

func (t *grassTexture) Destroy() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// grassMaterial is one compiled program plus the textures bound to it.
type grassMaterial struct {
	kind     grass.MaterialKind
	program  *shader.Program
	textures map[string]*grassTexture
	units    map[string]int32
}

func (m *grassMaterial) SetFloat(name string, v float32)   { m.program.SetFloat(name, v) }
func (m *grassMaterial) SetBool(name string, v bool)       { m.program.SetBool(name, v) }
func (m *grassMaterial) SetVec3(name string, v mgl32.Vec3) { m.program.SetVec3(name, v) }
func (m *grassMaterial) SetMat4(name string, v mgl32.Mat4) { m.program.SetMat4(name, v) }

// SetTexture binds tex to the sampler name, giving each sampler its own unit.
func (m *grassMaterial) SetTexture(name string, tex grass.Texture) {
	t, ok := tex.(*grassTexture)
	if !ok || t == nil {
		delete(m.textures, name)
		return
	}
	unit, ok := m.units[name]
	if !ok {
		unit = int32(len(m.units))
		if unit >= shadowTextureUnit {
			unit++
		}
		m.units[name] = unit
		m.program.SetInt(name, unit)
	}
	m.textures[name] = t
}

func (m *grassMaterial) bind() {
	m.program.Use()
	for name, t := range m.textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(m.units[name]))
		gl.BindTexture(gl.TEXTURE_2D, t.id)
	}
}

func (m *grassMaterial) setShadow(tex uint32, enabled bool) {
	m.program.SetBool(uniformShadowsEnabled, enabled && tex != 0)
	if tex != 0 {
		gl.ActiveTexture(gl.TEXTURE0 + shadowTextureUnit)
		gl.BindTexture(gl.TEXTURE_2D, tex)
	}
}

func (m *grassMaterial) Destroy() {
	m.program.Delete()
	clear(m.textures)
}

// grassMesh is one instanced draw: a VAO binding blade geometry and an
// instance buffer that grows but never shrinks.
type grassMesh struct {
	vao         uint32
	instanceVBO uint32
	capacity    int
	count       int
	geometry    *grassGeometry
	color       *grassMaterial
	depth       *grassMaterial
	bounds      grass.Bounds
	renderer    *GrassRenderer
}

// NewGeometry uploads blade geometry.
func (r *GrassRenderer) NewGeometry(g *grass.BladeGeometry) (grass.Geometry, error) {
	if g == nil || len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return nil, fmt.Errorf("empty blade geometry")
	}
	geo := &grassGeometry{indexCount: int32(len(g.Indices))}

	// Keep the element binding out of any bound VAO
	gl.BindVertexArray(0)
	gl.GenBuffers(1, &geo.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, geo.vbo)
	vertexSize := int(unsafe.Sizeof(grass.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(g.Vertices)*vertexSize, unsafe.Pointer(&g.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &geo.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, geo.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, unsafe.Pointer(&g.Indices[0]), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if err := glError("blade geometry"); err != nil {
		geo.Destroy()
		return nil, err
	}
	return geo, nil
}

// NewTexture uploads a blade texture with mipmaps.
func (r *GrassRenderer) NewTexture(img *image.RGBA) (grass.Texture, error) {
	if img == nil || len(img.Pix) == 0 {
		return nil, fmt.Errorf("empty texture image")
	}
	t := &grassTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(img.Bounds().Dx()), int32(img.Bounds().Dy()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if err := glError("blade texture"); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// NewMaterial compiles the program for a material kind.
func (r *GrassRenderer) NewMaterial(kind grass.MaterialKind) (grass.Material, error) {
	var (
		p   *shader.Program
		err error
	)
	switch kind {
	case grass.MaterialColor:
		p, err = shader.NewProgram("grass", shaders.GrassVertexShader, shaders.GrassFragmentShader)
	case grass.MaterialDepth:
		p, err = shader.NewProgram("grass depth", shaders.GrassDepthVertexShader, shaders.GrassDepthFragmentShader)
	default:
		return nil, fmt.Errorf("unknown material kind %d", kind)
	}
	if err != nil {
		return nil, err
	}
	if kind == grass.MaterialColor {
		p.SetInt(uniformShadowMap, shadowTextureUnit)
	}
	return &grassMaterial{
		kind:     kind,
		program:  p,
		textures: make(map[string]*grassTexture),
		units:    make(map[string]int32),
	}, nil
}

// NewInstancedMesh creates a VAO over geometry with an instance buffer for capacity instances.
func (r *GrassRenderer) NewInstancedMesh(g grass.Geometry, color, depth grass.Material, capacity int) (grass.InstancedMesh, error) {
	geo, ok := g.(*grassGeometry)
	if !ok {
		return nil, fmt.Errorf("geometry %T not created by this renderer", g)
	}
	cm, _ := color.(*grassMaterial)
	dm, _ := depth.(*grassMaterial)
	if cm == nil {
		return nil, fmt.Errorf("color material %T not created by this renderer", color)
	}

	m := &grassMesh{color: cm, depth: dm, renderer: r}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.instanceVBO)
	m.SetGeometry(geo)
	m.reserve(max(capacity, 1))
	m.bindInstanceAttributes()

	if err := glError("instanced mesh"); err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

// SetGeometry rebinds the per-vertex attributes to new blade geometry.
func (m *grassMesh) SetGeometry(g grass.Geometry) {
	geo, ok := g.(*grassGeometry)
	if !ok || geo == nil {
		return
	}
	m.geometry = geo

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, geo.vbo)
	stride := int32(unsafe.Sizeof(grass.Vertex{}))

	gl.VertexAttribPointerWithOffset(attribPosition, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribPointerWithOffset(attribNormal, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(attribNormal)
	gl.VertexAttribPointerWithOffset(attribUV, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(attribUV)

	// Element buffer binding is VAO state
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, geo.ebo)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (m *grassMesh) bindInstanceAttributes() {
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.instanceVBO)
	stride := int32(grass.InstanceStride * 4)

	attrs := []struct {
		loc    uint32
		size   int32
		offset uintptr
	}{
		{attribOffset, 3, 0},
		{attribParams, 4, 3 * 4},
		{attribLOD, 1, 7 * 4},
		{attribBaseColor, 3, 8 * 4},
		{attribTipColor, 3, 11 * 4},
	}
	for _, a := range attrs {
		gl.VertexAttribPointerWithOffset(a.loc, a.size, gl.FLOAT, false, stride, a.offset)
		gl.EnableVertexAttribArray(a.loc)
		gl.VertexAttribDivisor(a.loc, 1)
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// reserve grows the instance buffer to hold n instances.
func (m *grassMesh) reserve(n int) {
	if n <= m.capacity {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.instanceVBO)
	gl.BufferData(gl.ARRAY_BUFFER, n*grass.InstanceStride*4, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if m.capacity > 0 {
		logger.Debug("grass instance buffer grown",
			zap.Int("from", m.capacity),
			zap.Int("to", n),
		)
	}
	m.capacity = n
}

// SetInstances uploads a batch, reusing the buffer when it is large enough.
func (m *grassMesh) SetInstances(batch *grass.InstanceBatch) {
	n := batch.Len()
	m.count = n
	if n == 0 {
		return
	}
	m.reserve(n)

	r := m.renderer
	r.scratch = batch.Pack(r.scratch[:0])
	gl.BindBuffer(gl.ARRAY_BUFFER, m.instanceVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.scratch)*4, unsafe.Pointer(&r.scratch[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (m *grassMesh) SetBounds(b grass.Bounds) { m.bounds = b }

func (m *grassMesh) InstanceCount() int { return m.count }

func (m *grassMesh) Destroy() {
	if m.renderer != nil {
		m.renderer.Detach(m)
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.instanceVBO != 0 {
		gl.DeleteBuffers(1, &m.instanceVBO)
		m.instanceVBO = 0
	}
	m.capacity = 0
	m.count = 0
}

func (m *grassMesh) draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElementsInstanced(gl.TRIANGLES, m.geometry.indexCount, gl.UNSIGNED_INT, nil, int32(m.count))
}

// Attach adds a mesh to the draw list.
func (r *GrassRenderer) Attach(im grass.InstancedMesh) {
	m, ok := im.(*grassMesh)
	if !ok || slices.Contains(r.attached, m) {
		return
	}
	r.attached = append(r.attached, m)
}

// Detach removes a mesh from the draw list.
func (r *GrassRenderer) Detach(im grass.InstancedMesh) {
	m, ok := im.(*grassMesh)
	if !ok {
		return
	}
	if i := slices.Index(r.attached, m); i >= 0 {
		r.attached = slices.Delete(r.attached, i, i+1)
	}
}

// Attached returns the number of meshes in the draw list.
func (r *GrassRenderer) Attached() int { return len(r.attached) }

// Render draws every attached, visible mesh with its colour material.
func (r *GrassRenderer) Render(viewProj, lightViewProj mgl32.Mat4, shadowTex uint32, shadows bool) {
	frustum := camera.NewFrustum(viewProj)
	r.drawn, r.culled, r.instances = 0, 0, 0

	gl.Disable(gl.CULL_FACE)
	var bound *grassMaterial
	for _, m := range r.attached {
		if m.count == 0 || m.geometry == nil {
			continue
		}
		if !frustum.IntersectsAABB(m.bounds.Min, m.bounds.Max) {
			r.culled++
			continue
		}
		if m.color != bound {
			bound = m.color
			bound.SetMat4(uniformViewProj, viewProj)
			bound.SetMat4(uniformLightViewProj, lightViewProj)
			bound.bind()
			bound.setShadow(shadowTex, shadows)
		}
		m.draw()
		r.drawn++
		r.instances += m.count
	}
	gl.BindVertexArray(0)
	gl.Enable(gl.CULL_FACE)
}

// RenderDepth draws every attached mesh with its depth material into the bound shadow map.
func (r *GrassRenderer) RenderDepth(lightViewProj mgl32.Mat4) {
	frustum := camera.NewFrustum(lightViewProj)
	var bound *grassMaterial
	for _, m := range r.attached {
		if m.count == 0 || m.depth == nil || m.geometry == nil {
			continue
		}
		if !frustum.IntersectsAABB(m.bounds.Min, m.bounds.Max) {
			continue
		}
		if m.depth != bound {
			bound = m.depth
			bound.SetMat4(uniformLightViewProj, lightViewProj)
			bound.bind()
		}
		m.draw()
	}
	gl.BindVertexArray(0)
}

// DrawStats reports the meshes drawn and culled and the instances submitted by the last Render.
func (r *GrassRenderer) DrawStats() (drawn, culled, instances int) {
	return r.drawn, r.culled, r.instances
}

// Destroy releases every mesh still attached.
func (r *GrassRenderer) Destroy() {
	for len(r.attached) > 0 {
		r.attached[len(r.attached)-1].Destroy()
	}
	r.scratch = nil
}

func glError(what string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: GL error 0x%x", what, code)
	}
	return nil
}
