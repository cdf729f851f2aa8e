package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-grass/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-grass/internal/engine/shader"
	"github.com/Faultbox/midgard-grass/internal/engine/terrain"
)

// TerrainLighting is the lighting state shared by the terrain pass.
type TerrainLighting struct {
	GroundColor mgl32.Vec3
	LightDir    mgl32.Vec3
	LightColor  mgl32.Vec3
	Ambient     float32

	FogEnabled bool
	FogColor   mgl32.Vec3
	FogNear    float32
	FogFar     float32
}

// TerrainRenderer handles rendering of the heightfield ground mesh.
type TerrainRenderer struct {
	program *shader.Program

	// Terrain mesh
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32

	Bounds terrain.Bounds
}

// NewTerrainRenderer creates a new terrain renderer.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	program, err := shader.NewProgram("terrain", shaders.TerrainVertexShader, shaders.TerrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	program.SetInt("uShadowMap", shadowTextureUnit)
	return &TerrainRenderer{program: program}, nil
}

// LoadMesh uploads a terrain mesh, replacing any previous one.
func (tr *TerrainRenderer) LoadMesh(mesh *terrain.Mesh) error {
	tr.clearTerrain()
	if mesh == nil || len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return fmt.Errorf("empty terrain mesh")
	}
	tr.Bounds = mesh.Bounds
	tr.indexCount = int32(len(mesh.Indices))

	gl.GenVertexArrays(1, &tr.vao)
	gl.BindVertexArray(tr.vao)

	// VBO
	gl.GenBuffers(1, &tr.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	vertexSize := int(unsafe.Sizeof(terrain.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexSize, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	// TexCoord (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	// EBO
	gl.GenBuffers(1, &tr.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tr.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return glError("terrain mesh")
}

// Render renders the terrain.
func (tr *TerrainRenderer) Render(viewProj, lightViewProj mgl32.Mat4, cameraPos mgl32.Vec3, light TerrainLighting, shadowTex uint32) {
	if tr.vao == 0 {
		return
	}

	p := tr.program
	p.Use()
	p.SetMat4("uViewProj", viewProj)
	p.SetMat4("uLightViewProj", lightViewProj)
	p.SetVec3("uCameraPos", cameraPos)
	p.SetVec3("uGroundColor", light.GroundColor)
	p.SetVec3("uLightDir", light.LightDir)
	p.SetVec3("uLightColor", light.LightColor)
	p.SetFloat("uAmbient", light.Ambient)

	// Fog uniforms
	p.SetBool("uFogUse", light.FogEnabled)
	if light.FogEnabled {
		p.SetVec3("uFogColor", light.FogColor)
		p.SetFloat("uFogNear", light.FogNear)
		p.SetFloat("uFogFar", light.FogFar)
	}

	// Shadow uniforms
	p.SetBool("uShadowsEnabled", shadowTex != 0)
	if shadowTex != 0 {
		gl.ActiveTexture(gl.TEXTURE0 + shadowTextureUnit)
		gl.BindTexture(gl.TEXTURE_2D, shadowTex)
	}

	gl.BindVertexArray(tr.vao)
	gl.DrawElements(gl.TRIANGLES, tr.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// RenderShadow renders the terrain to the shadow map.
func (tr *TerrainRenderer) RenderShadow() {
	if tr.vao == 0 {
		return
	}

	gl.BindVertexArray(tr.vao)
	gl.DrawElements(gl.TRIANGLES, tr.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (tr *TerrainRenderer) clearTerrain() {
	if tr.vao != 0 {
		gl.DeleteVertexArrays(1, &tr.vao)
		tr.vao = 0
	}
	if tr.vbo != 0 {
		gl.DeleteBuffers(1, &tr.vbo)
		tr.vbo = 0
	}
	if tr.ebo != 0 {
		gl.DeleteBuffers(1, &tr.ebo)
		tr.ebo = 0
	}
	tr.indexCount = 0
}

// Destroy releases all resources.
func (tr *TerrainRenderer) Destroy() {
	tr.clearTerrain()
	if tr.program != nil {
		tr.program.Delete()
	}
}
