package grass

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// MaterialKind selects the shader program a material is built from.
type MaterialKind uint8

const (
	// MaterialColor is the full shading material.
	MaterialColor MaterialKind = iota
	// MaterialDepth is the shadow-casting depth material.
	MaterialDepth
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// Geometry is a GPU-resident blade mesh.
type Geometry interface {
	Destroy()
}

// Texture is a GPU-resident texture.
type Texture interface {
	Destroy()
}

// Material receives uniform writes.
type Material interface {
	SetFloat(name string, v float32)
	SetBool(name string, v bool)
	SetVec3(name string, v mgl32.Vec3)
	SetMat4(name string, m mgl32.Mat4)
	SetTexture(name string, tex Texture)
	Destroy()
}

// InstancedMesh is a GPU instanced draw of one geometry with one instance buffer.
// SetInstances must reuse the existing buffer when it is large enough.
type InstancedMesh interface {
	SetGeometry(g Geometry)
	SetInstances(batch *InstanceBatch)
	SetBounds(b Bounds)
	InstanceCount() int
	Destroy()
}

// Device allocates GPU resources. Everything it returns is owned by the chunk manager.
type Device interface {
	NewGeometry(g *BladeGeometry) (Geometry, error)
	NewTexture(img *image.RGBA) (Texture, error)
	NewMaterial(kind MaterialKind) (Material, error)
	NewInstancedMesh(g Geometry, color, depth Material, capacity int) (InstancedMesh, error)
}

// SceneAttachment is the scene graph capability chunks are attached to.
type SceneAttachment interface {
	Attach(m InstancedMesh)
	Detach(m InstancedMesh)
}
