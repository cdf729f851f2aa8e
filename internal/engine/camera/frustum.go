package camera

import "github.com/go-gl/mathgl/mgl32"

// Frustum holds the six clip planes of a view-projection matrix as
// (normal, distance) with normals pointing inwards.
type Frustum [6]mgl32.Vec4

// NewFrustum extracts the planes of a view-projection matrix.
func NewFrustum(m mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	f := Frustum{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}
	for i, p := range f {
		if l := p.Vec3().Len(); l > 0 {
			f[i] = p.Mul(1 / l)
		}
	}
	return f
}

// IntersectsAABB reports whether any part of the box may be visible.
func (f Frustum) IntersectsAABB(lo, hi mgl32.Vec3) bool {
	for _, p := range f {
		// Corner furthest along the plane normal
		v := lo
		for a := range 3 {
			if p[a] >= 0 {
				v[a] = hi[a]
			}
		}
		if p.Vec3().Dot(v)+p[3] < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside every plane.
func (f Frustum) ContainsPoint(pt mgl32.Vec3) bool {
	for _, p := range f {
		if p.Vec3().Dot(pt)+p[3] < 0 {
			return false
		}
	}
	return true
}
