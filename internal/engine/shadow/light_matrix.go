// Package shadow computes light-space matrices for directional shadow maps.
package shadow

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the center point of the AABB.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// DirectionalLightMatrix computes view-projection for the shadow map.
// lightDir is the direction TO the light (sun direction).
func DirectionalLightMatrix(lightDir mgl32.Vec3, sceneBounds AABB) mgl32.Mat4 {
	return lightMatrix(lightDir, sceneBounds.Center(), sceneBounds.Radius())
}

// FollowLightMatrix covers a sphere of radius around focus, so the shadow map
// texel density stays constant while the anchor walks across a large field.
// The focus is snapped to whole shadow texels to stop edges shimmering.
func FollowLightMatrix(lightDir, focus mgl32.Vec3, radius float32, resolution int32) mgl32.Mat4 {
	if radius <= 0 {
		radius = 1
	}
	if resolution > 0 {
		texel := 2 * radius * 1.1 / float32(resolution)
		focus = mgl32.Vec3{
			float32(math.Floor(float64(focus.X()/texel))) * texel,
			focus.Y(),
			float32(math.Floor(float64(focus.Z()/texel))) * texel,
		}
	}
	return lightMatrix(lightDir, focus, radius)
}

func lightMatrix(lightDir, center mgl32.Vec3, radius float32) mgl32.Mat4 {
	if lightDir.Len() < 1e-6 {
		lightDir = mgl32.Vec3{0, 1, 0}
	}
	lightDir = lightDir.Normalize()

	// Position light far enough to encompass entire scene
	lightDistance := radius * 2
	lightPos := center.Add(lightDir.Mul(lightDistance))

	// If light is nearly vertical, use a different up vector
	up := mgl32.Vec3{0, 1, 0}
	if abs32(lightDir.Y()) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(lightPos, center, up)

	// Add padding to avoid edge artifacts
	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + radius + padding

	proj := mgl32.Ortho(-halfSize, halfSize, -halfSize, halfSize, 0.1, far)
	return proj.Mul4(view)
}

// abs32 returns the absolute value of a float32.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
