// Package camera provides the follow camera and view frustum used by the demo.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FollowCamera orbits a moving target from behind and above.
type FollowCamera struct {
	// Camera orientation
	Yaw   float32 // Horizontal rotation around target (radians)
	Pitch float32 // Vertical angle (radians)

	// Distance from target
	Distance    float32
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// LookHeight raises the look-at point above the target.
	LookHeight float32

	// Sensitivity
	YawSensitivity   float32
	PitchSensitivity float32
	ZoomSensitivity  float32

	// Projection
	FOV  float32 // Degrees
	Near float32
	Far  float32
}

// NewFollowCamera creates a follow camera with demo defaults.
func NewFollowCamera() *FollowCamera {
	return &FollowCamera{
		Yaw:              0,
		Pitch:            0.35,
		Distance:         12,
		MinDistance:      2,
		MaxDistance:      120,
		MinPitch:         0.05,
		MaxPitch:         1.45,
		LookHeight:       1,
		YawSensitivity:   0.005,
		PitchSensitivity: 0.005,
		ZoomSensitivity:  0.1,
		FOV:              60,
		Near:             0.1,
		Far:              500,
	}
}

// Position calculates the camera position for a target.
func (c *FollowCamera) Position(target mgl32.Vec3) mgl32.Vec3 {
	sinP, cosP := math.Sincos(float64(c.Pitch))
	offsetY := c.Distance * float32(sinP)
	horiz := c.Distance * float32(cosP)
	fx, fz := c.ForwardDirection()

	// Behind and above the target
	return mgl32.Vec3{
		target.X() - fx*horiz,
		target.Y() + c.LookHeight + offsetY,
		target.Z() - fz*horiz,
	}
}

// ViewMatrix returns the view matrix looking at target.
func (c *FollowCamera) ViewMatrix(target mgl32.Vec3) mgl32.Mat4 {
	eye := c.Position(target)
	center := target.Add(mgl32.Vec3{0, c.LookHeight, 0})
	return mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
}

// WorldMatrix returns the camera-to-world transform, the inverse of ViewMatrix.
// Its translation column is the camera position.
func (c *FollowCamera) WorldMatrix(target mgl32.Vec3) mgl32.Mat4 {
	return c.ViewMatrix(target).Inv()
}

// Projection returns the perspective projection for an aspect ratio.
func (c *FollowCamera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 || math.IsNaN(float64(aspect)) {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// HandleDrag rotates the camera around the target from a mouse delta.
func (c *FollowCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.YawSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+deltaY*c.PitchSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance from target.
func (c *FollowCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// ForwardDirection returns the camera's forward direction on the XZ plane.
func (c *FollowCamera) ForwardDirection() (x, z float32) {
	s, co := math.Sincos(float64(c.Yaw))
	return float32(s), float32(co)
}

// RightDirection returns the camera's right direction on the XZ plane.
func (c *FollowCamera) RightDirection() (x, z float32) {
	s, co := math.Sincos(float64(c.Yaw))
	return float32(-co), float32(s)
}
