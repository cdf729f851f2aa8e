// Package world moves the player anchor the grass field streams around.
package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ArrivalThreshold is the distance at which the player is considered to have arrived.
const ArrivalThreshold = 0.25

// DefaultMoveSpeed is the default movement speed in world units per second.
const DefaultMoveSpeed = 8.0

// HeightFunc returns the ground height at a world position.
type HeightFunc func(x, z float32) float32

// Player is the anchor walked over the terrain.
type Player struct {
	Position mgl32.Vec3
	Heading  float32 // Yaw of the last move, radians, 0 = +Z
	Speed    float32

	// Extent is the half size of the walkable square around the origin. Zero means unbounded.
	Extent  float32
	Heights HeightFunc

	// Click-to-move
	DestX, DestZ   float32
	HasDestination bool
	IsMoving       bool

	// AutoWalk circles the origin at WalkRadius when there is no other input.
	AutoWalk   bool
	WalkRadius float32
	walkAngle  float32
}

// NewPlayer creates a player standing on the ground at (x, z).
func NewPlayer(x, z float32, heights HeightFunc) *Player {
	p := &Player{
		Speed:   DefaultMoveSpeed,
		Heights: heights,
	}
	p.place(x, z)
	p.walkAngle = float32(math.Atan2(float64(x), float64(z)))
	return p
}

// SetDestination sets the player's click-to-move destination.
func (p *Player) SetDestination(x, z float32) {
	p.DestX = x
	p.DestZ = z
	p.HasDestination = true
}

// ClearDestination clears the player's current destination.
func (p *Player) ClearDestination() {
	p.HasDestination = false
	p.IsMoving = false
}

// Update advances the player by dt seconds. (moveX, moveZ) is a world-space
// direction from held keys; it cancels any destination and is normalised
// when longer than one.
func (p *Player) Update(dt, moveX, moveZ float32) {
	if !(dt > 0) || math.IsInf(float64(dt), 0) {
		return
	}
	p.IsMoving = false

	if moveX != 0 || moveZ != 0 {
		p.HasDestination = false
		if l := float32(math.Hypot(float64(moveX), float64(moveZ))); l > 1 {
			moveX /= l
			moveZ /= l
		}
		p.step(moveX*p.Speed*dt, moveZ*p.Speed*dt)
		return
	}

	if p.HasDestination {
		p.updateDestination(dt)
		return
	}

	if p.AutoWalk && p.WalkRadius > 0 {
		p.walkAngle += p.Speed * dt / p.WalkRadius
		if p.walkAngle > 2*math.Pi {
			p.walkAngle -= 2 * math.Pi
		}
		sin, cos := math.Sincos(float64(p.walkAngle))
		x := p.WalkRadius * float32(sin)
		z := p.WalkRadius * float32(cos)
		p.step(x-p.Position.X(), z-p.Position.Z())
	}
}

func (p *Player) updateDestination(dt float32) {
	// Calculate direction to destination
	dx := p.DestX - p.Position.X()
	dz := p.DestZ - p.Position.Z()
	dist := float32(math.Hypot(float64(dx), float64(dz)))

	// Check if reached destination
	if dist < ArrivalThreshold {
		p.ClearDestination()
		return
	}

	moveAmount := min(p.Speed*dt, dist)
	p.step(dx/dist*moveAmount, dz/dist*moveAmount)
}

func (p *Player) step(dx, dz float32) {
	if dx == 0 && dz == 0 {
		return
	}
	p.Heading = float32(math.Atan2(float64(dx), float64(dz)))
	p.IsMoving = true
	p.place(p.Position.X()+dx, p.Position.Z()+dz)
}

// place sets the planar position, clamped to Extent, and follows the ground.
func (p *Player) place(x, z float32) {
	if p.Extent > 0 {
		x = mgl32.Clamp(x, -p.Extent, p.Extent)
		z = mgl32.Clamp(z, -p.Extent, p.Extent)
	}
	var y float32
	if p.Heights != nil {
		y = p.Heights(x, z)
		if math.IsNaN(float64(y)) || math.IsInf(float64(y), 0) {
			y = 0
		}
	}
	p.Position = mgl32.Vec3{x, y, z}
}

// Teleport moves the player to (x, z) and drops any destination.
func (p *Player) Teleport(x, z float32) {
	p.ClearDestination()
	p.place(x, z)
}
