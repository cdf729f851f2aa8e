// Package terrain provides the noise heightfield the grass is planted on and
// the ground mesh built from it.
package terrain

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxResolution bounds the sample grid.
const MaxResolution = 2048

// ErrInvalidConfig is wrapped by Validate failures.
var ErrInvalidConfig = errors.New("terrain: invalid config")

// Config describes a procedural heightfield.
type Config struct {
	Seed        int64   `yaml:"seed"`
	Size        float32 `yaml:"size"`       // World units per side, centred on the origin
	Resolution  int     `yaml:"resolution"` // Cells per side
	Amplitude   float32 `yaml:"amplitude"`
	Frequency   float32 `yaml:"frequency"` // Base noise frequency per world unit
	Octaves     int     `yaml:"octaves"`
	Persistence float32 `yaml:"persistence"`
	Lacunarity  float32 `yaml:"lacunarity"`
}

// DefaultConfig returns gentle rolling hills.
func DefaultConfig() Config {
	return Config{
		Seed:        7,
		Size:        400,
		Resolution:  200,
		Amplitude:   4,
		Frequency:   0.01,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// Validate rejects grids Generate would have to invent.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %v", ErrInvalidConfig, c.Size)
	}
	if c.Resolution <= 0 || c.Resolution > MaxResolution {
		return fmt.Errorf("%w: resolution %d", ErrInvalidConfig, c.Resolution)
	}
	if c.Octaves < 0 {
		return fmt.Errorf("%w: %d octaves", ErrInvalidConfig, c.Octaves)
	}
	return nil
}

// Vertex represents a terrain mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Mesh holds the terrain mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of the terrain.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the centre of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns half the diagonal of the box.
func (b Bounds) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// Heightfield is a regular grid of heights centred on the origin.
type Heightfield struct {
	Heights  []float32 // Row-major, (Cells+1)^2 samples, row = z
	Cells    int
	CellSize float32
	Origin   float32 // World coordinate of sample 0 on both axes
}
