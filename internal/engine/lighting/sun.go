// Package lighting provides sun placement helpers.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts azimuth/elevation angles in degrees to a light direction vector.
// Azimuth is rotation around the Y axis from +Z, elevation is the angle above the horizon.
// Returns a normalized direction vector pointing towards the sun.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	azRad := float64(mgl32.DegToRad(azimuth))
	elRad := float64(mgl32.DegToRad(elevation))

	// Spherical to Cartesian conversion
	x := float32(math.Cos(elRad) * math.Sin(azRad))
	y := float32(math.Sin(elRad))
	z := float32(math.Cos(elRad) * math.Cos(azRad))

	return mgl32.Vec3{x, y, z}
}

// SunAngles is the inverse of SunDirection. A zero vector yields (0, 90).
func SunAngles(dir mgl32.Vec3) (azimuth, elevation float32) {
	if dir.Len() == 0 {
		return 0, 90
	}
	d := dir.Normalize()
	elevation = mgl32.RadToDeg(float32(math.Asin(float64(mgl32.Clamp(d.Y(), -1, 1)))))
	azimuth = mgl32.RadToDeg(float32(math.Atan2(float64(d.X()), float64(d.Z()))))
	if azimuth < 0 {
		azimuth += 360
	}
	return azimuth, elevation
}

// Orbit rotates a sun direction by deltaAzimuth degrees around the Y axis,
// keeping its elevation.
func Orbit(dir mgl32.Vec3, deltaAzimuth float32) mgl32.Vec3 {
	az, el := SunAngles(dir)
	az = float32(math.Mod(float64(az+deltaAzimuth), 360))
	if az < 0 {
		az += 360
	}
	return SunDirection(az, el)
}
