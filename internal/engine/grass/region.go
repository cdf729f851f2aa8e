package grass

import (
	"math"
	"math/rand/v2"
)

// maxRejections bounds annulus rejection sampling before switching to polar sampling.
const maxRejections = 64

// annulusEpsilon absorbs float32 rounding on the ring edges.
const annulusEpsilon = 1e-4

// Rect is an axis-aligned rectangle on the XZ plane.
type Rect struct {
	MinX, MinZ float32
	MaxX, MaxZ float32
}

// Width returns the X extent.
func (r Rect) Width() float32 { return r.MaxX - r.MinX }

// Depth returns the Z extent.
func (r Rect) Depth() float32 { return r.MaxZ - r.MinZ }

// Center returns the rectangle centre.
func (r Rect) Center() (x, z float32) {
	return (r.MinX + r.MaxX) * 0.5, (r.MinZ + r.MaxZ) * 0.5
}

// Contains reports whether (x, z) lies inside the rectangle, edges included.
func (r Rect) Contains(x, z float32) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// Region is a planar area instances are scattered over.
type Region interface {
	// Sample draws a uniformly distributed point inside the region.
	Sample(rng *rand.Rand) (x, z float32)
	// Contains reports whether (x, z) lies inside the region.
	Contains(x, z float32) bool
	// Bounds returns the planar footprint.
	Bounds() Rect
}

// Box is a rectangular region.
type Box struct {
	Rect
}

// NewBox returns a square box of the given size centred on (cx, cz).
func NewBox(cx, cz, size float32) Box {
	h := size * 0.5
	return Box{Rect{MinX: cx - h, MinZ: cz - h, MaxX: cx + h, MaxZ: cz + h}}
}

func (b Box) Sample(rng *rand.Rand) (float32, float32) {
	x := b.MinX + rng.Float32()*b.Width()
	z := b.MinZ + rng.Float32()*b.Depth()
	return x, z
}

func (b Box) Bounds() Rect { return b.Rect }

// Annulus is the ring between MinRadius and MaxRadius around a centre.
type Annulus struct {
	CenterX, CenterZ float32
	MinRadius        float32
	MaxRadius        float32
}

// PlanarDistance returns the XZ distance between two points.
func PlanarDistance(ax, az, bx, bz float32) float32 {
	dx := float64(ax - bx)
	dz := float64(az - bz)
	return float32(math.Sqrt(dx*dx + dz*dz))
}

func (a Annulus) radii() (lo, hi float32) {
	lo, hi = a.MinRadius, a.MaxRadius
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func (a Annulus) Sample(rng *rand.Rand) (float32, float32) {
	lo, hi := a.radii()
	for range maxRejections {
		x := a.CenterX + (rng.Float32()*2-1)*hi
		z := a.CenterZ + (rng.Float32()*2-1)*hi
		if d := PlanarDistance(x, z, a.CenterX, a.CenterZ); d >= lo && d <= hi {
			return x, z
		}
	}

	// Thin or degenerate ring: area-uniform polar sample. The float32 result
	// is checked again since rounding far from the origin can leave the band.
	lo2 := float64(lo) * float64(lo)
	for range maxRejections {
		r := math.Sqrt(lo2 + rng.Float64()*(float64(hi)*float64(hi)-lo2))
		theta := rng.Float64() * 2 * math.Pi
		x := a.CenterX + float32(r*math.Cos(theta))
		z := a.CenterZ + float32(r*math.Sin(theta))
		if d := PlanarDistance(x, z, a.CenterX, a.CenterZ); d >= lo && d <= hi {
			return x, z
		}
	}
	return a.onAxis(lo, hi)
}

// onAxis steps along +X from the middle of the band to a representable
// point inside it. Bands narrower than one float32 step get the nearest point.
func (a Annulus) onAxis(lo, hi float32) (float32, float32) {
	x := a.CenterX + (lo+hi)/2
	for range maxRejections {
		d := PlanarDistance(x, a.CenterZ, a.CenterX, a.CenterZ)
		switch {
		case d < lo:
			x = math.Nextafter32(x, float32(math.Inf(1)))
		case d > hi:
			x = math.Nextafter32(x, float32(math.Inf(-1)))
		default:
			return x, a.CenterZ
		}
	}
	return x, a.CenterZ
}

func (a Annulus) Contains(x, z float32) bool {
	lo, hi := a.radii()
	d := PlanarDistance(x, z, a.CenterX, a.CenterZ)
	return d >= lo-annulusEpsilon && d <= hi+annulusEpsilon
}

func (a Annulus) Bounds() Rect {
	_, hi := a.radii()
	return Rect{
		MinX: a.CenterX - hi, MinZ: a.CenterZ - hi,
		MaxX: a.CenterX + hi, MaxZ: a.CenterZ + hi,
	}
}
