package grass

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMovementEpsilon is how far the anchor must move before the
// per-camera-move uniforms are pushed again.
const DefaultMovementEpsilon = 5.0

// Ring is one concentric LOD band around the anchor.
type Ring struct {
	MinRadius float32 `yaml:"min_radius"`
	MaxRadius float32 `yaml:"max_radius"`
	Density   float32 `yaml:"density"` // Fraction of the base cluster count
	Tier      LODTier `yaml:"tier"`
}

// DefaultRings returns the stock 0-30/30-60/60-100 bands.
func DefaultRings() []Ring {
	return []Ring{
		{MinRadius: 0, MaxRadius: 30, Density: 1.0, Tier: TierHigh},
		{MinRadius: 30, MaxRadius: 60, Density: 0.5, Tier: TierMedium},
		{MinRadius: 60, MaxRadius: 100, Density: 0.25, Tier: TierLow},
	}
}

// RingCount returns the cluster count for a ring given the base count.
func RingCount(base int, density float32) int {
	if density <= 0 || base <= 0 {
		return 0
	}
	return int(math.Round(float64(base) * float64(density)))
}

// Scheduler decides when distance-dependent state must be recomputed.
type Scheduler struct {
	epsilon float32
	last    mgl32.Vec3
	pushed  bool
}

// NewScheduler returns a scheduler with the given movement epsilon.
func NewScheduler(epsilon float32) *Scheduler {
	if epsilon < 0 {
		epsilon = 0
	}
	return &Scheduler{epsilon: epsilon}
}

// ShouldUpdateCamera reports whether the anchor moved more than the epsilon
// since the last Commit. The first call always returns true.
func (s *Scheduler) ShouldUpdateCamera(anchor mgl32.Vec3) bool {
	if !s.pushed {
		return true
	}
	return anchor.Sub(s.last).Len() > s.epsilon
}

// Commit records that camera-tier state was pushed for anchor.
func (s *Scheduler) Commit(anchor mgl32.Vec3) {
	s.last = anchor
	s.pushed = true
}

// Invalidate forces the next ShouldUpdateCamera to return true.
func (s *Scheduler) Invalidate() {
	s.pushed = false
}

// GridCell returns the chunk cell containing the anchor.
func GridCell(anchor mgl32.Vec3, chunkSize float32) (int, int) {
	if chunkSize <= 0 {
		return 0, 0
	}
	cx := int(math.Floor(float64(anchor.X() / chunkSize)))
	cz := int(math.Floor(float64(anchor.Z() / chunkSize)))
	return cx, cz
}

// CellRect returns the planar footprint of grid cell (x, z).
func CellRect(x, z int, chunkSize float32) Rect {
	return Rect{
		MinX: float32(x) * chunkSize,
		MinZ: float32(z) * chunkSize,
		MaxX: float32(x+1) * chunkSize,
		MaxZ: float32(z+1) * chunkSize,
	}
}

// DesiredGridKeys returns the grid keys whose cell centre lies within
// viewRadius of the centre of cell (cx, cz), nearest first.
func DesiredGridKeys(cx, cz int, viewRadius, chunkSize float32) []ChunkKey {
	if chunkSize <= 0 || viewRadius < 0 {
		return nil
	}
	r := int(math.Ceil(float64(viewRadius / chunkSize)))
	limit := viewRadius / chunkSize

	type candidate struct {
		key  ChunkKey
		dist float32
	}
	var cands []candidate
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			d := float32(math.Sqrt(float64(dx*dx + dz*dz)))
			if d > limit {
				continue
			}
			cands = append(cands, candidate{key: GridKey(cx+dx, cz+dz), dist: d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].dist < cands[j].dist
	})

	keys := make([]ChunkKey, len(cands))
	for i, c := range cands {
		keys[i] = c.key
	}
	return keys
}
