package grass

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Fixed attribute ranges.
const (
	MinClusterScale = 0.6
	MaxClusterScale = 1.4
	MinWind         = 0.3
	MaxWind         = 1.0
)

// InstanceStride is the number of floats per packed instance.
// Layout: offset(3) scale rotation wind type lod baseColor(3) tipColor(3).
const InstanceStride = 14

// HeightFunc returns the ground height at a planar position.
type HeightFunc func(x, z float32) float32

// Instance holds the per-blade attributes driving the shared blade geometry.
type Instance struct {
	Offset        mgl32.Vec3
	Scale         float32
	Rotation      float32
	WindInfluence float32
	GrassType     float32
	LOD           LODTier
	BaseColor     mgl32.Vec3 // Jitter added to the base colour ramp
	TipColor      mgl32.Vec3 // Jitter added to the tip colour ramp
}

// InstanceBatch is the instance array for one chunk or field.
type InstanceBatch struct {
	Instances        []Instance
	BladesPerCluster int
	MinY, MaxY       float32
}

// Len returns the number of instances.
func (b *InstanceBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Instances)
}

// Pack appends the GPU layout of every instance to dst.
func (b *InstanceBatch) Pack(dst []float32) []float32 {
	for _, in := range b.Instances {
		dst = append(dst,
			in.Offset[0], in.Offset[1], in.Offset[2],
			in.Scale,
			in.Rotation,
			in.WindInfluence,
			in.GrassType,
			float32(in.LOD),
			in.BaseColor[0], in.BaseColor[1], in.BaseColor[2],
			in.TipColor[0], in.TipColor[1], in.TipColor[2],
		)
	}
	return dst
}

// GenerateRequest describes one batch to generate.
type GenerateRequest struct {
	Count            int // Clusters
	BladesPerCluster int
	Region           Region
	Seed             uint64

	// Tier is used for every instance unless Anchor is set.
	Tier LODTier
	// Anchor, when non-nil, tags each cluster by its distance to the anchor.
	Anchor               *mgl32.Vec2
	HighDetailDistance   float32
	MediumDetailDistance float32
}

// Generator produces instance batches.
type Generator struct {
	Heights         HeightFunc
	ScaleMultiplier float32
	ColorJitter     float32
}

// NewGenerator returns a generator. A nil heights function means flat ground.
func NewGenerator(heights HeightFunc) *Generator {
	return &Generator{
		Heights:         heights,
		ScaleMultiplier: 1,
		ColorJitter:     0.08,
	}
}

func (g *Generator) groundHeight(x, z float32) float32 {
	if g.Heights == nil {
		return 0
	}
	h := g.Heights(x, z)
	if isNonFinite(h) {
		return 0
	}
	return h
}

// Generate builds a batch for req. The same request always yields the same batch.
func (g *Generator) Generate(req GenerateRequest) *InstanceBatch {
	blades := max(req.BladesPerCluster, 1)
	count := max(req.Count, 0)
	batch := &InstanceBatch{
		Instances:        make([]Instance, 0, count*blades),
		BladesPerCluster: blades,
	}
	if req.Region == nil || count == 0 {
		return batch
	}

	rng := rand.New(rand.NewPCG(req.Seed, req.Seed^0x9e3779b97f4a7c15))
	jitter := g.ColorJitter
	scaleMul := g.ScaleMultiplier
	if scaleMul <= 0 {
		scaleMul = 1
	}

	batch.MinY = float32(math.Inf(1))
	batch.MaxY = float32(math.Inf(-1))

	for range count {
		x, z := req.Region.Sample(rng)
		y := g.groundHeight(x, z)
		batch.MinY = min(batch.MinY, y)
		batch.MaxY = max(batch.MaxY, y)

		scale := (MinClusterScale + rng.Float32()*(MaxClusterScale-MinClusterScale)) * scaleMul
		baseRotation := rng.Float32() * 2 * math.Pi
		wind := MinWind + rng.Float32()*(MaxWind-MinWind)
		grassType := rng.Float32()
		baseColor := jitterVec(rng, jitter)
		tipColor := jitterVec(rng, jitter)

		tier := req.Tier
		if req.Anchor != nil {
			d := PlanarDistance(x, z, req.Anchor.X(), req.Anchor.Y())
			tier = TierForDistance(d, req.HighDetailDistance, req.MediumDetailDistance)
		}

		for b := range blades {
			batch.Instances = append(batch.Instances, Instance{
				Offset:        mgl32.Vec3{x, y, z},
				Scale:         scale,
				Rotation:      FanRotation(baseRotation, b, blades),
				WindInfluence: wind,
				GrassType:     grassType,
				LOD:           tier,
				BaseColor:     baseColor,
				TipColor:      tipColor,
			})
		}
	}
	return batch
}

// FanRotation spreads blade i of k evenly around a full turn starting at base.
func FanRotation(base float32, i, k int) float32 {
	return base + float32(i)/float32(k)*2*math.Pi
}

// TierForDistance buckets a planar distance into an LOD tier.
func TierForDistance(d, high, medium float32) LODTier {
	switch {
	case d < high:
		return TierHigh
	case d < medium:
		return TierMedium
	default:
		return TierLow
	}
}

func jitterVec(rng *rand.Rand, amount float32) mgl32.Vec3 {
	return mgl32.Vec3{
		(rng.Float32()*2 - 1) * amount,
		(rng.Float32()*2 - 1) * amount,
		(rng.Float32()*2 - 1) * amount,
	}
}

// ChunkSeed derives a reproducible per-chunk seed from the field seed.
func ChunkSeed(seed uint64, key ChunkKey) uint64 {
	h := seed ^ 0xcbf29ce484222325
	for _, v := range [3]int64{int64(key.X), int64(key.Z), int64(key.Ring)} {
		h ^= uint64(v)
		h = splitmix64(h)
	}
	return h
}

// RingSeed derives the seed of ring i centred at (centerX, centerZ). The centre
// is snapped to cell-sized steps, so small drifts keep the layout and coming
// back to a spot reproduces it.
func RingSeed(seed uint64, i int, centerX, centerZ, cell float32) uint64 {
	if !(cell > 0) {
		cell = 1
	}
	qx := int(math.Floor(float64(centerX / cell)))
	qz := int(math.Floor(float64(centerZ / cell)))
	return ChunkSeed(seed, ChunkKey{X: qx, Z: qz, Ring: i + 1})
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
