package grass

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGenerateBasicField(t *testing.T) {
	gen := NewGenerator(func(x, z float32) float32 { return 0 })
	batch := gen.Generate(GenerateRequest{
		Count:            500,
		BladesPerCluster: 3,
		Region:           NewBox(0, 0, 20),
		Seed:             42,
	})

	if got := batch.Len(); got != 1500 {
		t.Fatalf("got %d instances, want 1500", got)
	}
	for i, in := range batch.Instances {
		if in.Offset.Y() != 0 {
			t.Fatalf("instance %d: y = %v, want 0", i, in.Offset.Y())
		}
		if x := in.Offset.X(); x < -10 || x > 10 {
			t.Fatalf("instance %d: x = %v outside [-10, 10]", i, x)
		}
		if z := in.Offset.Z(); z < -10 || z > 10 {
			t.Fatalf("instance %d: z = %v outside [-10, 10]", i, z)
		}
	}
	if batch.MinY != 0 || batch.MaxY != 0 {
		t.Errorf("height range [%v, %v], want [0, 0]", batch.MinY, batch.MaxY)
	}
}

func TestGenerateAttributeRanges(t *testing.T) {
	gen := NewGenerator(nil)
	gen.ColorJitter = 0.1
	batch := gen.Generate(GenerateRequest{
		Count:            400,
		BladesPerCluster: 2,
		Region:           NewBox(5, -5, 30),
		Seed:             3,
		Tier:             TierMedium,
	})

	for i, in := range batch.Instances {
		if in.Scale < MinClusterScale || in.Scale > MaxClusterScale {
			t.Errorf("instance %d: scale %v", i, in.Scale)
		}
		if in.WindInfluence < MinWind || in.WindInfluence > MaxWind {
			t.Errorf("instance %d: wind %v", i, in.WindInfluence)
		}
		if in.GrassType < 0 || in.GrassType >= 1 {
			t.Errorf("instance %d: grass type %v", i, in.GrassType)
		}
		if in.LOD != TierMedium {
			t.Errorf("instance %d: LOD %s, want medium", i, in.LOD)
		}
		for c := range 3 {
			if math.Abs(float64(in.BaseColor[c])) > 0.1 || math.Abs(float64(in.TipColor[c])) > 0.1 {
				t.Errorf("instance %d: colour jitter out of range: %v %v", i, in.BaseColor, in.TipColor)
			}
		}
	}
}

func TestGenerateScaleMultiplier(t *testing.T) {
	gen := NewGenerator(nil)
	gen.ScaleMultiplier = 2
	batch := gen.Generate(GenerateRequest{Count: 100, BladesPerCluster: 1, Region: NewBox(0, 0, 10), Seed: 1})
	for _, in := range batch.Instances {
		if in.Scale < 2*MinClusterScale-1e-5 || in.Scale > 2*MaxClusterScale+1e-5 {
			t.Fatalf("scale %v outside the doubled range", in.Scale)
		}
	}
}

func TestClusterFan(t *testing.T) {
	for k := 1; k <= 7; k++ {
		gen := NewGenerator(nil)
		batch := gen.Generate(GenerateRequest{Count: 10, BladesPerCluster: k, Region: NewBox(0, 0, 10), Seed: uint64(k)})
		step := 2 * math.Pi / float64(k)

		for c := range 10 {
			cluster := batch.Instances[c*k : (c+1)*k]
			for i := 1; i < k; i++ {
				if cluster[i].Offset != cluster[0].Offset || cluster[i].Scale != cluster[0].Scale ||
					cluster[i].WindInfluence != cluster[0].WindInfluence || cluster[i].TipColor != cluster[0].TipColor {
					t.Fatalf("k=%d cluster %d: blade %d does not share cluster attributes", k, c, i)
				}
				d := float64(cluster[i].Rotation - cluster[i-1].Rotation)
				if math.Abs(d-step) > 1e-4 {
					t.Errorf("k=%d cluster %d: spacing %v, want %v", k, c, d, step)
				}
			}
			// Wrap-around gap closes the full turn.
			if k > 1 {
				wrap := float64(cluster[0].Rotation) + 2*math.Pi - float64(cluster[k-1].Rotation)
				if math.Abs(wrap-step) > 1e-4 {
					t.Errorf("k=%d cluster %d: wrap gap %v, want %v", k, c, wrap, step)
				}
			}
		}
	}
}

func TestFanRotation(t *testing.T) {
	tests := []struct {
		base float32
		i, k int
		want float64
	}{
		{0, 0, 3, 0},
		{0, 1, 3, 2 * math.Pi / 3},
		{1, 2, 4, 1 + math.Pi},
		{0.5, 0, 1, 0.5},
	}
	for _, tt := range tests {
		got := FanRotation(tt.base, tt.i, tt.k)
		if math.Abs(float64(got)-tt.want) > 1e-5 {
			t.Errorf("FanRotation(%v, %d, %d) = %v, want %v", tt.base, tt.i, tt.k, got, tt.want)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	gen := NewGenerator(nil)
	req := GenerateRequest{Count: 50, BladesPerCluster: 3, Region: Annulus{MinRadius: 5, MaxRadius: 20}, Seed: 99}

	a := gen.Generate(req)
	b := gen.Generate(req)
	for i := range a.Instances {
		if a.Instances[i] != b.Instances[i] {
			t.Fatalf("instance %d differs between runs with the same seed", i)
		}
	}

	req.Seed = 100
	c := gen.Generate(req)
	if c.Instances[0] == a.Instances[0] {
		t.Error("different seeds produced the same first instance")
	}
}

func TestGenerateRingScenario(t *testing.T) {
	const blades = 2
	gen := NewGenerator(nil)
	wantClusters := []int{1000, 500, 250}

	for i, ring := range DefaultRings() {
		region := Annulus{MinRadius: ring.MinRadius, MaxRadius: ring.MaxRadius}
		batch := gen.Generate(GenerateRequest{
			Count:            RingCount(1000, ring.Density),
			BladesPerCluster: blades,
			Region:           region,
			Seed:             ChunkSeed(7, RingKey(i)),
			Tier:             ring.Tier,
		})
		if got, want := batch.Len(), wantClusters[i]*blades; got != want {
			t.Errorf("ring %d: %d instances, want %d", i, got, want)
		}
		for j, in := range batch.Instances {
			d := PlanarDistance(in.Offset.X(), in.Offset.Z(), 0, 0)
			if d < ring.MinRadius-annulusEpsilon || d > ring.MaxRadius+annulusEpsilon {
				t.Fatalf("ring %d instance %d: distance %v outside [%v, %v]",
					i, j, d, ring.MinRadius, ring.MaxRadius)
			}
			if in.LOD != ring.Tier {
				t.Fatalf("ring %d instance %d: LOD %s, want %s", i, j, in.LOD, ring.Tier)
			}
		}
	}
}

func TestAnnulusContainment(t *testing.T) {
	tests := []struct {
		name string
		a    Annulus
	}{
		{"disc", Annulus{MinRadius: 0, MaxRadius: 10}},
		{"offset band", Annulus{CenterX: 40, CenterZ: -12, MinRadius: 30, MaxRadius: 60}},
		{"thin band", Annulus{MinRadius: 99.5, MaxRadius: 100}},
		{"zero area", Annulus{CenterX: 1, CenterZ: 1, MinRadius: 5, MaxRadius: 5}},
		{"inverted", Annulus{MinRadius: 8, MaxRadius: 2}},
		{"far thin band", Annulus{CenterX: 5000, CenterZ: -5000, MinRadius: 99.99, MaxRadius: 100}},
		{"far zero area", Annulus{CenterX: -3000, CenterZ: 7000, MinRadius: 40, MaxRadius: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.a.radii()
			rng := rand.New(rand.NewPCG(1, 2))
			for i := range 2000 {
				x, z := tt.a.Sample(rng)
				if d := PlanarDistance(x, z, tt.a.CenterX, tt.a.CenterZ); d < lo || d > hi {
					t.Fatalf("sample %d at distance %v outside [%v, %v]", i, d, lo, hi)
				}
			}
		})
	}
}

func TestBoxContainment(t *testing.T) {
	b := NewBox(3, 4, 8)
	rng := rand.New(rand.NewPCG(5, 6))
	for range 1000 {
		x, z := b.Sample(rng)
		if !b.Contains(x, z) {
			t.Fatalf("sample (%v, %v) outside %+v", x, z, b.Rect)
		}
	}
	if w, d := b.Width(), b.Depth(); w != 8 || d != 8 {
		t.Errorf("box extent %vx%v, want 8x8", w, d)
	}
}

func TestGenerateLODTagging(t *testing.T) {
	anchor := mgl32.Vec2{0, 0}
	gen := NewGenerator(nil)
	batch := gen.Generate(GenerateRequest{
		Count:                300,
		BladesPerCluster:     1,
		Region:               NewBox(0, 0, 60),
		Seed:                 11,
		Anchor:               &anchor,
		HighDetailDistance:   10,
		MediumDetailDistance: 20,
	})

	seen := map[LODTier]int{}
	for i, in := range batch.Instances {
		d := PlanarDistance(in.Offset.X(), in.Offset.Z(), 0, 0)
		if want := TierForDistance(d, 10, 20); in.LOD != want {
			t.Fatalf("instance %d at distance %v tagged %s, want %s", i, d, in.LOD, want)
		}
		seen[in.LOD]++
	}
	if len(seen) != NumTiers {
		t.Errorf("expected all tiers in a 60x60 field, got %v", seen)
	}
}

func TestTierForDistance(t *testing.T) {
	tests := []struct {
		d    float32
		want LODTier
	}{
		{0, TierHigh},
		{29.9, TierHigh},
		{30, TierMedium},
		{59, TierMedium},
		{60, TierLow},
		{500, TierLow},
	}
	for _, tt := range tests {
		if got := TierForDistance(tt.d, 30, 60); got != tt.want {
			t.Errorf("TierForDistance(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestGenerateHeights(t *testing.T) {
	gen := NewGenerator(func(x, z float32) float32 { return x + 100 })
	batch := gen.Generate(GenerateRequest{Count: 50, BladesPerCluster: 1, Region: NewBox(0, 0, 10), Seed: 1})
	for _, in := range batch.Instances {
		if in.Offset.Y() != in.Offset.X()+100 {
			t.Fatalf("y = %v for x = %v", in.Offset.Y(), in.Offset.X())
		}
		if in.Offset.Y() < batch.MinY || in.Offset.Y() > batch.MaxY {
			t.Fatalf("y = %v outside batch range [%v, %v]", in.Offset.Y(), batch.MinY, batch.MaxY)
		}
	}

	bad := NewGenerator(func(x, z float32) float32 { return float32(math.NaN()) })
	for _, in := range bad.Generate(GenerateRequest{Count: 5, BladesPerCluster: 1, Region: NewBox(0, 0, 1), Seed: 1}).Instances {
		if in.Offset.Y() != 0 {
			t.Fatalf("NaN ground height not replaced: %v", in.Offset.Y())
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	gen := NewGenerator(nil)
	if n := gen.Generate(GenerateRequest{Count: 0, BladesPerCluster: 3, Region: NewBox(0, 0, 1)}).Len(); n != 0 {
		t.Errorf("zero count produced %d instances", n)
	}
	if n := gen.Generate(GenerateRequest{Count: 10, BladesPerCluster: 3}).Len(); n != 0 {
		t.Errorf("nil region produced %d instances", n)
	}
	if n := gen.Generate(GenerateRequest{Count: 4, BladesPerCluster: 0, Region: NewBox(0, 0, 1)}).Len(); n != 4 {
		t.Errorf("zero blades per cluster produced %d instances, want 4", n)
	}
}

func TestChunkSeed(t *testing.T) {
	keys := []ChunkKey{GridKey(0, 0), GridKey(1, 0), GridKey(0, 1), GridKey(-1, 0), RingKey(0), RingKey(1)}
	seen := map[uint64]ChunkKey{}
	for _, k := range keys {
		s := ChunkSeed(1, k)
		if prev, ok := seen[s]; ok {
			t.Errorf("keys %s and %s share seed %d", prev, k, s)
		}
		seen[s] = k
		if ChunkSeed(1, k) != s {
			t.Errorf("ChunkSeed(%s) not stable", k)
		}
	}
	if ChunkSeed(1, GridKey(3, 4)) == ChunkSeed(2, GridKey(3, 4)) {
		t.Error("field seed does not affect chunk seed")
	}
}

func TestRingSeed(t *testing.T) {
	tests := []struct {
		name   string
		ax, az float32
		bx, bz float32
		same   bool
	}{
		{"same cell", 1, 1, 6, 6, true},
		{"next cell", 1, 1, 9, 1, false},
		{"negative side", -1, 0, 1, 0, false},
		{"far away", 500, -500, 500.5, -499.5, true},
	}
	for _, tt := range tests {
		a := RingSeed(3, 0, tt.ax, tt.az, 7.5)
		b := RingSeed(3, 0, tt.bx, tt.bz, 7.5)
		if (a == b) != tt.same {
			t.Errorf("%s: seeds equal = %v, want %v", tt.name, a == b, tt.same)
		}
	}
	if RingSeed(3, 0, 0, 0, 7.5) == RingSeed(3, 1, 0, 0, 7.5) {
		t.Error("rings at one centre share a seed")
	}
	if RingSeed(3, 0, 0.5, 0.5, 0) != RingSeed(3, 0, 0.2, 0.9, -4) {
		t.Error("non-positive cell sizes should fall back to unit cells")
	}
}

func TestPack(t *testing.T) {
	batch := &InstanceBatch{Instances: []Instance{
		{Offset: mgl32.Vec3{1, 2, 3}, Scale: 4, Rotation: 5, WindInfluence: 6, GrassType: 7, LOD: TierLow,
			BaseColor: mgl32.Vec3{8, 9, 10}, TipColor: mgl32.Vec3{11, 12, 13}},
		{Scale: 1},
	}}
	out := batch.Pack(nil)
	if len(out) != 2*InstanceStride {
		t.Fatalf("packed %d floats, want %d", len(out), 2*InstanceStride)
	}
	want := []float32{1, 2, 3, 4, 5, 6, 7, 2, 8, 9, 10, 11, 12, 13}
	for i, v := range want {
		if out[i] != v {
			t.Errorf("out[%d] = %v, want %v", i, out[i], v)
		}
	}
	if out[InstanceStride+3] != 1 {
		t.Errorf("second instance scale = %v", out[InstanceStride+3])
	}
}
