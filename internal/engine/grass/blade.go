// Package grass implements the CPU side of the procedural grass field: blade
// geometry, instance attribute generation, chunk pooling, LOD scheduling and
// the appearance uniform pipeline.
package grass

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LODTier is a discrete tessellation/density level selected by distance.
type LODTier uint8

const (
	TierHigh LODTier = iota
	TierMedium
	TierLow
)

// NumTiers is the number of geometry variants kept per shape.
const NumTiers = 3

// Segments returns the blade tessellation used for the tier.
func (t LODTier) Segments() int {
	switch t {
	case TierMedium:
		return 6
	case TierLow:
		return 3
	default:
		return 12
	}
}

func (t LODTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	}
	return fmt.Sprintf("LODTier(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t LODTier) MarshalText() ([]byte, error) {
	if t >= NumTiers {
		return nil, fmt.Errorf("invalid LOD tier %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LODTier) UnmarshalText(text []byte) error {
	switch string(text) {
	case "high", "0":
		*t = TierHigh
	case "medium", "1":
		*t = TierMedium
	case "low", "2":
		*t = TierLow
	default:
		return fmt.Errorf("unknown LOD tier %q", text)
	}
	return nil
}

const (
	// minTaperPower keeps the ease-out exponent away from zero.
	minTaperPower = 0.1
	// fallbackWidthPercent replaces a non-finite taper result.
	fallbackWidthPercent = 0.5
	// MinTipWidth is the width the pointed tip converges to.
	MinTipWidth = 0.0
)

// ShapeParams describes the blade silhouette.
type ShapeParams struct {
	Height           float32 `yaml:"height"`
	HeightMultiplier float32 `yaml:"height_multiplier"`
	BaseWidth        float32 `yaml:"base_width"`
	TipWidth         float32 `yaml:"tip_width"`
	TaperPower       float32 `yaml:"taper_power"`
	TipPointPercent  float32 `yaml:"tip_point_percent"` // Top fraction that narrows to a point
}

// DefaultShapeParams returns the stock blade shape.
func DefaultShapeParams() ShapeParams {
	return ShapeParams{
		Height:           1.0,
		HeightMultiplier: 1.0,
		BaseWidth:        0.12,
		TipWidth:         0.03,
		TaperPower:       1.5,
		TipPointPercent:  0.2,
	}
}

// Vertex is a blade mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// BladeGeometry is an immutable blade mesh at one tessellation level.
// Vertices come in rows of two (left, right) from base to tip.
type BladeGeometry struct {
	Segments int
	Vertices []Vertex
	Indices  []uint32
	Height   float32
}

// RowWidth returns the blade width at vertex row i (0 = base).
func (g *BladeGeometry) RowWidth(i int) float32 {
	return g.Vertices[2*i+1].Position.X() - g.Vertices[2*i].Position.X()
}

// Rows returns the number of vertex rows.
func (g *BladeGeometry) Rows() int {
	return len(g.Vertices) / 2
}

// widthAt returns the blade width at normalised height t.
func widthAt(t float32, p ShapeParams) float32 {
	power := p.TaperPower
	if !(power >= minTaperPower) { // also catches NaN
		power = minTaperPower
	}

	// Ease-out: 1 - (1 - (1-t))^power
	widthPercent := float32(1 - math.Pow(float64(t), float64(power)))
	if isNonFinite(widthPercent) {
		widthPercent = fallbackWidthPercent
	}

	base := nonNegative(p.BaseWidth)
	tip := nonNegative(p.TipWidth)
	width := tip + (base-tip)*widthPercent

	tipZone := p.TipPointPercent
	if tipZone > 0 && !isNonFinite(tipZone) {
		if tipZone > 1 {
			tipZone = 1
		}
		start := 1 - tipZone
		if t > start {
			f := (t - start) / tipZone
			width += (MinTipWidth - width) * f
		}
	}

	if isNonFinite(width) || width < 0 {
		return 0
	}
	return width
}

// BuildBlade builds a tapered blade with the given number of vertical segments.
func BuildBlade(segments int, p ShapeParams) *BladeGeometry {
	if segments < 1 {
		segments = 1
	}

	height := nonNegative(p.Height) * nonNegative(p.HeightMultiplier)
	if isNonFinite(height) {
		height = 0
	}

	rows := segments + 1
	geom := &BladeGeometry{
		Segments: segments,
		Vertices: make([]Vertex, 0, rows*2),
		Indices:  make([]uint32, 0, segments*6),
		Height:   height,
	}

	for i := range rows {
		t := float32(i) / float32(segments)
		half := widthAt(t, p) * 0.5
		y := t * height
		geom.Vertices = append(geom.Vertices,
			Vertex{Position: mgl32.Vec3{-half, y, 0}, UV: mgl32.Vec2{0, t}},
			Vertex{Position: mgl32.Vec3{half, y, 0}, UV: mgl32.Vec2{1, t}},
		)
	}

	for i := range segments {
		bl := uint32(i * 2)
		br := bl + 1
		tl := bl + 2
		tr := bl + 3
		geom.Indices = append(geom.Indices,
			bl, br, tl,
			tl, br, tr,
		)
	}

	computeNormals(geom)
	return geom
}

// computeNormals accumulates face normals onto vertices.
func computeNormals(g *BladeGeometry) {
	for i := range g.Vertices {
		g.Vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		pa := g.Vertices[a].Position
		n := g.Vertices[b].Position.Sub(pa).Cross(g.Vertices[c].Position.Sub(pa))
		g.Vertices[a].Normal = g.Vertices[a].Normal.Add(n)
		g.Vertices[b].Normal = g.Vertices[b].Normal.Add(n)
		g.Vertices[c].Normal = g.Vertices[c].Normal.Add(n)
	}
	for i := range g.Vertices {
		n := g.Vertices[i].Normal
		if n.Len() < 1e-8 {
			// Collapsed faces (zero width); face the blade forward
			g.Vertices[i].Normal = mgl32.Vec3{0, 0, 1}
			continue
		}
		g.Vertices[i].Normal = n.Normalize()
	}
}

// VariantSet caches the three LOD variants for one shape.
type VariantSet struct {
	params   ShapeParams
	variants [NumTiers]*BladeGeometry
}

// NewVariantSet builds all tiers for p.
func NewVariantSet(p ShapeParams) *VariantSet {
	vs := &VariantSet{}
	vs.rebuild(p)
	return vs
}

// Params returns the shape the variants were built from.
func (vs *VariantSet) Params() ShapeParams {
	return vs.params
}

// Get returns the geometry for tier.
func (vs *VariantSet) Get(tier LODTier) *BladeGeometry {
	if int(tier) >= NumTiers {
		tier = TierHigh
	}
	return vs.variants[tier]
}

// SetParams rebuilds every variant if p differs from the current shape.
// Returns true when a rebuild happened.
func (vs *VariantSet) SetParams(p ShapeParams) bool {
	if p == vs.params && vs.variants[TierHigh] != nil {
		return false
	}
	vs.rebuild(p)
	return true
}

func (vs *VariantSet) rebuild(p ShapeParams) {
	vs.params = p
	for tier := range LODTier(NumTiers) {
		vs.variants[tier] = BuildBlade(tier.Segments(), p)
	}
}

func isNonFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func nonNegative(v float32) float32 {
	if v < 0 || isNonFinite(v) {
		return 0
	}
	return v
}
