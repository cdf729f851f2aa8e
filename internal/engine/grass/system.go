package grass

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-grass/internal/logger"
)

// Options configures a System.
type Options struct {
	Policy Policy `yaml:"policy"`
	Seed   uint64 `yaml:"seed"`

	// InstanceCount is the cluster count of the whole field (none) or the
	// base count scaled by ring density (rings).
	InstanceCount int `yaml:"instance_count"`
	// ChunkInstanceCount is the cluster count of one grid chunk.
	ChunkInstanceCount int `yaml:"chunk_instance_count"`
	BladesPerCluster   int `yaml:"blades_per_cluster"`

	FieldSize  float32 `yaml:"field_size"`
	ChunkSize  float32 `yaml:"chunk_size"`
	ViewRadius float32 `yaml:"view_radius"`
	Rings      []Ring  `yaml:"rings"`

	HighDetailDistance   float32 `yaml:"high_detail_distance"`
	MediumDetailDistance float32 `yaml:"medium_detail_distance"`
	MovementEpsilon      float32 `yaml:"movement_epsilon"`
	RecenterDistance     float32 `yaml:"recenter_distance"`

	RegenerateDelay time.Duration `yaml:"regenerate_delay"`

	ScaleMultiplier float32 `yaml:"scale_multiplier"`
	ColorJitter     float32 `yaml:"color_jitter"`

	TexturePath    string `yaml:"texture_path"`
	MaxTextureSize int    `yaml:"max_texture_size"`

	Shape ShapeParams `yaml:"shape"`
}

// DefaultOptions returns the stock field.
func DefaultOptions() Options {
	return Options{
		Policy:               PolicyRings,
		Seed:                 1,
		InstanceCount:        8000,
		ChunkInstanceCount:   600,
		BladesPerCluster:     3,
		FieldSize:            200,
		ChunkSize:            20,
		ViewRadius:           100,
		Rings:                DefaultRings(),
		HighDetailDistance:   30,
		MediumDetailDistance: 60,
		MovementEpsilon:      DefaultMovementEpsilon,
		RecenterDistance:     15,
		RegenerateDelay:      50 * time.Millisecond,
		ScaleMultiplier:      1,
		ColorJitter:          0.08,
		TexturePath:          "assets/textures/blade.png",
		MaxTextureSize:       512,
		Shape:                DefaultShapeParams(),
	}
}

// Validate checks the options that cannot be clamped.
func (o Options) Validate() error {
	if !o.Policy.Valid() {
		return fmt.Errorf("%w: unknown chunking policy %q", ErrInvalidOptions, o.Policy)
	}
	if o.InstanceCount < 0 || o.ChunkInstanceCount < 0 || o.BladesPerCluster < 0 {
		return fmt.Errorf("%w: negative instance count", ErrInvalidOptions)
	}
	if o.HighDetailDistance > o.MediumDetailDistance {
		return fmt.Errorf("%w: high detail distance %.1f beyond medium %.1f",
			ErrInvalidOptions, o.HighDetailDistance, o.MediumDetailDistance)
	}
	switch o.Policy {
	case PolicyNone:
		if o.FieldSize <= 0 {
			return fmt.Errorf("%w: field size must be positive", ErrInvalidOptions)
		}
	case PolicyGrid:
		if o.ChunkSize <= 0 {
			return fmt.Errorf("%w: chunk size must be positive", ErrInvalidOptions)
		}
		if o.ViewRadius < 0 {
			return fmt.Errorf("%w: negative view radius", ErrInvalidOptions)
		}
	case PolicyRings:
		if len(o.Rings) == 0 {
			return fmt.Errorf("%w: rings policy without rings", ErrInvalidOptions)
		}
		for i, r := range o.Rings {
			if r.MinRadius < 0 || r.MaxRadius < r.MinRadius {
				return fmt.Errorf("%w: ring %d has radii [%.1f, %.1f]",
					ErrInvalidOptions, i, r.MinRadius, r.MaxRadius)
			}
			if r.Tier >= NumTiers {
				return fmt.Errorf("%w: ring %d has tier %d", ErrInvalidOptions, i, r.Tier)
			}
		}
	}
	return nil
}

// structural reports whether switching from o to n requires regenerating
// instances. Shape and texture changes are handled in place.
func (o Options) structural(n Options) bool {
	a, b := o, n
	a.Shape, b.Shape = ShapeParams{}, ShapeParams{}
	a.TexturePath, b.TexturePath = "", ""
	a.MaxTextureSize, b.MaxTextureSize = 0, 0
	a.MovementEpsilon, b.MovementEpsilon = 0, 0
	a.RegenerateDelay, b.RegenerateDelay = 0, 0
	return !reflect.DeepEqual(a, b)
}

// Stats is a snapshot of the system state.
type Stats struct {
	Policy            Policy
	Active            int
	Pooled            int
	Peak              int
	Instances         int
	Regenerations     int
	TextureState      TextureState
	TextureGeneration uint64
}

// System owns the grass field: blade variants, chunk pool, uniform pipeline
// and blade texture. Everything runs on the frame loop.
type System struct {
	opts       Options
	appearance AppearanceConfig

	device    Device
	variants  *VariantSet
	generator *Generator
	chunks    *ChunkManager
	pipeline  *Pipeline
	scheduler *Scheduler
	texture   *TextureLoader

	bladeTexture       Texture
	materialGeneration uint64

	elapsed float64
	anchor  mgl32.Vec3

	dirty          bool // Desired chunks are not all built yet
	generating     bool
	regenPending   bool
	regenCountdown float64
	regenerations  int

	cell      [2]int
	cellValid bool
	center    mgl32.Vec2
	centered  bool
}

// New builds a system and uploads the blade variants. Materials are created
// once the blade texture resolves; until then no chunk is built. scene and
// heights may be nil.
func New(opts Options, device Device, scene SceneAttachment, heights HeightFunc, source TextureSource) (*System, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &System{
		opts:       opts,
		appearance: DefaultAppearance(),
		device:     device,
		variants:   NewVariantSet(opts.Shape),
		generator:  NewGenerator(heights),
		chunks:     NewChunkManager(device, scene),
		pipeline:   NewPipeline(nil, nil),
		scheduler:  NewScheduler(opts.MovementEpsilon),
		texture:    NewTextureLoader(source, opts.MaxTextureSize),
		dirty:      true,
	}
	s.configureGenerator()

	if err := s.uploadVariants(); err != nil {
		s.chunks.Destroy()
		return nil, err
	}

	logger.Info("grass system created",
		zap.String("policy", string(opts.Policy)),
		zap.Uint64("seed", opts.Seed),
		zap.Int("instances", opts.InstanceCount),
		zap.Int("blades_per_cluster", opts.BladesPerCluster),
	)
	return s, nil
}

func (s *System) configureGenerator() {
	s.generator.ScaleMultiplier = s.opts.ScaleMultiplier
	s.generator.ColorJitter = s.opts.ColorJitter
}

func (s *System) uploadVariants() error {
	for tier := range LODTier(NumTiers) {
		g, err := s.device.NewGeometry(s.variants.Get(tier))
		if err != nil {
			return fmt.Errorf("uploading %s blade: %w", tier, err)
		}
		s.chunks.SetGeometry(tier, g)
	}
	return nil
}

// Options returns the current options.
func (s *System) Options() Options { return s.opts }

// Appearance returns the merged appearance config.
func (s *System) Appearance() AppearanceConfig { return s.appearance }

// Chunks exposes the chunk manager for inspection.
func (s *System) Chunks() *ChunkManager { return s.chunks }

// Variants returns the cached blade variants.
func (s *System) Variants() *VariantSet { return s.variants }

// Texture returns the blade texture loader.
func (s *System) Texture() *TextureLoader { return s.texture }

// Update advances the system by dt seconds with the anchor at anchor and the
// camera world matrix cameraWorld.
func (s *System) Update(dt float64, anchor mgl32.Vec3, cameraWorld mgl32.Mat4) {
	if dt < 0 {
		dt = 0
	}
	s.elapsed += dt
	s.anchor = anchor

	s.pollTexture()

	if s.regenPending {
		s.regenCountdown -= dt
		if s.regenCountdown <= 0 && !s.generating {
			s.regenerate()
		}
	}

	s.pipeline.UpdateFrame(float32(s.elapsed), anchor)
	if s.pipeline.Ready() && s.scheduler.ShouldUpdateCamera(anchor) {
		s.pipeline.UpdateCamera(s.opts.HighDetailDistance, s.opts.MediumDetailDistance, cameraWorld)
		s.scheduler.Commit(anchor)
	}

	s.stream(anchor)
}

func (s *System) pollTexture() {
	if s.texture.State() == TextureIdle {
		s.texture.Load(s.opts.TexturePath)
	}
	img, gen, ok := s.texture.Poll()
	if !ok || gen == s.materialGeneration {
		return
	}

	tex, err := s.device.NewTexture(img)
	if err != nil {
		logger.Warn("blade texture upload failed", zap.Uint64("generation", gen), zap.Error(err))
		return
	}

	color, depth := s.chunks.Materials()
	if color == nil || depth == nil {
		if color, depth, err = s.newMaterials(); err != nil {
			tex.Destroy()
			logger.Warn("grass materials unavailable", zap.Error(err))
			return
		}
		s.chunks.SetMaterials(color, depth)
		s.pipeline.SetMaterials(color, depth)
		s.pipeline.ApplyControls(&s.appearance)
		s.scheduler.Invalidate()
		s.dirty = true
	}

	color.SetTexture(UniformBladeTexture, tex)
	depth.SetTexture(UniformBladeTexture, tex)
	if s.bladeTexture != nil {
		s.bladeTexture.Destroy()
	}
	s.bladeTexture = tex
	s.materialGeneration = gen

	logger.Debug("grass materials bound", zap.Uint64("generation", gen))
}

func (s *System) newMaterials() (Material, Material, error) {
	color, err := s.device.NewMaterial(MaterialColor)
	if err != nil {
		return nil, nil, fmt.Errorf("color material: %w", err)
	}
	depth, err := s.device.NewMaterial(MaterialDepth)
	if err != nil {
		color.Destroy()
		return nil, nil, fmt.Errorf("depth material: %w", err)
	}
	return color, depth, nil
}

// ApplyControls merges a (possibly partial) appearance config and writes the
// fields it sets. Returns the number of uniform writes.
func (s *System) ApplyControls(partial *AppearanceConfig) int {
	s.appearance.Merge(partial)
	return s.pipeline.ApplyControls(partial)
}

// SetOptions switches to opts. Shape changes swap the blade geometry in
// place; structural changes schedule a regeneration after RegenerateDelay.
func (s *System) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	prev := s.opts
	s.opts = opts
	s.configureGenerator()
	s.scheduler.epsilon = max(opts.MovementEpsilon, 0)

	if s.variants.SetParams(opts.Shape) {
		if err := s.uploadVariants(); err != nil {
			return err
		}
		logger.Debug("blade shape rebuilt")
	}

	if opts.TexturePath != prev.TexturePath || opts.MaxTextureSize != prev.MaxTextureSize {
		s.texture.maxSize = opts.MaxTextureSize
		s.texture.Load(opts.TexturePath)
	}

	if prev.structural(opts) || s.generating {
		s.RequestRegenerate()
	}
	if opts.HighDetailDistance != prev.HighDetailDistance || opts.MediumDetailDistance != prev.MediumDetailDistance {
		s.scheduler.Invalidate()
	}
	return nil
}

// RequestRegenerate schedules a full regeneration after RegenerateDelay of
// frame time. Requests made while a regeneration is pending restart the delay.
func (s *System) RequestRegenerate() {
	s.regenPending = true
	s.regenCountdown = s.opts.RegenerateDelay.Seconds()
}

// Regenerating reports whether a regeneration is scheduled.
func (s *System) Regenerating() bool { return s.regenPending }

// regenerate retires every chunk to the pool before any replacement is built.
func (s *System) regenerate() {
	s.generating = true
	s.regenPending = false

	s.chunks.ReturnAll()
	s.cellValid = false
	s.centered = false
	s.dirty = true
	s.stream(s.anchor)

	s.regenerations++
	s.generating = false

	logger.Info("grass regenerated",
		zap.String("policy", string(s.opts.Policy)),
		zap.Int("chunks", s.chunks.ActiveCount()),
		zap.Int("instances", s.chunks.InstanceCount()),
		zap.Int("pooled", s.chunks.PooledCount()),
	)
}

// stream brings the active chunk set in line with the policy for anchor.
func (s *System) stream(anchor mgl32.Vec3) {
	if !s.chunks.Ready() {
		return
	}
	switch s.opts.Policy {
	case PolicyNone:
		s.streamField()
	case PolicyGrid:
		s.streamGrid(anchor)
	case PolicyRings:
		s.streamRings(anchor)
	}
}

func (s *System) streamField() {
	if !s.dirty {
		return
	}
	key := GridKey(0, 0)
	region := NewBox(0, 0, s.opts.FieldSize)
	batch := s.generator.Generate(GenerateRequest{
		Count:            s.opts.InstanceCount,
		BladesPerCluster: s.opts.BladesPerCluster,
		Region:           region,
		Seed:             ChunkSeed(s.opts.Seed, key),
		Tier:             TierHigh,
	})
	s.dirty = s.chunks.GetChunk(key, TierHigh, batch, region.Bounds()) == nil
}

func (s *System) streamGrid(anchor mgl32.Vec3) {
	cx, cz := GridCell(anchor, s.opts.ChunkSize)
	cell := [2]int{cx, cz}
	if s.cellValid && cell == s.cell && !s.dirty {
		return
	}
	s.cell = cell
	s.cellValid = true

	desired := make(map[ChunkKey]LODTier)
	center := mgl32.Vec2{anchor.X(), anchor.Z()}
	for _, key := range DesiredGridKeys(cx, cz, s.opts.ViewRadius, s.opts.ChunkSize) {
		rect := CellRect(key.X, key.Z, s.opts.ChunkSize)
		mx, mz := rect.Center()
		d := PlanarDistance(mx, mz, center.X(), center.Y())
		desired[key] = TierForDistance(d, s.opts.HighDetailDistance, s.opts.MediumDetailDistance)
	}

	// Retire first so the pool can serve the new cells.
	for _, key := range s.chunks.Keys() {
		c, _ := s.chunks.Chunk(key)
		if tier, ok := desired[key]; !ok || tier != c.Tier {
			s.chunks.ReturnChunk(key)
		}
	}

	missing := false
	for _, key := range DesiredGridKeys(cx, cz, s.opts.ViewRadius, s.opts.ChunkSize) {
		if _, ok := s.chunks.Chunk(key); ok {
			continue
		}
		tier := desired[key]
		rect := CellRect(key.X, key.Z, s.opts.ChunkSize)
		batch := s.generator.Generate(GenerateRequest{
			Count:                s.opts.ChunkInstanceCount,
			BladesPerCluster:     s.opts.BladesPerCluster,
			Region:               Box{rect},
			Seed:                 ChunkSeed(s.opts.Seed, key),
			Anchor:               &center,
			HighDetailDistance:   s.opts.HighDetailDistance,
			MediumDetailDistance: s.opts.MediumDetailDistance,
		})
		if s.chunks.GetChunk(key, tier, batch, rect) == nil {
			missing = true
		}
	}
	s.dirty = missing
}

func (s *System) streamRings(anchor mgl32.Vec3) {
	pos := mgl32.Vec2{anchor.X(), anchor.Z()}
	moved := !s.centered || PlanarDistance(pos.X(), pos.Y(), s.center.X(), s.center.Y()) > s.opts.RecenterDistance
	if !moved && !s.dirty {
		return
	}
	if moved {
		s.chunks.ReturnAll()
		s.center = pos
		s.centered = true
	}

	missing := false
	for i, ring := range s.opts.Rings {
		key := RingKey(i)
		if _, ok := s.chunks.Chunk(key); ok {
			continue
		}
		region := Annulus{
			CenterX:   s.center.X(),
			CenterZ:   s.center.Y(),
			MinRadius: ring.MinRadius,
			MaxRadius: ring.MaxRadius,
		}
		batch := s.generator.Generate(GenerateRequest{
			Count:            RingCount(s.opts.InstanceCount, ring.Density),
			BladesPerCluster: s.opts.BladesPerCluster,
			Region:           region,
			Seed:             RingSeed(s.opts.Seed, i, s.center.X(), s.center.Y(), s.opts.RecenterDistance/2),
			Tier:             ring.Tier,
		})
		if s.chunks.GetChunk(key, ring.Tier, batch, region.Bounds()) == nil {
			missing = true
		}
	}
	s.dirty = missing
}

// Stats returns a snapshot of the current state.
func (s *System) Stats() Stats {
	return Stats{
		Policy:            s.opts.Policy,
		Active:            s.chunks.ActiveCount(),
		Pooled:            s.chunks.PooledCount(),
		Peak:              s.chunks.Peak(),
		Instances:         s.chunks.InstanceCount(),
		Regenerations:     s.regenerations,
		TextureState:      s.texture.State(),
		TextureGeneration: s.texture.Generation(),
	}
}

// Close releases every GPU resource owned by the system and abandons
// pending texture loads.
func (s *System) Close() {
	s.texture.Close()
	s.chunks.Destroy()
	s.pipeline.SetMaterials(nil, nil)
	if s.bladeTexture != nil {
		s.bladeTexture.Destroy()
		s.bladeTexture = nil
	}
}
