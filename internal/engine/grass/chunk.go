package grass

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-grass/internal/logger"
)

// Chunk bounding volume padding. Wind moves vertices well outside the resting
// blade, so the boxes are deliberately oversized.
const (
	BoundsHorizontalScale = 1.2
	BoundsHeadroom        = 10.0
	BoundsFootroom        = 1.0
)

// ChunkKey identifies a spatial cell. Grid chunks use X/Z with Ring 0;
// LOD rings use Ring 1..n.
type ChunkKey struct {
	X, Z int
	Ring int
}

// GridKey returns the key of grid cell (x, z).
func GridKey(x, z int) ChunkKey { return ChunkKey{X: x, Z: z} }

// RingKey returns the key of the i-th LOD ring (0-based).
func RingKey(i int) ChunkKey { return ChunkKey{Ring: i + 1} }

func (k ChunkKey) String() string {
	if k.Ring > 0 {
		return fmt.Sprintf("ring:%d", k.Ring-1)
	}
	return fmt.Sprintf("%d_%d", k.X, k.Z)
}

// Chunk is a spatial cell owning one instanced mesh.
type Chunk struct {
	Key       ChunkKey
	Tier      LODTier
	Mesh      InstancedMesh
	Bounds    Bounds
	Instances int
}

// ChunkManager maps chunk keys to live meshes and recycles retired ones.
// A chunk is either active or pooled, never both.
type ChunkManager struct {
	device Device
	scene  SceneAttachment

	geometries [NumTiers]Geometry
	color      Material
	depth      Material

	active map[ChunkKey]*Chunk
	pool   []*Chunk
	peak   int
}

// NewChunkManager creates an empty manager. scene may be nil.
func NewChunkManager(device Device, scene SceneAttachment) *ChunkManager {
	return &ChunkManager{
		device: device,
		scene:  scene,
		active: make(map[ChunkKey]*Chunk),
	}
}

// Ready reports whether chunks can be built.
func (m *ChunkManager) Ready() bool {
	if m.color == nil || m.depth == nil {
		return false
	}
	for _, g := range m.geometries {
		if g == nil {
			return false
		}
	}
	return true
}

// SetMaterials installs the shared materials used by every chunk.
func (m *ChunkManager) SetMaterials(color, depth Material) {
	m.color = color
	m.depth = depth
}

// Materials returns the shared materials (nil until set).
func (m *ChunkManager) Materials() (color, depth Material) {
	return m.color, m.depth
}

// SetGeometry replaces the geometry of a tier on every active and pooled
// chunk of that tier, then destroys the previous geometry.
func (m *ChunkManager) SetGeometry(tier LODTier, g Geometry) {
	old := m.geometries[tier]
	m.geometries[tier] = g
	for _, c := range m.active {
		if c.Tier == tier {
			c.Mesh.SetGeometry(g)
		}
	}
	for _, c := range m.pool {
		if c.Tier == tier {
			c.Mesh.SetGeometry(g)
		}
	}
	if old != nil && old != g {
		old.Destroy()
	}
}

// GetChunk returns the active chunk for key, building it from batch when it
// is not active yet. A pooled mesh is reused (geometry and instance buffer
// refilled) before a new one is allocated. Returns nil when resources are not
// ready; callers retry on a later frame.
func (m *ChunkManager) GetChunk(key ChunkKey, tier LODTier, batch *InstanceBatch, footprint Rect) *Chunk {
	if c, ok := m.active[key]; ok {
		return c
	}
	if !m.Ready() || batch == nil {
		return nil
	}
	geom := m.geometries[tier]

	var c *Chunk
	if n := len(m.pool); n > 0 {
		c = m.pool[n-1]
		m.pool[n-1] = nil
		m.pool = m.pool[:n-1]
		c.Mesh.SetGeometry(geom)
		c.Mesh.SetInstances(batch)
		logger.Debug("chunk reused from pool",
			zap.Stringer("key", key),
			zap.Stringer("tier", tier),
			zap.Int("instances", batch.Len()),
		)
	} else {
		mesh, err := m.device.NewInstancedMesh(geom, m.color, m.depth, batch.Len())
		if err != nil {
			logger.Warn("chunk allocation failed", zap.Stringer("key", key), zap.Error(err))
			return nil
		}
		mesh.SetInstances(batch)
		c = &Chunk{Mesh: mesh}
		logger.Debug("chunk allocated",
			zap.Stringer("key", key),
			zap.Stringer("tier", tier),
			zap.Int("instances", batch.Len()),
		)
	}

	c.Key = key
	c.Tier = tier
	c.Instances = batch.Len()
	c.Bounds = ChunkBounds(footprint, batch)
	c.Mesh.SetBounds(c.Bounds)

	m.active[key] = c
	if m.scene != nil {
		m.scene.Attach(c.Mesh)
	}
	m.peak = max(m.peak, len(m.active))
	return c
}

// ReturnChunk retires the chunk for key to the pool without freeing its buffers.
func (m *ChunkManager) ReturnChunk(key ChunkKey) bool {
	c, ok := m.active[key]
	if !ok {
		return false
	}
	delete(m.active, key)
	if m.scene != nil {
		m.scene.Detach(c.Mesh)
	}
	m.pool = append(m.pool, c)
	return true
}

// ReturnAll retires every active chunk.
func (m *ChunkManager) ReturnAll() {
	for _, key := range m.Keys() {
		m.ReturnChunk(key)
	}
}

// Chunk returns the active chunk for key.
func (m *ChunkManager) Chunk(key ChunkKey) (*Chunk, bool) {
	c, ok := m.active[key]
	return c, ok
}

// Keys returns the active keys in a stable order.
func (m *ChunkManager) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(m.active))
	for k := range m.active {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Ring != b.Ring {
			return a.Ring < b.Ring
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return keys
}

// ActiveCount returns the number of active chunks.
func (m *ChunkManager) ActiveCount() int { return len(m.active) }

// PooledCount returns the number of pooled chunks.
func (m *ChunkManager) PooledCount() int { return len(m.pool) }

// Peak returns the highest number of simultaneously active chunks.
func (m *ChunkManager) Peak() int { return m.peak }

// InstanceCount returns the total instances across active chunks.
func (m *ChunkManager) InstanceCount() int {
	n := 0
	for _, c := range m.active {
		n += c.Instances
	}
	return n
}

// Clear destroys every active and pooled mesh. Geometries and materials stay.
func (m *ChunkManager) Clear() {
	for key, c := range m.active {
		if m.scene != nil {
			m.scene.Detach(c.Mesh)
		}
		c.Mesh.Destroy()
		delete(m.active, key)
	}
	for i, c := range m.pool {
		c.Mesh.Destroy()
		m.pool[i] = nil
	}
	m.pool = m.pool[:0]
}

// Destroy clears all chunks and releases geometries and materials.
func (m *ChunkManager) Destroy() {
	m.Clear()
	for i, g := range m.geometries {
		if g != nil {
			g.Destroy()
			m.geometries[i] = nil
		}
	}
	if m.color != nil {
		m.color.Destroy()
		m.color = nil
	}
	if m.depth != nil {
		m.depth.Destroy()
		m.depth = nil
	}
}

// ChunkBounds returns the oversized culling box for a chunk footprint.
func ChunkBounds(footprint Rect, batch *InstanceBatch) Bounds {
	cx, cz := footprint.Center()
	hx := footprint.Width() * 0.5 * BoundsHorizontalScale
	hz := footprint.Depth() * 0.5 * BoundsHorizontalScale

	var minY, maxY float32
	if batch != nil && batch.Len() > 0 {
		minY, maxY = batch.MinY, batch.MaxY
	}
	return Bounds{
		Min: mgl32.Vec3{cx - hx, minY - BoundsFootroom, cz - hz},
		Max: mgl32.Vec3{cx + hx, maxY + BoundsHeadroom, cz + hz},
	}
}
