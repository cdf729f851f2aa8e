package grass

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testBatch(n int) *InstanceBatch {
	gen := NewGenerator(nil)
	return gen.Generate(GenerateRequest{Count: n, BladesPerCluster: 1, Region: NewBox(0, 0, 10), Seed: uint64(n)})
}

func TestGetChunkNotReady(t *testing.T) {
	dev := &fakeDevice{}
	m := NewChunkManager(dev, nil)
	if c := m.GetChunk(GridKey(0, 0), TierHigh, testBatch(4), NewBox(0, 0, 10).Rect); c != nil {
		t.Fatal("GetChunk without geometry or materials returned a chunk")
	}

	vs := NewVariantSet(DefaultShapeParams())
	for tier := range LODTier(NumTiers) {
		g, _ := dev.NewGeometry(vs.Get(tier))
		m.SetGeometry(tier, g)
	}
	if c := m.GetChunk(GridKey(0, 0), TierHigh, testBatch(4), NewBox(0, 0, 10).Rect); c != nil {
		t.Fatal("GetChunk without materials returned a chunk")
	}
	if len(dev.meshes) != 0 {
		t.Errorf("%d meshes allocated before ready", len(dev.meshes))
	}
}

func TestGetChunkAllocationFailure(t *testing.T) {
	dev := &fakeDevice{failMeshes: true}
	m := readyManager(t, dev, nil)
	if c := m.GetChunk(GridKey(0, 0), TierHigh, testBatch(4), Rect{MaxX: 1, MaxZ: 1}); c != nil {
		t.Fatal("GetChunk returned a chunk after the device failed")
	}
	if m.ActiveCount() != 0 {
		t.Errorf("active = %d, want 0", m.ActiveCount())
	}
}

func TestGetChunkReturnsActive(t *testing.T) {
	dev := &fakeDevice{}
	scene := newFakeScene()
	m := readyManager(t, dev, scene)

	key := GridKey(2, -1)
	a := m.GetChunk(key, TierMedium, testBatch(10), CellRect(2, -1, 10))
	if a == nil {
		t.Fatal("GetChunk returned nil")
	}
	b := m.GetChunk(key, TierMedium, testBatch(20), CellRect(2, -1, 10))
	if a != b {
		t.Error("second GetChunk for an active key built a new chunk")
	}
	if a.Instances != 10 || a.Tier != TierMedium || a.Key != key {
		t.Errorf("chunk = %+v", a)
	}
	if len(dev.meshes) != 1 || scene.attaches != 1 {
		t.Errorf("meshes = %d, attaches = %d, want 1 and 1", len(dev.meshes), scene.attaches)
	}
	if !scene.attached[a.Mesh] {
		t.Error("chunk mesh not attached to the scene")
	}
}

func TestPoolReuseIdentity(t *testing.T) {
	dev := &fakeDevice{}
	scene := newFakeScene()
	m := readyManager(t, dev, scene)

	first := m.GetChunk(GridKey(0, 0), TierHigh, testBatch(8), CellRect(0, 0, 10))
	mesh := first.Mesh
	if !m.ReturnChunk(GridKey(0, 0)) {
		t.Fatal("ReturnChunk reported no active chunk")
	}
	if m.ActiveCount() != 0 || m.PooledCount() != 1 {
		t.Fatalf("active = %d, pooled = %d after return", m.ActiveCount(), m.PooledCount())
	}
	if scene.attached[mesh] {
		t.Error("returned chunk still attached")
	}
	if mesh.(*fakeMesh).destroyed {
		t.Error("returned chunk destroyed instead of pooled")
	}

	batch := testBatch(12)
	second := m.GetChunk(GridKey(5, 5), TierLow, batch, CellRect(5, 5, 10))
	if second.Mesh != mesh {
		t.Fatal("GetChunk allocated a new mesh while the pool was non-empty")
	}
	if len(dev.meshes) != 1 {
		t.Errorf("%d meshes allocated, want 1", len(dev.meshes))
	}
	fm := mesh.(*fakeMesh)
	if fm.batch != batch || fm.fills != 2 {
		t.Errorf("instance buffer not refilled: fills = %d", fm.fills)
	}
	low := m.geometries[TierLow]
	if fm.geometry != low {
		t.Error("pooled mesh kept the high-detail geometry")
	}
	if m.PooledCount() != 0 || m.ActiveCount() != 1 {
		t.Errorf("active = %d, pooled = %d", m.ActiveCount(), m.PooledCount())
	}
	if m.ReturnChunk(GridKey(0, 0)) {
		t.Error("ReturnChunk succeeded for an inactive key")
	}
}

func TestPoolNeverExceedsPeak(t *testing.T) {
	dev := &fakeDevice{}
	m := readyManager(t, dev, newFakeScene())
	rng := rand.New(rand.NewPCG(9, 9))

	for range 2000 {
		key := GridKey(rng.IntN(6), rng.IntN(6))
		if rng.IntN(2) == 0 {
			m.GetChunk(key, LODTier(rng.IntN(NumTiers)), testBatch(3), CellRect(key.X, key.Z, 10))
		} else {
			m.ReturnChunk(key)
		}
		if total := m.ActiveCount() + m.PooledCount(); total > m.Peak() {
			t.Fatalf("active+pooled = %d exceeds peak %d", total, m.Peak())
		}
		if len(dev.meshes) > m.Peak() {
			t.Fatalf("%d meshes allocated, peak %d", len(dev.meshes), m.Peak())
		}
	}
}

func TestSetGeometrySwapsPooledAndActive(t *testing.T) {
	dev := &fakeDevice{}
	m := readyManager(t, dev, nil)

	active := m.GetChunk(GridKey(0, 0), TierMedium, testBatch(4), CellRect(0, 0, 10))
	pooled := m.GetChunk(GridKey(1, 0), TierMedium, testBatch(4), CellRect(1, 0, 10))
	other := m.GetChunk(GridKey(2, 0), TierHigh, testBatch(4), CellRect(2, 0, 10))
	m.ReturnChunk(GridKey(1, 0))

	old := m.geometries[TierMedium].(*fakeGeometry)
	g, _ := dev.NewGeometry(BuildBlade(6, DefaultShapeParams()))
	m.SetGeometry(TierMedium, g)

	if active.Mesh.(*fakeMesh).geometry != g || pooled.Mesh.(*fakeMesh).geometry != g {
		t.Error("medium-tier meshes not moved to the new geometry")
	}
	if other.Mesh.(*fakeMesh).geometry == g {
		t.Error("high-tier mesh received medium geometry")
	}
	if !old.destroyed {
		t.Error("replaced geometry not destroyed")
	}
}

func TestChunkBounds(t *testing.T) {
	batch := &InstanceBatch{Instances: make([]Instance, 1), MinY: 2, MaxY: 5}
	b := ChunkBounds(Rect{MinX: -10, MinZ: -10, MaxX: 10, MaxZ: 10}, batch)

	want := Bounds{
		Min: mgl32.Vec3{-12, 2 - BoundsFootroom, -12},
		Max: mgl32.Vec3{12, 5 + BoundsHeadroom, 12},
	}
	if !b.Min.ApproxEqualThreshold(want.Min, 1e-4) || !b.Max.ApproxEqualThreshold(want.Max, 1e-4) {
		t.Errorf("ChunkBounds = %+v, want %+v", b, want)
	}
	if !b.Contains(mgl32.Vec3{11, 12, -11}) {
		t.Error("bounds do not cover the padded footprint")
	}

	empty := ChunkBounds(Rect{MaxX: 10, MaxZ: 10}, nil)
	if empty.Min.Y() != -BoundsFootroom || empty.Max.Y() != BoundsHeadroom {
		t.Errorf("empty batch bounds %+v", empty)
	}
}

func TestChunkKeyString(t *testing.T) {
	tests := []struct {
		key  ChunkKey
		want string
	}{
		{GridKey(3, -4), "3_-4"},
		{RingKey(0), "ring:0"},
		{RingKey(2), "ring:2"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestClearAndDestroy(t *testing.T) {
	dev := &fakeDevice{}
	scene := newFakeScene()
	m := readyManager(t, dev, scene)

	for i := range 4 {
		m.GetChunk(GridKey(i, 0), TierHigh, testBatch(2), CellRect(i, 0, 10))
	}
	m.ReturnChunk(GridKey(0, 0))
	if got := m.InstanceCount(); got != 6 {
		t.Errorf("InstanceCount = %d, want 6", got)
	}

	m.Clear()
	if m.ActiveCount() != 0 || m.PooledCount() != 0 {
		t.Errorf("active = %d, pooled = %d after Clear", m.ActiveCount(), m.PooledCount())
	}
	for i, mesh := range dev.meshes {
		if !mesh.destroyed {
			t.Errorf("mesh %d not destroyed", i)
		}
	}
	if len(scene.attached) != 0 {
		t.Errorf("%d meshes still attached", len(scene.attached))
	}
	if !m.Ready() {
		t.Error("Clear released geometries or materials")
	}

	m.Destroy()
	if m.Ready() {
		t.Error("manager still ready after Destroy")
	}
	for i, g := range dev.geometries {
		if !g.destroyed {
			t.Errorf("geometry %d not destroyed", i)
		}
	}
	for i, mat := range dev.materials {
		if !mat.destroyed {
			t.Errorf("material %d not destroyed", i)
		}
	}
}

func TestKeysSorted(t *testing.T) {
	m := readyManager(t, &fakeDevice{}, nil)
	for _, k := range []ChunkKey{RingKey(1), GridKey(1, 1), GridKey(-1, 2), RingKey(0), GridKey(1, 0)} {
		m.GetChunk(k, TierLow, testBatch(1), Rect{MaxX: 1, MaxZ: 1})
	}
	want := []ChunkKey{GridKey(-1, 2), GridKey(1, 0), GridKey(1, 1), RingKey(0), RingKey(1)}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
