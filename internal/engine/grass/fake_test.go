package grass

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// In-memory Device used by every test in this package.

type fakeGeometry struct {
	blade     *BladeGeometry
	destroyed bool
}

func (g *fakeGeometry) Destroy() { g.destroyed = true }

type fakeTexture struct {
	w, h      int
	destroyed bool
}

func (t *fakeTexture) Destroy() { t.destroyed = true }

type fakeMaterial struct {
	kind      MaterialKind
	values    map[string]any
	writes    map[string]int
	destroyed bool
}

func newFakeMaterial(kind MaterialKind) *fakeMaterial {
	return &fakeMaterial{
		kind:   kind,
		values: make(map[string]any),
		writes: make(map[string]int),
	}
}

func (m *fakeMaterial) set(name string, v any) {
	m.values[name] = v
	m.writes[name]++
}

func (m *fakeMaterial) SetFloat(name string, v float32)     { m.set(name, v) }
func (m *fakeMaterial) SetBool(name string, v bool)         { m.set(name, v) }
func (m *fakeMaterial) SetVec3(name string, v mgl32.Vec3)   { m.set(name, v) }
func (m *fakeMaterial) SetMat4(name string, v mgl32.Mat4)   { m.set(name, v) }
func (m *fakeMaterial) SetTexture(name string, tex Texture) { m.set(name, tex) }
func (m *fakeMaterial) Destroy()                            { m.destroyed = true }

func (m *fakeMaterial) totalWrites() int {
	n := 0
	for _, c := range m.writes {
		n += c
	}
	return n
}

type fakeMesh struct {
	geometry  Geometry
	color     Material
	depth     Material
	capacity  int
	batch     *InstanceBatch
	bounds    Bounds
	fills     int
	destroyed bool
}

func (m *fakeMesh) SetGeometry(g Geometry) { m.geometry = g }

func (m *fakeMesh) SetInstances(batch *InstanceBatch) {
	m.batch = batch
	m.fills++
	m.capacity = max(m.capacity, batch.Len())
}

func (m *fakeMesh) SetBounds(b Bounds) { m.bounds = b }
func (m *fakeMesh) InstanceCount() int { return m.batch.Len() }
func (m *fakeMesh) Destroy()           { m.destroyed = true }

type fakeDevice struct {
	geometries []*fakeGeometry
	textures   []*fakeTexture
	materials  []*fakeMaterial
	meshes     []*fakeMesh

	failMeshes bool
}

func (d *fakeDevice) NewGeometry(g *BladeGeometry) (Geometry, error) {
	fg := &fakeGeometry{blade: g}
	d.geometries = append(d.geometries, fg)
	return fg, nil
}

func (d *fakeDevice) NewTexture(img *image.RGBA) (Texture, error) {
	t := &fakeTexture{w: img.Bounds().Dx(), h: img.Bounds().Dy()}
	d.textures = append(d.textures, t)
	return t, nil
}

func (d *fakeDevice) NewMaterial(kind MaterialKind) (Material, error) {
	m := newFakeMaterial(kind)
	d.materials = append(d.materials, m)
	return m, nil
}

func (d *fakeDevice) NewInstancedMesh(g Geometry, color, depth Material, capacity int) (InstancedMesh, error) {
	if d.failMeshes {
		return nil, errors.New("out of buffers")
	}
	m := &fakeMesh{geometry: g, color: color, depth: depth, capacity: capacity}
	d.meshes = append(d.meshes, m)
	return m, nil
}

type fakeScene struct {
	attached map[InstancedMesh]bool
	attaches int
	detaches int
}

func newFakeScene() *fakeScene {
	return &fakeScene{attached: make(map[InstancedMesh]bool)}
}

func (s *fakeScene) Attach(m InstancedMesh) {
	s.attached[m] = true
	s.attaches++
}

func (s *fakeScene) Detach(m InstancedMesh) {
	delete(s.attached, m)
	s.detaches++
}

// readyManager returns a chunk manager with geometry and materials installed.
func readyManager(t *testing.T, dev *fakeDevice, scene SceneAttachment) *ChunkManager {
	t.Helper()
	m := NewChunkManager(dev, scene)
	vs := NewVariantSet(DefaultShapeParams())
	for tier := range LODTier(NumTiers) {
		g, err := dev.NewGeometry(vs.Get(tier))
		if err != nil {
			t.Fatalf("NewGeometry: %v", err)
		}
		m.SetGeometry(tier, g)
	}
	color, _ := dev.NewMaterial(MaterialColor)
	depth, _ := dev.NewMaterial(MaterialDepth)
	m.SetMaterials(color, depth)
	return m
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 40, G: 160, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// inline runs texture loads synchronously.
func inline(f func()) { f() }
