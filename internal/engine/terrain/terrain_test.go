package terrain

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 32
	a := Generate(cfg)
	b := Generate(cfg)
	for i := range a.Heights {
		if a.Heights[i] != b.Heights[i] {
			t.Fatalf("sample %d differs between runs", i)
		}
	}

	cfg.Seed++
	c := Generate(cfg)
	same := true
	for i := range a.Heights {
		if a.Heights[i] != c.Heights[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced the same heightfield")
	}
}

func TestGenerateAmplitude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 64
	cfg.Amplitude = 3
	hf := Generate(cfg)

	if len(hf.Heights) != 65*65 {
		t.Fatalf("got %d samples, want %d", len(hf.Heights), 65*65)
	}
	for i, v := range hf.Heights {
		if math.IsNaN(float64(v)) || v < -3.001 || v > 3.001 {
			t.Fatalf("sample %d = %v outside [-3, 3]", i, v)
		}
	}
	if hf.Extent() != cfg.Size/2 {
		t.Errorf("extent %v, want %v", hf.Extent(), cfg.Size/2)
	}
}

func TestHeightAtInterpolates(t *testing.T) {
	hf := Flat(4, 2, 0) // Samples at -2, 0, 2
	// Raise the centre sample only
	hf.Heights[1*3+1] = 4

	tests := []struct {
		name string
		x, z float32
		want float32
	}{
		{"on raised sample", 0, 0, 4},
		{"corner", -2, -2, 0},
		{"half way along x", -1, 0, 2},
		{"half way along z", 0, 1, 2},
		{"cell centre", 1, 1, 1},
		{"outside clamps", 50, -50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hf.HeightAt(tt.x, tt.z)
			if math.Abs(float64(got-tt.want)) > 1e-5 {
				t.Errorf("HeightAt(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
			}
		})
	}
}

func TestHeightAtMatchesSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 16
	cfg.Size = 32
	hf := Generate(cfg)

	for z := 0; z <= hf.Cells; z += 3 {
		for x := 0; x <= hf.Cells; x += 5 {
			wx := hf.Origin + float32(x)*hf.CellSize
			wz := hf.Origin + float32(z)*hf.CellSize
			if got, want := hf.HeightAt(wx, wz), hf.Sample(x, z); math.Abs(float64(got-want)) > 1e-4 {
				t.Errorf("HeightAt at grid point (%d, %d) = %v, want %v", x, z, got, want)
			}
		}
	}
}

func TestHeightAtDegenerate(t *testing.T) {
	var nilField *Heightfield
	if h := nilField.HeightAt(1, 2); h != 0 {
		t.Errorf("nil heightfield height %v", h)
	}
	hf := Flat(10, 4, 3)
	if h := hf.HeightAt(float32(math.NaN()), 0); h != 0 {
		t.Errorf("NaN position height %v", h)
	}
	if h := hf.HeightAt(2.5, -1.25); h != 3 {
		t.Errorf("flat height %v, want 3", h)
	}
}

func TestBuildMesh(t *testing.T) {
	hf := Flat(10, 5, 1)
	hf.Heights[0] = -2
	mesh := BuildMesh(hf)

	if len(mesh.Vertices) != 36 || len(mesh.Indices) != 5*5*6 {
		t.Fatalf("mesh has %d vertices, %d indices", len(mesh.Vertices), len(mesh.Indices))
	}
	want := Bounds{Min: mgl32.Vec3{-5, -2, -5}, Max: mgl32.Vec3{5, 1, 5}}
	if mesh.Bounds != want {
		t.Errorf("bounds %+v, want %+v", mesh.Bounds, want)
	}
	for i, v := range mesh.Vertices {
		if math.Abs(float64(v.Normal.Len()-1)) > 1e-4 {
			t.Fatalf("vertex %d normal length %v", i, v.Normal.Len())
		}
		if v.Normal.Y() <= 0 {
			t.Fatalf("vertex %d normal %v points down", i, v.Normal)
		}
	}
	// Far corner is flat
	last := mesh.Vertices[len(mesh.Vertices)-1]
	if n := last.Normal; math.Abs(float64(n.X())) > 1e-5 || math.Abs(float64(n.Y()-1)) > 1e-5 || math.Abs(float64(n.Z())) > 1e-5 {
		t.Errorf("flat corner normal %v", last.Normal)
	}
}

func TestSmoothNormalsSharedPositions(t *testing.T) {
	verts := []Vertex{
		{Position: mgl32.Vec3{1, 0, 1}, Normal: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 1}, Normal: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{3, 0, 1}, Normal: mgl32.Vec3{0, 0, 1}},
	}
	SmoothNormals(verts)

	s := float32(1 / math.Sqrt2)
	want := mgl32.Vec3{s, s, 0}
	if !verts[0].Normal.ApproxEqualThreshold(want, 1e-5) || verts[0].Normal != verts[1].Normal {
		t.Errorf("shared normals %v %v, want %v", verts[0].Normal, verts[1].Normal, want)
	}
	if verts[2].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("lone vertex normal changed to %v", verts[2].Normal)
	}
}

func TestBoundsCenterRadius(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{-3, 0, -4}, Max: mgl32.Vec3{3, 0, 4}}
	if c := b.Center(); c != (mgl32.Vec3{}) {
		t.Errorf("center %v", c)
	}
	if r := b.Radius(); math.Abs(float64(r-5)) > 1e-5 {
		t.Errorf("radius %v, want 5", r)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero size", func(c *Config) { c.Size = 0 }, true},
		{"zero resolution", func(c *Config) { c.Resolution = 0 }, true},
		{"huge resolution", func(c *Config) { c.Resolution = MaxResolution + 1 }, true},
		{"negative octaves", func(c *Config) { c.Octaves = -1 }, true},
		{"zero octaves", func(c *Config) { c.Octaves = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}
