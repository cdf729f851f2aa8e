package picking

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestScreenToRayCentre(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	inv := proj.Mul4(view).Inv()

	r := ScreenToRay(50, 50, 100, 100, inv)
	if d := r.Direction; abs(d.X()) > 1e-4 || abs(d.Y()+1) > 1e-4 || abs(d.Z()) > 1e-4 {
		t.Errorf("direction = %v, want straight down", r.Direction)
	}
	x, z, ok := r.IntersectPlaneY(0)
	if !ok || abs(x) > 1e-3 || abs(z) > 1e-3 {
		t.Errorf("plane hit = (%v, %v, %v), want origin", x, z, ok)
	}

	// Degenerate viewport
	if r := ScreenToRay(1, 1, 0, 0, inv); r.Direction.Len() == 0 {
		t.Error("zero viewport gave a zero direction")
	}
}

func TestIntersectPlaneY(t *testing.T) {
	tests := []struct {
		name   string
		ray    Ray
		wantOK bool
		wantX  float32
	}{
		{"down", Ray{mgl32.Vec3{1, 5, 2}, mgl32.Vec3{0, -1, 0}}, true, 1},
		{"slanted", Ray{mgl32.Vec3{0, 4, 0}, mgl32.Vec3{1, -1, 0}.Normalize()}, true, 4},
		{"parallel", Ray{mgl32.Vec3{0, 4, 0}, mgl32.Vec3{1, 0, 0}}, false, 0},
		{"away", Ray{mgl32.Vec3{0, 4, 0}, mgl32.Vec3{0, 1, 0}}, false, 0},
	}
	for _, tt := range tests {
		x, _, ok := tt.ray.IntersectPlaneY(0)
		if ok != tt.wantOK || (ok && abs(x-tt.wantX) > 1e-4) {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", tt.name, x, ok, tt.wantX, tt.wantOK)
		}
	}
}

func TestIntersectAABB(t *testing.T) {
	lo, hi := mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}
	tests := []struct {
		name  string
		ray   Ray
		want  float32
		isHit bool
	}{
		{"front", Ray{mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}}, 4, true},
		{"inside", Ray{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}}, 1, true},
		{"miss", Ray{mgl32.Vec3{0, 3, -5}, mgl32.Vec3{0, 0, 1}}, 0, false},
		{"behind", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}}, 0, false},
	}
	for _, tt := range tests {
		got, hit := tt.ray.IntersectAABB(lo, hi)
		if hit != tt.isHit || (hit && abs(got-tt.want) > 1e-5) {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", tt.name, got, hit, tt.want, tt.isHit)
		}
	}
}

func TestIntersectGround(t *testing.T) {
	ramp := func(x, z float32) float32 { return 0.25 * x }
	r := Ray{mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, -1, 0}.Normalize()}

	p, ok := r.IntersectGround(ramp, 100, 0.5)
	if !ok {
		t.Fatal("no ground hit")
	}
	// 10 - x = 0.25x
	if abs(p.X()-8) > 1e-2 || abs(p.Y()-2) > 1e-2 {
		t.Errorf("hit = %v, want (8, 2, 0)", p)
	}

	if _, ok := r.IntersectGround(ramp, 5, 0.5); ok {
		t.Error("hit beyond max distance")
	}
	under := Ray{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, -1, 0}}
	if _, ok := under.IntersectGround(ramp, 100, 0.5); ok {
		t.Error("ray starting below ground reported a hit")
	}
	if _, ok := r.IntersectGround(nil, 100, 0.5); ok {
		t.Error("nil height function reported a hit")
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
