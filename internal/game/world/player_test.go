package world

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func slope(x, z float32) float32 { return 0.5*x + 1 }

func TestPlayerKeyboardMove(t *testing.T) {
	tests := []struct {
		name         string
		moveX, moveZ float32
		wantX, wantZ float32
	}{
		{"forward", 0, 1, 0, 8},
		{"strafe", -1, 0, -8, 0},
		{"diagonal is normalised", 1, 1, 8 / math.Sqrt2, 8 / math.Sqrt2},
		{"half speed", 0.5, 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(0, 0, nil)
			p.Update(1, tt.moveX, tt.moveZ)
			if !mgl32.FloatEqualThreshold(p.Position.X(), tt.wantX, 1e-4) ||
				!mgl32.FloatEqualThreshold(p.Position.Z(), tt.wantZ, 1e-4) {
				t.Errorf("position = %v, want (%v, %v)", p.Position, tt.wantX, tt.wantZ)
			}
			if !p.IsMoving {
				t.Error("IsMoving = false after a move")
			}
		})
	}
}

func TestPlayerFollowsGround(t *testing.T) {
	p := NewPlayer(2, 0, slope)
	if p.Position.Y() != 2 {
		t.Fatalf("initial height = %v, want 2", p.Position.Y())
	}
	p.Update(0.5, 1, 0)
	if want := slope(p.Position.X(), 0); p.Position.Y() != want {
		t.Errorf("height = %v, want %v", p.Position.Y(), want)
	}

	p = NewPlayer(0, 0, func(x, z float32) float32 { return float32(math.NaN()) })
	if p.Position.Y() != 0 {
		t.Errorf("NaN ground height gave y = %v", p.Position.Y())
	}
}

func TestPlayerDestination(t *testing.T) {
	p := NewPlayer(0, 0, nil)
	p.SetDestination(10, 0)

	p.Update(1, 0, 0)
	if p.Position.X() != 8 || !p.HasDestination {
		t.Fatalf("after 1s: x = %v, has destination = %v", p.Position.X(), p.HasDestination)
	}

	// Does not overshoot
	p.Update(1, 0, 0)
	if p.Position.X() != 10 {
		t.Fatalf("after 2s: x = %v, want 10", p.Position.X())
	}

	p.Update(1, 0, 0)
	if p.HasDestination || p.IsMoving {
		t.Error("destination not cleared on arrival")
	}

	// Keyboard input cancels the destination
	p.SetDestination(-10, 0)
	p.Update(0.1, 0, 1)
	if p.HasDestination {
		t.Error("keyboard move kept the destination")
	}
}

func TestPlayerExtentClamp(t *testing.T) {
	p := NewPlayer(0, 0, nil)
	p.Extent = 5
	p.Update(10, 1, -1)
	if p.Position.X() != 5 || p.Position.Z() != -5 {
		t.Errorf("position = %v, want clamped to (5, -5)", p.Position)
	}
}

func TestPlayerAutoWalk(t *testing.T) {
	p := NewPlayer(0, 20, nil)
	p.AutoWalk = true
	p.WalkRadius = 20

	for range 100 {
		p.Update(0.1, 0, 0)
		if d := math.Hypot(float64(p.Position.X()), float64(p.Position.Z())); math.Abs(d-20) > 1e-3 {
			t.Fatalf("left the walk circle: radius %v", d)
		}
	}
	if !p.IsMoving {
		t.Error("auto walk did not move")
	}

	// Held keys take over
	before := p.Position
	p.Update(0.1, 1, 0)
	if got := p.Position.X() - before.X(); !mgl32.FloatEqualThreshold(got, 0.8, 1e-4) {
		t.Errorf("keyboard step = %v, want 0.8", got)
	}
}

func TestPlayerIgnoresBadDelta(t *testing.T) {
	for _, dt := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		p := NewPlayer(1, 1, nil)
		p.Update(dt, 1, 0)
		if p.Position != (mgl32.Vec3{1, 0, 1}) {
			t.Errorf("dt %v moved the player to %v", dt, p.Position)
		}
	}
}

func TestPlayerTeleport(t *testing.T) {
	p := NewPlayer(0, 0, slope)
	p.SetDestination(5, 5)
	p.Teleport(4, 3)
	if p.HasDestination {
		t.Error("teleport kept the destination")
	}
	if p.Position != (mgl32.Vec3{4, 3, 3}) {
		t.Errorf("position = %v", p.Position)
	}
}
