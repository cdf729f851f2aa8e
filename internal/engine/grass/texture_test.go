package grass

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// queued collects loads so tests control when they finish.
type queued struct {
	jobs []func()
}

func (q *queued) spawn(f func()) { q.jobs = append(q.jobs, f) }

func (q *queued) run(i int) { q.jobs[i]() }

func TestTextureLoaderReady(t *testing.T) {
	data := pngBytes(t, 8, 4)
	l := NewTextureLoader(func(string) ([]byte, error) { return data, nil }, 0)
	l.spawn = inline

	if l.State() != TextureIdle {
		t.Fatalf("initial state %s", l.State())
	}
	gen := l.Load("blade.png")
	if gen != 1 || l.State() != TextureLoading {
		t.Fatalf("after Load: generation %d, state %s", gen, l.State())
	}

	img, got, ok := l.Poll()
	if !ok || got != gen {
		t.Fatalf("Poll = (%v, %d, %v)", img != nil, got, ok)
	}
	if l.State() != TextureReady {
		t.Errorf("state %s, want ready", l.State())
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("image %dx%d, want 8x4", b.Dx(), b.Dy())
	}

	if _, _, ok := l.Poll(); ok {
		t.Error("second Poll resolved again")
	}
}

func TestTextureLoaderFallback(t *testing.T) {
	tests := []struct {
		name   string
		source TextureSource
		path   string
	}{
		{"read error", func(string) ([]byte, error) { return nil, errors.New("missing") }, "blade.png"},
		{"corrupt data", func(string) ([]byte, error) { return []byte("not an image"), nil }, "blade.png"},
		{"nil source", nil, "blade.png"},
		{"empty path", func(string) ([]byte, error) { return pngBytes(t, 2, 2), nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewTextureLoader(tt.source, 0)
			l.spawn = inline
			l.Load(tt.path)

			img, _, ok := l.Poll()
			if !ok {
				t.Fatal("failed load did not resolve")
			}
			if l.State() != TextureFailed || l.Err() == nil {
				t.Errorf("state %s, err %v", l.State(), l.Err())
			}
			if b := img.Bounds(); b.Dx() != fallbackTextureSize || b.Dy() != fallbackTextureSize {
				t.Errorf("fallback %dx%d", b.Dx(), b.Dy())
			}
			for i, v := range img.Pix {
				if v != 0xff {
					t.Fatalf("fallback byte %d = %#x, want opaque white", i, v)
				}
			}
		})
	}
}

func TestTextureLoaderStaleCompletion(t *testing.T) {
	sizes := map[string]int{"old.png": 2, "new.png": 6}
	l := NewTextureLoader(func(path string) ([]byte, error) {
		return pngBytes(t, sizes[path], sizes[path]), nil
	}, 0)
	q := &queued{}
	l.spawn = q.spawn

	l.Load("old.png")
	gen := l.Load("new.png")

	// The newer load lands first; the older one must not replace it.
	q.run(1)
	img, got, ok := l.Poll()
	if !ok || got != gen || img.Bounds().Dx() != 6 {
		t.Fatalf("Poll after new load = (%d, %v)", got, ok)
	}

	q.run(0)
	if _, _, ok := l.Poll(); ok {
		t.Error("stale completion resolved")
	}
	if l.Image().Bounds().Dx() != 6 || l.State() != TextureReady {
		t.Error("stale completion replaced the current texture")
	}
}

func TestTextureLoaderStaleBeforeCurrent(t *testing.T) {
	l := NewTextureLoader(func(path string) ([]byte, error) {
		if path == "old.png" {
			return nil, errors.New("gone")
		}
		return pngBytes(t, 3, 3), nil
	}, 0)
	q := &queued{}
	l.spawn = q.spawn

	l.Load("old.png")
	l.Load("new.png")

	q.run(0)
	if _, _, ok := l.Poll(); ok {
		t.Fatal("superseded failure resolved")
	}
	if l.State() != TextureLoading {
		t.Errorf("state %s, want loading", l.State())
	}

	q.run(1)
	if _, _, ok := l.Poll(); !ok || l.State() != TextureReady {
		t.Errorf("current load did not resolve: state %s", l.State())
	}
}

func TestTextureLoaderCloseReleasesLoads(t *testing.T) {
	data := pngBytes(t, 2, 2)
	l := NewTextureLoader(func(string) ([]byte, error) { return data, nil }, 0)
	var wg sync.WaitGroup
	l.spawn = func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	// More loads than the result buffer holds, none polled
	for range 20 {
		l.Load("blade.png")
	}
	l.Close()
	l.Close()

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("load goroutines still blocked after Close")
	}

	// The buffered newest generation may still resolve
	if _, gen, _ := l.Poll(); gen != 20 {
		t.Errorf("generation %d after Close, want 20", gen)
	}
}

func TestTextureLoaderFit(t *testing.T) {
	data := pngBytes(t, 64, 32)
	l := NewTextureLoader(func(string) ([]byte, error) { return data, nil }, 16)
	l.spawn = inline
	l.Load("big.png")
	img, _, ok := l.Poll()
	if !ok {
		t.Fatal("load did not resolve")
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("image %dx%d, want 16x8", b.Dx(), b.Dy())
	}
}

func TestTextureStateString(t *testing.T) {
	if TextureFailed.String() != "failed" || TextureState(9).String() != "TextureState(9)" {
		t.Error("unexpected TextureState names")
	}
}
