package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoadPriority(t *testing.T) {
	m := NewManager()
	m.AddFS("base", fstest.MapFS{
		"textures/blade.png": {Data: []byte("base")},
		"textures/only.png":  {Data: []byte("only")},
	})
	m.AddFS("mod", fstest.MapFS{
		"textures/blade.png": {Data: []byte("mod")},
	})

	tests := []struct {
		path string
		want string
	}{
		{"textures/blade.png", "mod"},
		{"./textures/only.png", "only"},
		{`textures\only.png`, "only"},
	}
	for _, tt := range tests {
		data, err := m.Load(tt.path)
		if err != nil {
			t.Fatalf("Load(%q): %v", tt.path, err)
		}
		if string(data) != tt.want {
			t.Errorf("Load(%q) = %q, want %q", tt.path, data, tt.want)
		}
	}

	if got := m.Roots(); len(got) != 2 || got[0] != "mod" {
		t.Errorf("Roots() = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	m := NewManager()
	m.AddFS("base", fstest.MapFS{})

	if _, err := m.Load("missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	for _, p := range []string{"", "../escape.png", "/abs.png"} {
		if _, err := m.Load(p); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%q) = %v, want an invalid path error", p, err)
		}
	}
}

func TestLoadCaches(t *testing.T) {
	m := NewManager()
	m.AddFS("base", fstest.MapFS{"a.txt": {Data: []byte("a")}})

	for range 3 {
		if _, err := m.Load("a.txt"); err != nil {
			t.Fatal(err)
		}
	}
	hits, misses := m.CacheStats()
	if hits != 2 || misses != 1 {
		t.Errorf("cache stats = %d hits, %d misses", hits, misses)
	}

	// A new root invalidates cached lookups
	m.AddFS("override", fstest.MapFS{"a.txt": {Data: []byte("b")}})
	if data, _ := m.Load("a.txt"); string(data) != "b" {
		t.Errorf("cached data survived a new root: %q", data)
	}
}

func TestAddDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "textures"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "textures", "blade.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.AddDir(dir); err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	if data, err := m.Load("textures/blade.png"); err != nil || string(data) != "png" {
		t.Errorf("Load = %q, %v", data, err)
	}

	if err := m.AddDir(filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error for a missing directory")
	}
	if err := m.AddDir(filepath.Join(dir, "textures", "blade.png")); err == nil {
		t.Error("expected error for a file root")
	}

	m.Close()
	if _, err := m.Load("textures/blade.png"); err == nil {
		t.Error("Load after Close succeeded")
	}
}
