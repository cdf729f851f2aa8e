package terrain

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Generate samples fractal simplex noise on the configured grid.
func Generate(cfg Config) *Heightfield {
	cells := max(cfg.Resolution, 1)
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	octaves := max(cfg.Octaves, 1)

	noise := opensimplex.New(cfg.Seed)
	hf := &Heightfield{
		Heights:  make([]float32, (cells+1)*(cells+1)),
		Cells:    cells,
		CellSize: size / float32(cells),
		Origin:   -size / 2,
	}

	for z := 0; z <= cells; z++ {
		for x := 0; x <= cells; x++ {
			wx := float64(hf.Origin + float32(x)*hf.CellSize)
			wz := float64(hf.Origin + float32(z)*hf.CellSize)

			var sum, norm float64
			amp := 1.0
			freq := float64(cfg.Frequency)
			for range octaves {
				sum += noise.Eval2(wx*freq, wz*freq) * amp
				norm += amp
				amp *= float64(cfg.Persistence)
				freq *= float64(cfg.Lacunarity)
			}
			hf.Heights[z*(cells+1)+x] = float32(sum/norm) * cfg.Amplitude
		}
	}
	return hf
}

// Flat returns a heightfield of constant height.
func Flat(size float32, cells int, height float32) *Heightfield {
	cells = max(cells, 1)
	hf := &Heightfield{
		Heights:  make([]float32, (cells+1)*(cells+1)),
		Cells:    cells,
		CellSize: size / float32(cells),
		Origin:   -size / 2,
	}
	for i := range hf.Heights {
		hf.Heights[i] = height
	}
	return hf
}

// Sample returns the stored height at grid point (x, z), clamped to the grid.
func (h *Heightfield) Sample(x, z int) float32 {
	x = clampi(x, 0, h.Cells)
	z = clampi(z, 0, h.Cells)
	return h.Heights[z*(h.Cells+1)+x]
}

// HeightAt returns the bilinearly interpolated height at a world position.
// Positions outside the grid are clamped to the edge.
func (h *Heightfield) HeightAt(worldX, worldZ float32) float32 {
	if h == nil || len(h.Heights) == 0 || h.CellSize <= 0 {
		return 0
	}

	cellFX := (worldX - h.Origin) / h.CellSize
	cellFZ := (worldZ - h.Origin) / h.CellSize
	if math.IsNaN(float64(cellFX)) || math.IsNaN(float64(cellFZ)) {
		return 0
	}
	cellFX = clampf(cellFX, 0, float32(h.Cells))
	cellFZ = clampf(cellFZ, 0, float32(h.Cells))

	cellX := min(int(cellFX), h.Cells-1)
	cellZ := min(int(cellFZ), h.Cells-1)

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracZ := clampf(cellFZ-float32(cellZ), 0, 1)

	// Lerp along X on both Z edges, then along Z
	south := h.Sample(cellX, cellZ)*(1-fracX) + h.Sample(cellX+1, cellZ)*fracX
	north := h.Sample(cellX, cellZ+1)*(1-fracX) + h.Sample(cellX+1, cellZ+1)*fracX
	return south*(1-fracZ) + north*fracZ
}

// Extent returns the world-space half size of the grid.
func (h *Heightfield) Extent() float32 {
	return float32(h.Cells) * h.CellSize / 2
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
