package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// texRepeat is the world distance covered by one repeat of the ground texture.
const texRepeat = 8.0

// BuildMesh creates the ground mesh from a heightfield. Every grid point is
// one vertex; each cell is two triangles.
func BuildMesh(h *Heightfield) *Mesh {
	cells := h.Cells
	stride := cells + 1

	bounds := Bounds{
		Min: mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))},
		Max: mgl32.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))},
	}

	vertices := make([]Vertex, 0, stride*stride)
	for z := range stride {
		for x := range stride {
			p := mgl32.Vec3{
				h.Origin + float32(x)*h.CellSize,
				h.Sample(x, z),
				h.Origin + float32(z)*h.CellSize,
			}
			updateBounds(&bounds, p)
			vertices = append(vertices, Vertex{
				Position: p,
				TexCoord: mgl32.Vec2{p.X() / texRepeat, p.Z() / texRepeat},
			})
		}
	}

	indices := make([]uint32, 0, cells*cells*6)
	for z := range cells {
		for x := range cells {
			// Corners: 0=NW(x,z) 1=NE 2=SW(x,z+1) 3=SE
			i0 := uint32(z*stride + x)
			i1 := i0 + 1
			i2 := i0 + uint32(stride)
			i3 := i2 + 1
			indices = append(indices,
				i0, i2, i1,
				i1, i2, i3,
			)
		}
	}

	accumulateNormals(vertices, indices)
	SmoothNormals(vertices)

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
	}
}

// accumulateNormals sums face normals onto each vertex and normalizes.
func accumulateNormals(vertices []Vertex, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa := vertices[a].Position
		n := vertices[b].Position.Sub(pa).Cross(vertices[c].Position.Sub(pa))
		vertices[a].Normal = vertices[a].Normal.Add(n)
		vertices[b].Normal = vertices[b].Normal.Add(n)
		vertices[c].Normal = vertices[c].Normal.Add(n)
	}
	for i := range vertices {
		vertices[i].Normal = normalize(vertices[i].Normal)
	}
}

// SmoothNormals averages normals at shared vertex positions.
// Meshes stitched from several grids get seamless lighting across the seams.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		key := [3]int32{
			int32(vertices[i].Position[0] / epsilon),
			int32(vertices[i].Position[1] / epsilon),
			int32(vertices[i].Position[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, indices := range posMap {
		if len(indices) < 2 {
			continue
		}

		var sum mgl32.Vec3
		for _, idx := range indices {
			sum = sum.Add(vertices[idx].Normal)
		}

		avg := normalize(sum)
		for _, idx := range indices {
			vertices[idx].Normal = avg
		}
	}
}

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 0.0001 {
		return mgl32.Vec3{0, 1, 0}
	}
	return v.Normalize()
}
