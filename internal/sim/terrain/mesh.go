package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
)

// BuildMesh triangulates every processed cell as a unit quad. Cells missing from the
// processed cache produce nothing, even when raw heights exist: processing must run
// before meshing.
//
// Corner heights are read through t so chunk seams match. Corners shared by
// neighbouring cells are emitted once. Vertices are (x, height, y); UVs span the chunk 0..1.
func (c *TerrainChunk) BuildMesh(t *Terrain) *batch.Batch3D {
	b := batch.NewBatch3D(batch.TerrainSource())
	if len(c.processed) == 0 {
		return b
	}
	height := c.GetHeight
	if t != nil {
		height = t.GetHeight
	}

	cells := make([]geom.Vec2i, 0, len(c.processed))
	for k := range c.processed {
		cells = append(cells, k)
	}
	geom.SortVec2i(cells)

	inv := 1 / float32(c.size)
	index := make(map[geom.Vec2i]uint32, len(cells)*2)
	vertex := func(w geom.Vec2i) uint32 {
		if i, ok := index[w]; ok {
			return i
		}
		i := uint32(len(b.Vertices))
		l := c.WorldToLocal(w)
		b.Vertices = append(b.Vertices, mgl32.Vec3{float32(w.X), height(w.X, w.Y), float32(w.Y)})
		b.UVs = append(b.UVs, mgl32.Vec2{float32(l.X) * inv, float32(l.Y) * inv})
		index[w] = i
		return i
	}

	for _, k := range cells {
		w := c.LocalToWorld(k)
		i00 := vertex(w)
		i10 := vertex(w.Add(geom.V2i(1, 0)))
		i11 := vertex(w.Add(geom.V2i(1, 1)))
		i01 := vertex(w.Add(geom.V2i(0, 1)))
		// Counter-clockwise seen from +Y.
		b.Indices = append(b.Indices, [3]uint32{i00, i01, i11}, [3]uint32{i00, i11, i10})
	}

	b.ComputeNormals()
	return b
}

// BuildMeshD2 is the flat ground rectangle covering the chunk, used by 2D views.
func (c *TerrainChunk) BuildMeshD2(t *Terrain) *batch.Batch2D {
	b := batch.NewBatch2D(batch.TerrainSource())
	o := c.origin.Vec2()
	s := float32(c.size)
	b.AddRect(o.X(), o.Y(), s, s)
	return b
}
