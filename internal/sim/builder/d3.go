package builder

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/vmap"
)

// D3 extrudes linedefs with a positive wall_height into vertical quads standing on the
// terrain and places billboards for vertices carrying a billboard tile.
//
// Terrain meshes are not built here; the manager's final pass does that once every
// chunk has been processed.
type D3 struct{}

func (D3) Build(m *vmap.Map, a *catalogs.Assets, ch *scene.Chunk, vm *scene.VMChunk) {
	if m == nil {
		return
	}
	ground := func(p mgl32.Vec2) float32 {
		if ch.Terrain == nil {
			return 0
		}
		return ch.Terrain.SampleHeight(p.X(), p.Y())
	}

	set := newBatchSet(batch.NewBatch3D)
	for i := range m.Linedefs {
		l := &m.Linedefs[i]
		h := l.Props.Float(PropWallHeight, 0)
		if h <= 0 {
			continue
		}
		p0, p1, ok := m.Endpoints(l)
		if !ok || p0 == p1 || !m.LinedefBBox(l).Intersects(ch.BBox) {
			continue
		}
		g0, g1 := ground(p0), ground(p1)
		set.get(sourceFor(l.Props, a)).AddQuad(
			[4]mgl32.Vec3{
				{p0.X(), g0, p0.Y()},
				{p1.X(), g1, p1.Y()},
				{p1.X(), g1 + h, p1.Y()},
				{p0.X(), g0 + h, p0.Y()},
			},
			[4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		)
	}
	for _, b := range set.list() {
		b.ComputeNormals()
		vm.Batches3D = append(vm.Batches3D, b)
	}

	// Billboards belong to the chunk whose half-open square holds the vertex.
	ox, oy := float32(ch.Origin.X), float32(ch.Origin.Y)
	s := float32(ch.Size)
	for _, v := range m.Vertices {
		id := v.Props.Get(PropBillboard)
		if id == "" {
			continue
		}
		if v.X < ox || v.X >= ox+s || v.Y < oy || v.Y >= oy+s {
			continue
		}
		size := float32(1)
		if t, ok := a.Tile(id); ok && t.Scale > 0 {
			size = t.Scale
		}
		size = v.Props.Float(PropBillboardSize, size)
		ch.Billboards = append(ch.Billboards, scene.Billboard{
			Pos:    mgl32.Vec3{v.X, ground(v.Pos()), v.Y},
			Size:   size,
			TileID: id,
		})
	}
}
