package builder

import (
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/vmap"
)

// D2 draws the top-down view: the terrain ground rectangle, then every linedef touching
// the chunk as a flat quad. Lines crossing several chunks are drawn whole in each.
type D2 struct {
	// LineWidth is used when a linedef has no line_width property. Zero means 1.
	LineWidth float32
}

func (d D2) Build(m *vmap.Map, a *catalogs.Assets, ch *scene.Chunk, vm *scene.VMChunk) {
	if tc := ch.TerrainChunk(); tc != nil {
		vm.Batches2D = append(vm.Batches2D, tc.BuildMeshD2(ch.Terrain))
	}
	if m == nil {
		return
	}
	def := d.LineWidth
	if def <= 0 {
		def = 1
	}
	set := newBatchSet(batch.NewBatch2D)
	for i := range m.Linedefs {
		l := &m.Linedefs[i]
		p0, p1, ok := m.Endpoints(l)
		if !ok || !m.LinedefBBox(l).Intersects(ch.BBox) {
			continue
		}
		w := l.Props.Float(PropLineWidth, def)
		if w <= 0 {
			continue
		}
		set.get(sourceFor(l.Props, a)).AddLine(p0, p1, w)
	}
	for _, b := range set.list() {
		if !b.IsEmpty() {
			vm.Batches2D = append(vm.Batches2D, b)
		}
	}
}
