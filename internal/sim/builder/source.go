package builder

import (
	"strconv"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/vmap"
)

// Linedef properties read by the builders.
const (
	PropTile          = "tile"
	PropColor         = "color" // palette index
	PropLineWidth     = "line_width"
	PropWallHeight    = "wall_height"
	PropBillboard     = "billboard" // tile id, on vertices
	PropBillboardSize = "billboard_size"
)

// sourceFor picks a pixel source from props: a known tile wins, then a palette index,
// then palette entry 0.
func sourceFor(p vmap.Properties, a *catalogs.Assets) batch.PixelSource {
	if id := p.Get(PropTile); id != "" {
		if _, ok := a.Tile(id); ok {
			return batch.TileSource(id)
		}
	}
	idx := 0
	if s := p.Get(PropColor); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			idx = v
		}
	}
	if a == nil {
		return batch.ColorSource([4]uint8{255, 255, 255, 255})
	}
	return batch.ColorSource(a.Palette.Color(idx))
}

// batchSet keeps one batch per source, in first-use order.
type batchSet[B any] struct {
	order []batch.PixelSource
	by    map[batch.PixelSource]*B
	mk    func(batch.PixelSource) *B
}

func newBatchSet[B any](mk func(batch.PixelSource) *B) *batchSet[B] {
	return &batchSet[B]{by: map[batch.PixelSource]*B{}, mk: mk}
}

func (s *batchSet[B]) get(src batch.PixelSource) *B {
	if b, ok := s.by[src]; ok {
		return b
	}
	b := s.mk(src)
	s.by[src] = b
	s.order = append(s.order, src)
	return b
}

func (s *batchSet[B]) list() []*B {
	out := make([]*B, 0, len(s.order))
	for _, src := range s.order {
		out = append(out, s.by[src])
	}
	return out
}
