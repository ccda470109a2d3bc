package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/geom"
)

// ChunkOrigin returns the grid-aligned origin of the chunk containing world (x, y).
func (t *Terrain) ChunkOrigin(x, y int) geom.Vec2i {
	return geom.V2i(geom.FloorDiv(x, t.ChunkSize)*t.ChunkSize, geom.FloorDiv(y, t.ChunkSize)*t.ChunkSize)
}

func (t *Terrain) Chunk(origin geom.Vec2i) *TerrainChunk {
	return t.Chunks[origin]
}

// ChunkAt returns the chunk containing world (x, y), or nil.
func (t *Terrain) ChunkAt(x, y int) *TerrainChunk {
	return t.Chunks[t.ChunkOrigin(x, y)]
}

func (t *Terrain) GetOrCreateChunk(origin geom.Vec2i) *TerrainChunk {
	if ch, ok := t.Chunks[origin]; ok {
		return ch
	}
	ch := NewChunk(origin, t.ChunkSize)
	t.Chunks[origin] = ch
	return ch
}

// StoreChunk inserts or replaces ch at its grid-aligned origin and returns every
// origin it touched, sorted. A chunk that is off-grid, sized differently or holds
// cells outside its own square is split: the slot at its aligned origin is
// replaced by an empty chunk and each cell moves to the chunk owning its world
// position. Chunks that receive cells lose their processed cache and turn dirty.
func (t *Terrain) StoreChunk(ch *TerrainChunk) []geom.Vec2i {
	origin := t.ChunkOrigin(ch.origin.X, ch.origin.Y)
	if origin == ch.origin && ch.size == t.ChunkSize && ch.cellsInside() {
		t.Chunks[origin] = ch
		return []geom.Vec2i{origin}
	}

	t.Chunks[origin] = NewChunk(origin, t.ChunkSize)
	touched := map[geom.Vec2i]struct{}{origin: {}}
	owner := func(k geom.Vec2i) (*TerrainChunk, geom.Vec2i) {
		w := ch.LocalToWorld(k)
		o := t.ChunkOrigin(w.X, w.Y)
		dst := t.GetOrCreateChunk(o)
		if _, seen := touched[o]; !seen {
			touched[o] = struct{}{}
			dst.ClearProcessedHeights()
			dst.SetBakedTexture(nil)
		}
		return dst, w
	}
	for k, v := range ch.heights {
		dst, w := owner(k)
		dst.SetHeight(w.X, w.Y, v)
	}
	for k, s := range ch.sources {
		dst, w := owner(k)
		dst.SetSource(w.X, w.Y, s)
	}
	for k, b := range ch.blendModes {
		dst, w := owner(k)
		dst.SetBlendMode(w.X, w.Y, b)
	}
	for o := range touched {
		t.Chunks[o].MarkDirty()
	}
	return geom.SortedKeys(touched)
}

// GetHeight reads through the owning chunk so neighbouring chunks agree on shared corners.
func (t *Terrain) GetHeight(x, y int) float32 {
	ch := t.ChunkAt(x, y)
	if ch == nil {
		return 0
	}
	return ch.GetHeight(x, y)
}

func (t *Terrain) GetHeightUnprocessed(x, y int) (float32, bool) {
	ch := t.ChunkAt(x, y)
	if ch == nil {
		return 0, false
	}
	return ch.GetHeightUnprocessed(x, y)
}

func (t *Terrain) SetHeight(x, y int, v float32) {
	t.GetOrCreateChunk(t.ChunkOrigin(x, y)).SetHeight(x, y, v)
}

func (t *Terrain) Exists(x, y int) bool {
	ch := t.ChunkAt(x, y)
	return ch != nil && ch.Exists(x, y)
}

// SampleHeight interpolates bilinearly between the four surrounding grid heights.
func (t *Terrain) SampleHeight(x, y float32) float32 {
	x0, y0 := geom.FloorToInt(x), geom.FloorToInt(y)
	fx, fy := x-float32(x0), y-float32(y0)
	h00 := t.GetHeight(x0, y0)
	h10 := t.GetHeight(x0+1, y0)
	h01 := t.GetHeight(x0, y0+1)
	h11 := t.GetHeight(x0+1, y0+1)
	h0 := h00*(1-fx) + h10*fx
	h1 := h01*(1-fx) + h11*fx
	return h0*(1-fy) + h1*fy
}

// ComputeBounds covers the quads of every raw cell: a cell at (x, y) spans to (x+1, y+1).
// Returns an empty box when no chunk has cells.
func (t *Terrain) ComputeBounds() geom.BBox {
	bb := geom.EmptyBBox()
	for _, ch := range t.Chunks {
		for k := range ch.heights {
			w := ch.LocalToWorld(k)
			bb = bb.AddPoint(w.Vec2()).AddPoint(mgl32.Vec2{float32(w.X + 1), float32(w.Y + 1)})
		}
	}
	return bb
}
