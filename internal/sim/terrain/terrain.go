package terrain

import (
	"sort"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
)

// Terrain is the authoritative height lookup across chunks. Chunks are keyed by their
// grid-aligned origin (a multiple of ChunkSize).
type Terrain struct {
	ChunkSize int
	Chunks    map[geom.Vec2i]*TerrainChunk
}

func New(chunkSize int) *Terrain {
	if chunkSize <= 0 {
		chunkSize = 16
	}
	return &Terrain{
		ChunkSize: chunkSize,
		Chunks:    map[geom.Vec2i]*TerrainChunk{},
	}
}

// Keys returns the chunk origins in X-then-Y order.
func (t *Terrain) Keys() []geom.Vec2i {
	keys := make([]geom.Vec2i, 0, len(t.Chunks))
	for k := range t.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// MarkAllDirty flags every chunk for reprocessing.
func (t *Terrain) MarkAllDirty() {
	for _, ch := range t.Chunks {
		ch.MarkDirty()
	}
}

// Rechunk copies every stored cell into a new terrain with a different chunk size.
// Processed caches are not carried over; every resulting chunk is dirty.
func (t *Terrain) Rechunk(size int) *Terrain {
	out := New(size)
	for _, ch := range t.Chunks {
		for k, v := range ch.heights {
			w := ch.LocalToWorld(k)
			out.SetHeight(w.X, w.Y, v)
		}
		for k, s := range ch.sources {
			w := ch.LocalToWorld(k)
			out.GetOrCreateChunk(out.ChunkOrigin(w.X, w.Y)).SetSource(w.X, w.Y, s)
		}
		for k, b := range ch.blendModes {
			w := ch.LocalToWorld(k)
			out.GetOrCreateChunk(out.ChunkOrigin(w.X, w.Y)).SetBlendMode(w.X, w.Y, b)
		}
	}
	return out
}

// Fill sets every cell whose quad lies inside bbox to height h. Cells get src unless it is off.
func (t *Terrain) Fill(bbox geom.BBox, h float32, src batch.PixelSource) int {
	if bbox.IsEmpty() {
		return 0
	}
	x0, y0 := geom.FloorToInt(bbox.Min.X()), geom.FloorToInt(bbox.Min.Y())
	x1, y1 := geom.CeilToInt(bbox.Max.X()), geom.CeilToInt(bbox.Max.Y())
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			ch := t.GetOrCreateChunk(t.ChunkOrigin(x, y))
			ch.SetHeight(x, y, h)
			if !src.IsOff() {
				ch.SetSource(x, y, src)
			}
			n++
		}
	}
	return n
}
