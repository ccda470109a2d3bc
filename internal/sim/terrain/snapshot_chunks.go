package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	snapv1 "scenemesh.ai/internal/persistence/snapshot"
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
)

// ExportChunks converts the persistent fields of every chunk into snapshot chunks,
// ordered by origin.
func ExportChunks(t *Terrain) []snapv1.TerrainChunkV1 {
	keys := t.Keys()
	out := make([]snapv1.TerrainChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := t.Chunks[k]
		if ch == nil {
			continue
		}
		out = append(out, exportChunk(ch))
	}
	return out
}

func exportChunk(ch *TerrainChunk) snapv1.TerrainChunkV1 {
	sc := snapv1.TerrainChunkV1{
		OX:   ch.origin.X,
		OY:   ch.origin.Y,
		Size: ch.size,
	}
	for _, k := range ch.Cells() {
		sc.Heights = append(sc.Heights, snapv1.HeightCellV1{X: k.X, Y: k.Y, H: ch.heights[k]})
	}
	for _, k := range sortedKeys(ch.sources) {
		src := ch.sources[k]
		sc.Sources = append(sc.Sources, snapv1.SourceCellV1{
			X: k.X, Y: k.Y, Kind: uint8(src.Kind), TileID: src.TileID, Color: src.Color,
		})
	}
	for _, k := range sortedKeys(ch.blendModes) {
		bm := ch.blendModes[k]
		sc.Blends = append(sc.Blends, snapv1.BlendCellV1{
			X: k.X, Y: k.Y, Kind: uint8(bm.Kind),
			Strength: bm.Strength, Strength2: bm.Strength2,
			OffsetX: bm.Offset.X(), OffsetY: bm.Offset.Y(),
		})
	}
	return sc
}

func sortedKeys[V any](m map[geom.Vec2i]V) []geom.Vec2i {
	out := make([]geom.Vec2i, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	geom.SortVec2i(out)
	return out
}

// ImportChunks rebuilds a terrain from snapshot chunks. Every chunk comes back dirty
// with no processed cache.
func ImportChunks(chunkSize int, chunks []snapv1.TerrainChunkV1) (*Terrain, error) {
	t := New(chunkSize)
	for _, sc := range chunks {
		if sc.Size != t.ChunkSize {
			return nil, fmt.Errorf("snapshot chunk size mismatch at (%d,%d): got %d want %d", sc.OX, sc.OY, sc.Size, t.ChunkSize)
		}
		origin := geom.V2i(sc.OX, sc.OY)
		if t.ChunkOrigin(sc.OX, sc.OY) != origin {
			return nil, fmt.Errorf("snapshot chunk origin (%d,%d) is not aligned to %d", sc.OX, sc.OY, t.ChunkSize)
		}
		if _, dup := t.Chunks[origin]; dup {
			return nil, fmt.Errorf("duplicate snapshot chunk at (%d,%d)", sc.OX, sc.OY)
		}
		ch := NewChunk(origin, t.ChunkSize)
		for _, c := range sc.Heights {
			ch.heights[geom.V2i(c.X, c.Y)] = c.H
		}
		for _, c := range sc.Sources {
			ch.sources[geom.V2i(c.X, c.Y)] = batch.PixelSource{Kind: batch.SourceKind(c.Kind), TileID: c.TileID, Color: c.Color}
		}
		for _, c := range sc.Blends {
			ch.blendModes[geom.V2i(c.X, c.Y)] = BlendMode{
				Kind:      BlendKind(c.Kind),
				Strength:  c.Strength,
				Strength2: c.Strength2,
				Offset:    mgl32.Vec2{c.OffsetX, c.OffsetY},
			}
		}
		ch.MarkDirty()
		t.Chunks[origin] = ch
	}
	return t, nil
}
