package protocol

import (
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/scene"
)

// EncodeResult converts a drained scene result into its wire message. With full=false
// batches carry only their source and triangle count.
func EncodeResult(tick uint64, r scene.Result, full bool) (any, bool) {
	switch v := r.(type) {
	case scene.StartupResult:
		return SignalMsg{Type: TypeStartup, ProtocolVersion: Version, Tick: tick}, true
	case scene.ClearResult:
		return SignalMsg{Type: TypeClear, ProtocolVersion: Version, Tick: tick}, true
	case scene.QuitResult:
		return QuitMsg{Type: TypeQuit, ProtocolVersion: Version, Tick: tick}, true
	case scene.ChunkResult:
		return EncodeChunk(tick, v, full), true
	case scene.ProcessedHeightsResult:
		return ProcessedHeightsMsg{
			Type:            TypeProcessedHeights,
			ProtocolVersion: Version,
			Tick:            tick,
			Offset:          [2]int{v.Offset.X, v.Offset.Y},
			Cells:           heightCells(v.Heights),
		}, true
	case scene.UpdatedBatch3DResult:
		return Batch3DMsg{
			Type:            TypeBatch3D,
			ProtocolVersion: Version,
			Tick:            tick,
			Coord:           [2]int{v.Coord.X, v.Coord.Y},
			Batch:           EncodeBatch3D(v.Batch, full),
		}, true
	}
	return nil, false
}

func EncodeChunk(tick uint64, r scene.ChunkResult, full bool) ChunkMsg {
	msg := ChunkMsg{
		Type:            TypeChunk,
		ProtocolVersion: Version,
		Tick:            tick,
		Remaining:       r.Remaining,
		Total:           r.Total,
		Billboards:      make([]BillboardObs, 0, len(r.Billboards)),
		Batches2D:       []Batch2DObs{},
		Batches3D:       []Batch3DObs{},
	}
	if r.Chunk != nil {
		msg.Origin = [2]int{r.Chunk.Origin.X, r.Chunk.Origin.Y}
		msg.Size = r.Chunk.Size
		for _, b := range r.Chunk.Batches2D {
			msg.Batches2D = append(msg.Batches2D, EncodeBatch2D(b, full))
		}
		for _, b := range r.Chunk.Batches3D {
			msg.Batches3D = append(msg.Batches3D, EncodeBatch3D(b, full))
		}
	}
	for _, b := range r.Billboards {
		msg.Billboards = append(msg.Billboards, BillboardObs{Pos: b.Pos, Size: b.Size, TileID: b.TileID})
	}
	return msg
}

func EncodeSource(s batch.PixelSource) SourceObs {
	return SourceObs{Kind: s.Kind.String(), TileID: s.TileID, Color: s.Color}
}

func EncodeBatch2D(b *batch.Batch2D, full bool) Batch2DObs {
	out := Batch2DObs{Source: EncodeSource(b.Source), Triangles: len(b.Indices)}
	if !full {
		return out
	}
	out.Vertices = make([][2]float32, len(b.Vertices))
	for i, v := range b.Vertices {
		out.Vertices[i] = v
	}
	out.UVs = make([][2]float32, len(b.UVs))
	for i, v := range b.UVs {
		out.UVs[i] = v
	}
	out.Indices = flatten(b.Indices)
	return out
}

func EncodeBatch3D(b *batch.Batch3D, full bool) Batch3DObs {
	out := Batch3DObs{Source: EncodeSource(b.Source), Triangles: len(b.Indices)}
	if !full {
		return out
	}
	out.Vertices = make([][3]float32, len(b.Vertices))
	for i, v := range b.Vertices {
		out.Vertices[i] = v
	}
	out.UVs = make([][2]float32, len(b.UVs))
	for i, v := range b.UVs {
		out.UVs[i] = v
	}
	out.Normals = make([][3]float32, len(b.Normals))
	for i, v := range b.Normals {
		out.Normals[i] = v
	}
	out.Indices = flatten(b.Indices)
	return out
}

func flatten(tris [][3]uint32) []uint32 {
	out := make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

func heightCells(h map[geom.Vec2i]float32) []HeightCell {
	keys := make([]geom.Vec2i, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	geom.SortVec2i(keys)
	out := make([]HeightCell, 0, len(keys))
	for _, k := range keys {
		out = append(out, HeightCell{X: k.X, Y: k.Y, H: h[k]})
	}
	return out
}
