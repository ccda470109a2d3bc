package scene

import (
	"scenemesh.ai/internal/sim/geom"
)

// ChunkCoords returns the origins of every size-aligned chunk needed to cover bbox.
// Chunk footprints are treated as closed squares [o, o+size], so a bbox edge lying exactly
// on a chunk boundary does not pull in the next chunk. An empty bbox yields no chunks.
func ChunkCoords(bbox geom.BBox, size int) map[geom.Vec2i]struct{} {
	out := map[geom.Vec2i]struct{}{}
	if size <= 0 || bbox.IsEmpty() {
		return out
	}
	x0 := geom.FloorDiv(geom.FloorToInt(bbox.Min.X()), size)
	y0 := geom.FloorDiv(geom.FloorToInt(bbox.Min.Y()), size)
	x1 := geom.CeilDiv(geom.CeilToInt(bbox.Max.X()), size)
	y1 := geom.CeilDiv(geom.CeilToInt(bbox.Max.Y()), size)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			out[geom.V2i(x*size, y*size)] = struct{}{}
		}
	}
	return out
}
