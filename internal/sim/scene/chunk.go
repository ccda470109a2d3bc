package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

// Billboard is a camera-facing sprite placed by a builder.
type Billboard struct {
	Pos    mgl32.Vec3
	Size   float32
	TileID string
}

// Chunk is the build context handed to builders for one coordinate.
// Terrain is shared with the manager and must be treated as read-only.
type Chunk struct {
	Origin     geom.Vec2i
	Size       int
	BBox       geom.BBox
	Terrain    *terrain.Terrain
	Billboards []Billboard
}

func newChunk(origin geom.Vec2i, size int, t *terrain.Terrain) *Chunk {
	o := origin.Vec2()
	s := float32(size)
	return &Chunk{
		Origin:  origin,
		Size:    size,
		BBox:    geom.NewBBox(o.X(), o.Y(), o.X()+s, o.Y()+s),
		Terrain: t,
	}
}

// TerrainChunk returns the terrain chunk backing this coordinate, or nil.
func (c *Chunk) TerrainChunk() *terrain.TerrainChunk {
	if c.Terrain == nil {
		return nil
	}
	return c.Terrain.Chunk(c.Origin)
}

// VMChunk is the renderable output for one coordinate.
type VMChunk struct {
	Origin    geom.Vec2i
	Size      int
	Batches2D []*batch.Batch2D
	Batches3D []*batch.Batch3D
}

func (v *VMChunk) IsEmpty() bool {
	for _, b := range v.Batches2D {
		if !b.IsEmpty() {
			return false
		}
	}
	for _, b := range v.Batches3D {
		if !b.IsEmpty() {
			return false
		}
	}
	return true
}

// Builder populates a freshly constructed chunk pair from the map and assets.
type Builder interface {
	Build(m *vmap.Map, a *catalogs.Assets, ch *Chunk, vm *VMChunk)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(m *vmap.Map, a *catalogs.Assets, ch *Chunk, vm *VMChunk)

func (f BuilderFunc) Build(m *vmap.Map, a *catalogs.Assets, ch *Chunk, vm *VMChunk) {
	f(m, a, ch, vm)
}
