package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
)

// TerrainChunk holds one chunk's sparse height field and texturing hints.
//
// Every exported accessor takes world coordinates; the maps are keyed by
// local coordinates (world minus origin).
type TerrainChunk struct {
	origin geom.Vec2i
	size   int

	heights    map[geom.Vec2i]float32
	sources    map[geom.Vec2i]batch.PixelSource
	blendModes map[geom.Vec2i]BlendMode

	// Derived, never persisted. nil until the owner stores a processing result.
	processed map[geom.Vec2i]float32
	baked     *batch.Texture

	dirty bool
}

// NewChunk returns an empty chunk. New chunks start dirty: nothing has been processed yet.
func NewChunk(origin geom.Vec2i, size int) *TerrainChunk {
	return &TerrainChunk{
		origin:     origin,
		size:       size,
		heights:    map[geom.Vec2i]float32{},
		sources:    map[geom.Vec2i]batch.PixelSource{},
		blendModes: map[geom.Vec2i]BlendMode{},
		dirty:      true,
	}
}

func (c *TerrainChunk) Origin() geom.Vec2i { return c.origin }
func (c *TerrainChunk) Size() int          { return c.size }

func (c *TerrainChunk) WorldToLocal(w geom.Vec2i) geom.Vec2i { return w.Sub(c.origin) }
func (c *TerrainChunk) LocalToWorld(l geom.Vec2i) geom.Vec2i { return l.Add(c.origin) }

func (c *TerrainChunk) SetHeight(x, y int, v float32) {
	c.heights[c.WorldToLocal(geom.V2i(x, y))] = v
	c.dirty = true
}

// RemoveHeight deletes the raw cell, if any.
func (c *TerrainChunk) RemoveHeight(x, y int) {
	k := c.WorldToLocal(geom.V2i(x, y))
	if _, ok := c.heights[k]; !ok {
		return
	}
	delete(c.heights, k)
	c.dirty = true
}

func (c *TerrainChunk) GetHeightUnprocessed(x, y int) (float32, bool) {
	v, ok := c.heights[c.WorldToLocal(geom.V2i(x, y))]
	return v, ok
}

// GetHeight prefers the processed cache, then the raw value, then 0.
func (c *TerrainChunk) GetHeight(x, y int) float32 {
	k := c.WorldToLocal(geom.V2i(x, y))
	if c.processed != nil {
		if v, ok := c.processed[k]; ok {
			return v
		}
	}
	if v, ok := c.heights[k]; ok {
		return v
	}
	return 0
}

// Exists reports whether a raw height is stored at the world position.
func (c *TerrainChunk) Exists(x, y int) bool {
	_, ok := c.heights[c.WorldToLocal(geom.V2i(x, y))]
	return ok
}

func (c *TerrainChunk) SetSource(x, y int, src batch.PixelSource) {
	k := c.WorldToLocal(geom.V2i(x, y))
	if src.IsOff() {
		delete(c.sources, k)
	} else {
		c.sources[k] = src
	}
	c.dirty = true
}

func (c *TerrainChunk) GetSource(x, y int) (batch.PixelSource, bool) {
	src, ok := c.sources[c.WorldToLocal(geom.V2i(x, y))]
	return src, ok
}

// SetBlendMode stores a blend mode; NoBlend clears the cell.
func (c *TerrainChunk) SetBlendMode(x, y int, mode BlendMode) {
	k := c.WorldToLocal(geom.V2i(x, y))
	if mode.IsNone() {
		delete(c.blendModes, k)
	} else {
		c.blendModes[k] = mode
	}
	c.dirty = true
}

func (c *TerrainChunk) GetBlendMode(x, y int) BlendMode {
	return c.blendModes[c.WorldToLocal(geom.V2i(x, y))]
}

// SampleNormal estimates the surface normal by central differences with a fixed
// epsilon of one grid unit. Heights come from GetHeight, so processed values win.
// The result is Y-up; world y maps to z.
func (c *TerrainChunk) SampleNormal(x, y int) mgl32.Vec3 {
	hl := c.GetHeight(x-1, y)
	hr := c.GetHeight(x+1, y)
	hd := c.GetHeight(x, y-1)
	hu := c.GetHeight(x, y+1)
	return mgl32.Vec3{hl - hr, 2, hd - hu}.Normalize()
}

// Bounds is the chunk's world extent, size-1 units wide and tall from the origin.
func (c *TerrainChunk) Bounds() geom.BBox {
	o := c.origin.Vec2()
	s := float32(c.size - 1)
	return geom.NewBBox(o.X(), o.Y(), o.X()+s, o.Y()+s)
}

func (c *TerrainChunk) IsDirty() bool { return c.dirty }
func (c *TerrainChunk) MarkDirty()    { c.dirty = true }
func (c *TerrainChunk) ClearDirty()   { c.dirty = false }

// ProcessedHeights returns the processed cache (local keys) or nil. Callers must not mutate it.
func (c *TerrainChunk) ProcessedHeights() map[geom.Vec2i]float32 { return c.processed }

// SetProcessedHeights stores a processing result (local keys).
func (c *TerrainChunk) SetProcessedHeights(h map[geom.Vec2i]float32) { c.processed = h }

func (c *TerrainChunk) ClearProcessedHeights() { c.processed = nil }

func (c *TerrainChunk) BakedTexture() *batch.Texture     { return c.baked }
func (c *TerrainChunk) SetBakedTexture(t *batch.Texture) { c.baked = t }

// Cells returns the local keys of the raw height map in X-then-Y order.
func (c *TerrainChunk) Cells() []geom.Vec2i {
	out := make([]geom.Vec2i, 0, len(c.heights))
	for k := range c.heights {
		out = append(out, k)
	}
	geom.SortVec2i(out)
	return out
}

func (c *TerrainChunk) cloneHeights() map[geom.Vec2i]float32 {
	out := make(map[geom.Vec2i]float32, len(c.heights))
	for k, v := range c.heights {
		out[k] = v
	}
	return out
}

// Clone copies the persistent fields. The copy has no processed cache and is dirty.
func (c *TerrainChunk) Clone() *TerrainChunk {
	out := NewChunk(c.origin, c.size)
	out.heights = c.cloneHeights()
	for k, v := range c.sources {
		out.sources[k] = v
	}
	for k, v := range c.blendModes {
		out.blendModes[k] = v
	}
	return out
}

// cellsInside reports whether every stored key lies within [0,size) on both axes.
func (c *TerrainChunk) cellsInside() bool {
	in := func(k geom.Vec2i) bool { return k.X >= 0 && k.Y >= 0 && k.X < c.size && k.Y < c.size }
	for k := range c.heights {
		if !in(k) {
			return false
		}
	}
	for k := range c.sources {
		if !in(k) {
			return false
		}
	}
	for k := range c.blendModes {
		if !in(k) {
			return false
		}
	}
	return true
}
