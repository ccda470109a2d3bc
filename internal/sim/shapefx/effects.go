package shapefx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

const (
	KindFlatten = "flatten"
	KindRidge   = "ridge"
	KindTint    = "tint"
)

// Built-in graphs only rewrite cells that already exist in the working copy; they never
// invent terrain where the user painted none.

// Flatten pulls cells to a fixed height inside a sector, or along a linedef group within
// width/2. Cells within falloff of the edge are blended linearly back to their own height.
type Flatten struct {
	Height  float32
	Width   float32
	Falloff float32
}

func NewFlatten(def vmap.GraphDef) Flatten {
	return Flatten{
		Height:  def.Param("height", 0),
		Width:   def.Param("width", 1),
		Falloff: def.Param("falloff", 0),
	}
}

func (f Flatten) ModifySectorHeights(s *vmap.Sector, ctx *terrain.ModifyContext) {
	if ctx.Pass != terrain.PassHeight {
		return
	}
	poly := ctx.Map.Polygon(s)
	if len(poly) < 3 {
		return
	}
	for k, h := range ctx.Heights {
		p := ctx.Chunk.LocalToWorld(k).Vec2()
		if vmap.PointInPolygon(p, poly) {
			ctx.Heights[k] = f.Height
			continue
		}
		ctx.Heights[k] = f.blend(h, distanceToOutline(p, poly))
	}
}

func (f Flatten) ModifyLinedefHeights(lines []*vmap.Linedef, ctx *terrain.ModifyContext) {
	if ctx.Pass != terrain.PassHeight {
		return
	}
	segs := segments(ctx.Map, lines)
	if len(segs) == 0 {
		return
	}
	half := f.Width * 0.5
	for k, h := range ctx.Heights {
		d := distanceToSegments(ctx.Chunk.LocalToWorld(k).Vec2(), segs)
		if d <= half {
			ctx.Heights[k] = f.Height
			continue
		}
		ctx.Heights[k] = f.blend(h, d-half)
	}
}

// blend returns the height for a cell d units outside the flattened area.
func (f Flatten) blend(h, d float32) float32 {
	if f.Falloff <= 0 || d >= f.Falloff {
		return h
	}
	t := d / f.Falloff
	return f.Height + (h-f.Height)*t
}

// Ridge raises cells near a linedef group, peaking on the line and fading to zero at Width.
type Ridge struct {
	Height float32
	Width  float32
}

func NewRidge(def vmap.GraphDef) Ridge {
	return Ridge{Height: def.Param("height", 1), Width: def.Param("width", 2)}
}

func (Ridge) ModifySectorHeights(*vmap.Sector, *terrain.ModifyContext) {}

func (r Ridge) ModifyLinedefHeights(lines []*vmap.Linedef, ctx *terrain.ModifyContext) {
	if ctx.Pass != terrain.PassHeight || r.Width <= 0 {
		return
	}
	segs := segments(ctx.Map, lines)
	if len(segs) == 0 {
		return
	}
	for k := range ctx.Heights {
		d := distanceToSegments(ctx.Chunk.LocalToWorld(k).Vec2(), segs)
		if d >= r.Width {
			continue
		}
		ctx.Heights[k] += r.Height * (1 - d/r.Width)
	}
}

// Tint paints a palette colour into the baked texture. It only runs in the colorize pass.
type Tint struct {
	Color int
	Width float32
}

func NewTint(def vmap.GraphDef) Tint {
	return Tint{Color: int(def.Param("color", 0)), Width: def.Param("width", 1)}
}

func (t Tint) colour(ctx *terrain.ModifyContext) [4]uint8 {
	if ctx.Assets == nil {
		return [4]uint8{255, 255, 255, 255}
	}
	return ctx.Assets.Palette.Color(t.Color)
}

func (t Tint) ModifySectorHeights(s *vmap.Sector, ctx *terrain.ModifyContext) {
	if ctx.Pass != terrain.PassColorize || ctx.Baked == nil {
		return
	}
	poly := ctx.Map.Polygon(s)
	if len(poly) < 3 {
		return
	}
	c := t.colour(ctx)
	for k := range ctx.Heights {
		if vmap.PointInPolygon(ctx.Chunk.LocalToWorld(k).Vec2(), poly) {
			ctx.Baked.Set(k.X, k.Y, c)
		}
	}
}

func (t Tint) ModifyLinedefHeights(lines []*vmap.Linedef, ctx *terrain.ModifyContext) {
	if ctx.Pass != terrain.PassColorize || ctx.Baked == nil {
		return
	}
	segs := segments(ctx.Map, lines)
	if len(segs) == 0 {
		return
	}
	c := t.colour(ctx)
	half := t.Width * 0.5
	for k := range ctx.Heights {
		if distanceToSegments(ctx.Chunk.LocalToWorld(k).Vec2(), segs) <= half {
			ctx.Baked.Set(k.X, k.Y, c)
		}
	}
}

type segment struct{ a, b mgl32.Vec2 }

func segments(m *vmap.Map, lines []*vmap.Linedef) []segment {
	out := make([]segment, 0, len(lines))
	for _, l := range lines {
		a, b, ok := m.Endpoints(l)
		if !ok {
			continue
		}
		out = append(out, segment{a, b})
	}
	return out
}

func distanceToSegments(p mgl32.Vec2, segs []segment) float32 {
	best := float32(math.MaxFloat32)
	for _, s := range segs {
		if d := vmap.DistanceToSegment(p, s.a, s.b); d < best {
			best = d
		}
	}
	return best
}

func distanceToOutline(p mgl32.Vec2, poly []mgl32.Vec2) float32 {
	best := float32(math.MaxFloat32)
	for i := range poly {
		if d := vmap.DistanceToSegment(p, poly[i], poly[(i+1)%len(poly)]); d < best {
			best = d
		}
	}
	return best
}
