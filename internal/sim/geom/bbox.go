package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BBox is an axis-aligned world-space box. Min/Max are inclusive.
// The zero value is a degenerate box at the origin; use EmptyBBox for an accumulator.
type BBox struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

func EmptyBBox() BBox {
	inf := float32(math.Inf(1))
	return BBox{
		Min: mgl32.Vec2{inf, inf},
		Max: mgl32.Vec2{-inf, -inf},
	}
}

func NewBBox(minX, minY, maxX, maxY float32) BBox {
	return BBox{Min: mgl32.Vec2{minX, minY}, Max: mgl32.Vec2{maxX, maxY}}
}

func (b BBox) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y()
}

func (b BBox) Width() float32  { return b.Max.X() - b.Min.X() }
func (b BBox) Height() float32 { return b.Max.Y() - b.Min.Y() }

// AddPoint grows the box to include p.
func (b BBox) AddPoint(p mgl32.Vec2) BBox {
	return BBox{
		Min: mgl32.Vec2{min(b.Min.X(), p.X()), min(b.Min.Y(), p.Y())},
		Max: mgl32.Vec2{max(b.Max.X(), p.X()), max(b.Max.Y(), p.Y())},
	}
}

func (b BBox) Union(o BBox) BBox {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return b.AddPoint(o.Min).AddPoint(o.Max)
}

// Expand grows the box by d world units on every side.
func (b BBox) Expand(d float32) BBox {
	if b.IsEmpty() {
		return b
	}
	return BBox{
		Min: mgl32.Vec2{b.Min.X() - d, b.Min.Y() - d},
		Max: mgl32.Vec2{b.Max.X() + d, b.Max.Y() + d},
	}
}

// Intersects reports whether two boxes overlap; touching edges count.
func (b BBox) Intersects(o BBox) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y()
}

func (b BBox) Contains(p mgl32.Vec2) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() && p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y()
}
