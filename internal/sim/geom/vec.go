package geom

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec2i is an integer grid position. Chunk coordinates are always multiples of the chunk size.
type Vec2i struct {
	X int
	Y int
}

func V2i(x, y int) Vec2i { return Vec2i{X: x, Y: y} }

func (v Vec2i) Add(o Vec2i) Vec2i { return Vec2i{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2i) Sub(o Vec2i) Vec2i { return Vec2i{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2i) Vec2() mgl32.Vec2 { return mgl32.Vec2{float32(v.X), float32(v.Y)} }

// Less orders by X then Y.
func (v Vec2i) Less(o Vec2i) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	return v.Y < o.Y
}

func SortVec2i(vs []Vec2i) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
}

// SortedKeys returns the members of a coordinate set in X-then-Y order.
func SortedKeys(set map[Vec2i]struct{}) []Vec2i {
	out := make([]Vec2i, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	SortVec2i(out)
	return out
}
