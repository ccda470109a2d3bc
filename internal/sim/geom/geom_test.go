package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFloorCeilDiv(t *testing.T) {
	cases := []struct {
		a, b        int
		floor, ceil int
	}{
		{0, 16, 0, 0},
		{15, 16, 0, 1},
		{16, 16, 1, 1},
		{31, 16, 1, 2},
		{-1, 16, -1, 0},
		{-16, 16, -1, -1},
		{-17, 16, -2, -1},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.floor {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.floor)
		}
		if got := CeilDiv(c.a, c.b); got != c.ceil {
			t.Fatalf("CeilDiv(%d,%d)=%d want %d", c.a, c.b, got, c.ceil)
		}
	}
	if Mod(-1, 16) != 15 {
		t.Fatalf("Mod(-1,16)=%d want 15", Mod(-1, 16))
	}
}

func TestBBox_UnionAndIntersect(t *testing.T) {
	e := EmptyBBox()
	if !e.IsEmpty() {
		t.Fatalf("expected empty bbox")
	}
	a := NewBBox(0, 0, 10, 10)
	if got := e.Union(a); got != a {
		t.Fatalf("union with empty: got %+v want %+v", got, a)
	}
	b := NewBBox(12, 12, 20, 20)
	if a.Intersects(b) {
		t.Fatalf("boxes should not intersect")
	}
	if !a.Expand(2).Intersects(b) {
		t.Fatalf("expanded box should touch")
	}
	u := a.Union(b)
	if u.Min != (mgl32.Vec2{0, 0}) || u.Max != (mgl32.Vec2{20, 20}) {
		t.Fatalf("union=%+v", u)
	}
	if e.Intersects(a) {
		t.Fatalf("empty box must not intersect")
	}
}

func TestSortedKeys(t *testing.T) {
	set := map[Vec2i]struct{}{{16, 0}: {}, {0, 16}: {}, {0, 0}: {}}
	got := SortedKeys(set)
	want := []Vec2i{{0, 0}, {0, 16}, {16, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys[%d]=%v want %v", i, got[i], want[i])
		}
	}
}
