package batch

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestComputeNormals_FlatQuadPointsUp(t *testing.T) {
	b := NewBatch3D(TerrainSource())
	b.AddQuad(
		[4]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}},
		[4]mgl32.Vec2{},
	)
	b.ComputeNormals()
	if len(b.Normals) != 4 {
		t.Fatalf("normals=%d want 4", len(b.Normals))
	}
	for i, n := range b.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("normal[%d]=%v want +Y", i, n)
		}
	}
}

func TestComputeNormals_DegenerateDefaultsUp(t *testing.T) {
	b := &Batch3D{
		Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		Indices:  [][3]uint32{{0, 1, 2}},
	}
	b.ComputeNormals()
	for _, n := range b.Normals {
		if n != (mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("normal=%v want +Y", n)
		}
	}
}

func TestBatch2D_RectAndLine(t *testing.T) {
	b := NewBatch2D(ColorSource([4]uint8{1, 2, 3, 4}))
	if !b.IsEmpty() {
		t.Fatalf("new batch should be empty")
	}
	b.AddRect(0, 0, 16, 16)
	b.AddLine(mgl32.Vec2{0, 0}, mgl32.Vec2{4, 0}, 2)
	b.AddLine(mgl32.Vec2{1, 1}, mgl32.Vec2{1, 1}, 2) // zero length, dropped
	if len(b.Vertices) != 8 || len(b.Indices) != 4 {
		t.Fatalf("vertices=%d indices=%d", len(b.Vertices), len(b.Indices))
	}
	if !b.Vertices[4].ApproxEqual(mgl32.Vec2{0, 1}) || !b.Vertices[7].ApproxEqual(mgl32.Vec2{0, -1}) {
		t.Fatalf("line offsets wrong: %v %v", b.Vertices[4], b.Vertices[7])
	}
}

func TestTexture_SetAt(t *testing.T) {
	tx := NewTexture(2, 2)
	tx.Set(1, 1, [4]uint8{9, 8, 7, 6})
	tx.Set(5, 5, [4]uint8{1, 1, 1, 1})
	if got := tx.At(1, 1); got != [4]uint8{9, 8, 7, 6} {
		t.Fatalf("at=%v", got)
	}
	if got := tx.At(-1, 0); got != ([4]uint8{}) {
		t.Fatalf("out of range at=%v", got)
	}
}
