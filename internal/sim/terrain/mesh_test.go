package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
)

func TestBuildMesh_EmptyWithoutProcessedHeights(t *testing.T) {
	tr := New(16)
	tr.SetHeight(1, 1, 5)
	ch := tr.ChunkAt(1, 1)
	b := ch.BuildMesh(tr)
	if !b.IsEmpty() || len(b.Vertices) != 0 {
		t.Fatalf("raw heights alone must not mesh: %d vertices", len(b.Vertices))
	}
	if b.Source.Kind != batch.SourceTerrain {
		t.Fatalf("source=%v", b.Source.Kind)
	}
}

func TestBuildMesh_DeduplicatesSharedCorners(t *testing.T) {
	tr := New(16)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			tr.SetHeight(x, y, 0)
		}
	}
	ch := tr.ChunkAt(0, 0)
	ch.SetProcessedHeights(ch.ProcessBatchModifiers(nil, tr, nil, nil, nil))

	b := ch.BuildMesh(tr)
	if len(b.Vertices) != 9 {
		t.Fatalf("vertices=%d want 9", len(b.Vertices))
	}
	if len(b.Indices) != 8 {
		t.Fatalf("triangles=%d want 8", len(b.Indices))
	}
	if len(b.Normals) != 9 || len(b.UVs) != 9 {
		t.Fatalf("normals=%d uvs=%d", len(b.Normals), len(b.UVs))
	}
	for i, n := range b.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("normal[%d]=%v want +Y", i, n)
		}
	}
	// Winding: every face normal points up.
	for _, tri := range b.Indices {
		p0, p1, p2 := b.Vertices[tri[0]], b.Vertices[tri[1]], b.Vertices[tri[2]]
		if fn := p1.Sub(p0).Cross(p2.Sub(p0)); fn.Y() <= 0 {
			t.Fatalf("face %v winds downward: %v", tri, fn)
		}
	}
}

func TestBuildMesh_OnlyProcessedCellsAndStitchedHeights(t *testing.T) {
	tr := New(16)
	tr.SetHeight(15, 0, 1)
	tr.SetHeight(14, 0, 1)
	tr.SetHeight(16, 0, 4) // neighbour chunk
	ch := tr.ChunkAt(15, 0)
	ch.SetProcessedHeights(map[geom.Vec2i]float32{geom.V2i(15, 0): 2})

	b := ch.BuildMesh(tr)
	if len(b.Vertices) != 4 || len(b.Indices) != 2 {
		t.Fatalf("vertices=%d triangles=%d want 4/2", len(b.Vertices), len(b.Indices))
	}
	heights := map[[2]float32]float32{}
	for _, v := range b.Vertices {
		heights[[2]float32{v.X(), v.Z()}] = v.Y()
	}
	if heights[[2]float32{15, 0}] != 2 {
		t.Fatalf("own corner=%v want processed 2", heights[[2]float32{15, 0}])
	}
	if heights[[2]float32{16, 0}] != 4 {
		t.Fatalf("seam corner=%v want neighbour height 4", heights[[2]float32{16, 0}])
	}
}

func TestBuildMeshD2_CoversChunk(t *testing.T) {
	ch := NewChunk(geom.V2i(32, 16), 16)
	b := ch.BuildMeshD2(nil)
	if len(b.Vertices) != 4 || len(b.Indices) != 2 {
		t.Fatalf("vertices=%d triangles=%d", len(b.Vertices), len(b.Indices))
	}
	if b.Vertices[0] != (mgl32.Vec2{32, 16}) || b.Vertices[2] != (mgl32.Vec2{48, 32}) {
		t.Fatalf("rect=%v", b.Vertices)
	}
	if b.Source.Kind != batch.SourceTerrain {
		t.Fatalf("source=%v", b.Source.Kind)
	}
}
