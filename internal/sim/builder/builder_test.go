package builder

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

func testAssets(t *testing.T) *catalogs.Assets {
	t.Helper()
	pal, err := catalogs.NewPalette([]string{"#ffffff", "#00ff00"})
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	return &catalogs.Assets{
		Tiles:   catalogs.NewTileList([]catalogs.Tile{{ID: "stone"}, {ID: "tree", Billboard: true, Scale: 2}}),
		Palette: pal,
	}
}

func testMap() *vmap.Map {
	m := &vmap.Map{
		ID: "b",
		Vertices: []vmap.Vertex{
			{ID: 1, X: 2, Y: 2}, {ID: 2, X: 12, Y: 2},
			{ID: 3, X: 2, Y: 8}, {ID: 4, X: 12, Y: 8, Props: vmap.Properties{PropBillboard: "tree"}},
			{ID: 5, X: 40, Y: 40, Props: vmap.Properties{PropBillboard: "tree"}},
		},
		Linedefs: []vmap.Linedef{
			{ID: 1, Start: 1, End: 2, Props: vmap.Properties{PropTile: "stone", PropWallHeight: "3"}},
			{ID: 2, Start: 3, End: 4, Props: vmap.Properties{PropColor: "1", PropLineWidth: "0.5"}},
			{ID: 3, Start: 1, End: 3, Props: vmap.Properties{PropTile: "stone"}},
		},
	}
	m.Reindex()
	return m
}

func testChunk(tr *terrain.Terrain) *scene.Chunk {
	return &scene.Chunk{Origin: geom.V2i(0, 0), Size: 16, BBox: geom.NewBBox(0, 0, 16, 16), Terrain: tr}
}

func TestD2_LinesGroupedBySource(t *testing.T) {
	tr := terrain.New(16)
	tr.SetHeight(1, 1, 0)
	ch := testChunk(tr)
	vm := &scene.VMChunk{Origin: ch.Origin, Size: 16}

	D2{}.Build(testMap(), testAssets(t), ch, vm)

	if len(vm.Batches2D) != 3 {
		t.Fatalf("batches=%d want 3 (ground, stone, colour)", len(vm.Batches2D))
	}
	if vm.Batches2D[0].Source.Kind != batch.SourceTerrain {
		t.Fatalf("first batch=%v want terrain ground", vm.Batches2D[0].Source.Kind)
	}
	stone := vm.Batches2D[1]
	if stone.Source != batch.TileSource("stone") || len(stone.Indices) != 4 {
		t.Fatalf("stone batch=%+v tris=%d", stone.Source, len(stone.Indices))
	}
	green := vm.Batches2D[2]
	if green.Source != batch.ColorSource([4]uint8{0, 255, 0, 255}) {
		t.Fatalf("colour batch=%+v", green.Source)
	}
	// Line 2 runs along y=8 with width 0.5.
	for _, v := range green.Vertices {
		if d := v.Y() - 8; d != 0.25 && d != -0.25 {
			t.Fatalf("vertex %v not at half width", v)
		}
	}
}

func TestD2_SkipsFarLinesAndMissingTerrain(t *testing.T) {
	ch := &scene.Chunk{Origin: geom.V2i(64, 64), Size: 16, BBox: geom.NewBBox(64, 64, 80, 80)}
	vm := &scene.VMChunk{}
	D2{}.Build(testMap(), testAssets(t), ch, vm)
	if len(vm.Batches2D) != 0 {
		t.Fatalf("batches=%d", len(vm.Batches2D))
	}
}

func TestD3_WallsStandOnTerrain(t *testing.T) {
	tr := terrain.New(16)
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			tr.SetHeight(x, y, 1)
		}
	}
	ch := testChunk(tr)
	vm := &scene.VMChunk{}
	D3{}.Build(testMap(), testAssets(t), ch, vm)

	if len(vm.Batches3D) != 1 {
		t.Fatalf("batches=%d want 1 wall batch", len(vm.Batches3D))
	}
	w := vm.Batches3D[0]
	if w.Source != batch.TileSource("stone") || len(w.Vertices) != 4 || len(w.Indices) != 2 {
		t.Fatalf("wall=%+v vertices=%d", w.Source, len(w.Vertices))
	}
	if w.Vertices[0].Y() != 1 || w.Vertices[3].Y() != 4 {
		t.Fatalf("wall base/top=%v/%v want 1/4", w.Vertices[0].Y(), w.Vertices[3].Y())
	}
	for i, n := range w.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
			t.Fatalf("normal[%d]=%v", i, n)
		}
	}

	if len(ch.Billboards) != 1 {
		t.Fatalf("billboards=%v", ch.Billboards)
	}
	bb := ch.Billboards[0]
	if bb.TileID != "tree" || bb.Size != 2 || bb.Pos != (mgl32.Vec3{12, 1, 8}) {
		t.Fatalf("billboard=%+v", bb)
	}
}

func TestBuilders_ThroughManager(t *testing.T) {
	s := scene.New(scene.Config{ChunkSize: 16, Builder2D: D2{}, Builder3D: D3{}})
	s.Send(scene.SetMap{Map: testMap()})
	s.TickBatch(100)

	billboards := 0
	for {
		r, ok := s.Receive()
		if !ok {
			break
		}
		if cr, ok := r.(scene.ChunkResult); ok {
			billboards += len(cr.Billboards)
		}
	}
	if billboards != 2 {
		t.Fatalf("billboards=%d want 2", billboards)
	}
}
